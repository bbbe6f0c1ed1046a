package pyconfig

import (
	"slices"

	"github.com/wippyai/pyboot/layout"
)

// Field names written by the setters. They are present in every supported
// PyConfig release.
const (
	fieldProgramName           = "program_name"
	fieldHome                  = "home"
	fieldModuleSearchPaths     = "module_search_paths"
	fieldModuleSearchPathsSet  = "module_search_paths_set"
	fieldArgv                  = "argv"
	fieldWarnOptions           = "warnoptions"
	fieldXOptions              = "xoptions"
	fieldSiteImport            = "site_import"
	fieldWriteBytecode         = "write_bytecode"
	fieldConfigureCStdio       = "configure_c_stdio"
	fieldOptimizationLevel     = "optimization_level"
	fieldBufferedStdio         = "buffered_stdio"
	fieldVerbose               = "verbose"
	fieldUseHashSeed           = "use_hash_seed"
	fieldHashSeed              = "hash_seed"
	fieldDevMode               = "dev_mode"
	fieldInstallSignalHandlers = "install_signal_handlers"
)

// PyPreConfig field names.
const (
	preFieldUTF8Mode        = "utf8_mode"
	preFieldDevMode         = "dev_mode"
	preFieldConfigureLocale = "configure_locale"
)

func i(name string) layout.Field  { return layout.Field{Name: name, Kind: layout.Int} }
func ul(name string) layout.Field { return layout.Field{Name: name, Kind: layout.ULong} }
func ws(name string) layout.Field { return layout.Field{Name: name, Kind: layout.WideString} }
func wl(name string) layout.Field { return layout.Field{Name: name, Kind: layout.WideStringList} }

func windowsOnly(f layout.Field) layout.Field {
	f.When = layout.WindowsOnly
	return f
}

func freeThreadedOnly(f layout.Field) layout.Field {
	f.When = layout.FreeThreaded
	return f
}

// edit derives one release's field list from the previous one.
type edit func([]layout.Field) []layout.Field

func after(name string, add ...layout.Field) edit {
	return func(fs []layout.Field) []layout.Field {
		idx := slices.IndexFunc(fs, func(f layout.Field) bool { return f.Name == name })
		if idx < 0 {
			panic("pyconfig: unknown anchor field " + name)
		}
		return slices.Insert(fs, idx+1, add...)
	}
}

func appended(add ...layout.Field) edit {
	return func(fs []layout.Field) []layout.Field {
		return append(fs, add...)
	}
}

func without(names ...string) edit {
	return func(fs []layout.Field) []layout.Field {
		return slices.DeleteFunc(fs, func(f layout.Field) bool {
			return slices.Contains(names, f.Name)
		})
	}
}

func derive(name string, base *layout.Struct, edits ...edit) *layout.Struct {
	fs := slices.Clone(base.Fields)
	for _, e := range edits {
		fs = e(fs)
	}
	return &layout.Struct{Name: name, Fields: fs}
}

var preConfigStruct = &layout.Struct{
	Name: "PyPreConfig",
	Fields: []layout.Field{
		i("_config_init"),
		i("parse_argv"),
		i("isolated"),
		i("use_environment"),
		i("configure_locale"),
		i("coerce_c_locale"),
		i("coerce_c_locale_warn"),
		windowsOnly(i("legacy_windows_fs_encoding")),
		i("utf8_mode"),
		i("dev_mode"),
		i("allocator"),
	},
}

var configV38 = &layout.Struct{
	Name: "PyConfig_v38",
	Fields: []layout.Field{
		i("_config_init"),
		i("isolated"),
		i("use_environment"),
		i("dev_mode"),
		i("install_signal_handlers"),
		i("use_hash_seed"),
		ul("hash_seed"),
		i("faulthandler"),
		i("tracemalloc"),
		i("import_time"),
		i("show_ref_count"),
		i("show_alloc_count"),
		i("dump_refs"),
		i("malloc_stats"),
		ws("filesystem_encoding"),
		ws("filesystem_errors"),
		ws("pycache_prefix"),
		i("parse_argv"),
		wl("argv"),
		ws("program_name"),
		wl("xoptions"),
		wl("warnoptions"),
		i("site_import"),
		i("bytes_warning"),
		i("inspect"),
		i("interactive"),
		i("optimization_level"),
		i("parser_debug"),
		i("write_bytecode"),
		i("verbose"),
		i("quiet"),
		i("user_site_directory"),
		i("configure_c_stdio"),
		i("buffered_stdio"),
		ws("stdio_encoding"),
		ws("stdio_errors"),
		windowsOnly(i("legacy_windows_stdio")),
		ws("check_hash_pycs_mode"),
		i("pathconfig_warnings"),
		ws("pythonpath_env"),
		ws("home"),
		i("module_search_paths_set"),
		wl("module_search_paths"),
		ws("executable"),
		ws("base_executable"),
		ws("prefix"),
		ws("base_prefix"),
		ws("exec_prefix"),
		ws("base_exec_prefix"),
		i("skip_source_first_line"),
		ws("run_command"),
		ws("run_module"),
		ws("run_filename"),
		i("_install_importlib"),
		i("_init_main"),
	},
}

var configV39 = derive("PyConfig_v39", configV38,
	without("show_alloc_count"),
	after("faulthandler", i("_use_peg_parser")),
	after("base_exec_prefix", ws("platlibdir")),
	appended(i("_isolated_interpreter"), wl("_orig_argv")),
)

var configV310 = &layout.Struct{
	Name: "PyConfig_v310",
	Fields: []layout.Field{
		i("_config_init"),
		i("isolated"),
		i("use_environment"),
		i("dev_mode"),
		i("install_signal_handlers"),
		i("use_hash_seed"),
		ul("hash_seed"),
		i("faulthandler"),
		i("tracemalloc"),
		i("import_time"),
		i("show_ref_count"),
		i("dump_refs"),
		i("malloc_stats"),
		ws("filesystem_encoding"),
		ws("filesystem_errors"),
		ws("pycache_prefix"),
		i("parse_argv"),
		wl("orig_argv"),
		wl("argv"),
		wl("xoptions"),
		wl("warnoptions"),
		i("site_import"),
		i("bytes_warning"),
		i("warn_default_encoding"),
		i("inspect"),
		i("interactive"),
		i("optimization_level"),
		i("parser_debug"),
		i("write_bytecode"),
		i("verbose"),
		i("quiet"),
		i("user_site_directory"),
		i("configure_c_stdio"),
		i("buffered_stdio"),
		ws("stdio_encoding"),
		ws("stdio_errors"),
		windowsOnly(i("legacy_windows_stdio")),
		ws("check_hash_pycs_mode"),
		i("pathconfig_warnings"),
		ws("program_name"),
		ws("pythonpath_env"),
		ws("home"),
		ws("platlibdir"),
		i("module_search_paths_set"),
		wl("module_search_paths"),
		ws("executable"),
		ws("base_executable"),
		ws("prefix"),
		ws("base_prefix"),
		ws("exec_prefix"),
		ws("base_exec_prefix"),
		i("skip_source_first_line"),
		ws("run_command"),
		ws("run_module"),
		ws("run_filename"),
		i("_install_importlib"),
		i("_init_main"),
		i("_isolated_interpreter"),
	},
}

var configV311 = derive("PyConfig_v311", configV310,
	after("import_time", i("code_debug_ranges")),
	after("dump_refs", ws("dump_refs_file")),
	after("check_hash_pycs_mode", i("use_frozen_modules"), i("safe_path"), i("int_max_str_digits")),
	after("module_search_paths", ws("stdlib_dir")),
	appended(i("_is_python_build")),
)

var configV312 = derive("PyConfig_v312", configV311,
	after("tracemalloc", i("perf_profiling")),
	without("_isolated_interpreter"),
)

var configV313 = derive("PyConfig_v313", configV312,
	after("int_max_str_digits", i("cpu_count"), freeThreadedOnly(i("enable_gil"))),
	after("run_filename", ws("sys_path_0")),
)
