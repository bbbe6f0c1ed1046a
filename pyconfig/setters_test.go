package pyconfig_test

import (
	"context"
	"slices"
	"testing"

	"github.com/wippyai/pyboot/archive"
	"github.com/wippyai/pyboot/errors"
	"github.com/wippyai/pyboot/options"
	"github.com/wippyai/pyboot/pyconfig"
	"github.com/wippyai/pyboot/wchar"
)

func allocate(t *testing.T, s *pyconfig.Startup) *pyconfig.Config {
	t.Helper()
	cfg, err := pyconfig.Allocate(context.Background(), s)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	t.Cleanup(func() { _ = cfg.Free(context.Background()) })
	return cfg
}

func TestSetStrings(t *testing.T) {
	for _, p := range pyconfig.Platforms {
		t.Run(p.Name, func(t *testing.T) {
			ctx := context.Background()
			s, rt := newStartup(t, p, v312)
			cfg := allocate(t, s)

			if err := pyconfig.SetProgramName(ctx, s, cfg); err != nil {
				t.Fatalf("SetProgramName: %v", err)
			}
			if err := pyconfig.SetHome(ctx, s, cfg); err != nil {
				t.Fatalf("SetHome: %v", err)
			}

			if got, _ := cfg.String("program_name"); got != s.Executable {
				t.Errorf("program_name = %q, want %q", got, s.Executable)
			}
			if got, _ := cfg.String("home"); got != s.Home {
				t.Errorf("home = %q, want %q", got, s.Home)
			}

			wantCall := "PyConfig_SetBytesString"
			if p.HostWide {
				wantCall = "PyConfig_SetString"
			}
			if !rt.Called(wantCall) {
				t.Errorf("calls = %v, want %s", rt.Calls, wantCall)
			}
			// the config plus one owned copy per string
			if rt.Live() != 3 {
				t.Errorf("live allocations = %d, want 3", rt.Live())
			}
		})
	}
}

func TestSetModuleSearchPaths(t *testing.T) {
	tests := []struct {
		p    *pyconfig.Platform
		want []string
	}{
		{pyconfig.WASI, []string{"/app/base_library.zip", "/app/lib-dynload", "/app"}},
		{pyconfig.Linux64, []string{"/app/base_library.zip", "/app/lib-dynload", "/app"}},
		{pyconfig.Windows64, []string{`C:\app\base_library.zip`, `C:\app\lib-dynload`, `C:\app`}},
	}

	for _, tt := range tests {
		t.Run(tt.p.Name, func(t *testing.T) {
			ctx := context.Background()
			s, rt := newStartup(t, tt.p, v312)
			cfg := allocate(t, s)
			before := rt.Live()

			if err := pyconfig.SetModuleSearchPaths(ctx, s, cfg); err != nil {
				t.Fatalf("SetModuleSearchPaths: %v", err)
			}

			got, err := cfg.StringList("module_search_paths")
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("module_search_paths = %v, want %v", got, tt.want)
			}
			if set, _ := cfg.Int("module_search_paths_set"); set != 1 {
				t.Errorf("module_search_paths_set = %d, want 1", set)
			}
			// only the runtime's own list copy survives: array + 3 strings
			if rt.Live()-before != 4 {
				t.Errorf("new live allocations = %d, want 4", rt.Live()-before)
			}
		})
	}
}

func TestSetModuleSearchPaths_ListFailure(t *testing.T) {
	ctx := context.Background()
	s, rt := newStartup(t, pyconfig.WASI, v312)
	cfg := allocate(t, s)
	rt.FailListAt = 1
	before := rt.Live()

	err := pyconfig.SetModuleSearchPaths(ctx, s, cfg)
	if !errors.IsKind(err, errors.KindRuntimeAPI) {
		t.Fatalf("err = %v, want runtime api failure", err)
	}
	if rt.Live() != before {
		t.Errorf("live allocations = %d, want %d", rt.Live(), before)
	}
	if set, _ := cfg.Int("module_search_paths_set"); set != 0 {
		t.Errorf("module_search_paths_set = %d, want 0 after failure", set)
	}
}

func TestSetArgv(t *testing.T) {
	ctx := context.Background()
	s, _ := newStartup(t, pyconfig.WASI, v312)
	cfg := allocate(t, s)

	if err := pyconfig.SetArgv(ctx, s, cfg); err != nil {
		t.Fatalf("SetArgv: %v", err)
	}
	got, _ := cfg.StringList("argv")
	if !slices.Equal(got, s.Argv) {
		t.Errorf("argv = %v, want %v", got, s.Argv)
	}
}

func TestSetArgv_Override(t *testing.T) {
	ctx := context.Background()
	s, _ := newStartup(t, pyconfig.Linux64, v312)
	s.OverrideArgv = []string{"/app/myapp", "-psn_0_1234"}
	cfg := allocate(t, s)

	if err := pyconfig.SetArgv(ctx, s, cfg); err != nil {
		t.Fatalf("SetArgv: %v", err)
	}
	got, _ := cfg.StringList("argv")
	if !slices.Equal(got, s.OverrideArgv) {
		t.Errorf("argv = %v, want %v", got, s.OverrideArgv)
	}
}

func TestSetArgv_PreWidened(t *testing.T) {
	ctx := context.Background()
	s, rt := newStartup(t, pyconfig.Windows64, v312)
	want := []string{`C:\app\myapp.exe`, "héllo"}
	for _, a := range want {
		w, err := wchar.UTF16.Encode(a)
		if err != nil {
			t.Fatal(err)
		}
		s.WideArgv = append(s.WideArgv, w)
	}
	cfg := allocate(t, s)

	if err := pyconfig.SetArgv(ctx, s, cfg); err != nil {
		t.Fatalf("SetArgv: %v", err)
	}
	got, _ := cfg.StringList("argv")
	if !slices.Equal(got, want) {
		t.Errorf("argv = %v, want %v", got, want)
	}
	if rt.Called("Py_DecodeLocale") {
		t.Error("pre-widened argv should not be decoded")
	}
}

func TestSetArgv_PartialDecodeFailureReleasesAll(t *testing.T) {
	for failAt := 1; failAt <= 3; failAt++ {
		ctx := context.Background()
		s, rt := newStartup(t, pyconfig.WASI, v312)
		cfg := allocate(t, s)
		rt.FailDecodeAt = failAt
		before := rt.Live()

		err := pyconfig.SetArgv(ctx, s, cfg)
		if !errors.IsKind(err, errors.KindConversion) {
			t.Errorf("fail at %d: err = %v, want conversion failure", failAt, err)
		}
		if rt.Live() != before {
			t.Errorf("fail at %d: live allocations = %d, want %d", failAt, rt.Live(), before)
		}
		if rt.Called("PyConfig_SetWideStringList") {
			t.Errorf("fail at %d: argv list should not be set", failAt)
		}
	}
}

func TestSetArgv_StopsAtFirstFailure(t *testing.T) {
	s, rt := newStartup(t, pyconfig.WASI, v312)
	cfg := allocate(t, s)
	rt.FailDecodeAt = 2

	_ = pyconfig.SetArgv(context.Background(), s, cfg)

	decodes := 0
	for _, c := range rt.Calls {
		if c == "Py_DecodeLocale" {
			decodes++
		}
	}
	if decodes != 2 {
		t.Errorf("Py_DecodeLocale called %d times, want 2", decodes)
	}
}

func TestSetArgv_InvalidUTF8OnWidePlatform(t *testing.T) {
	s, rt := newStartup(t, pyconfig.Windows64, v312)
	s.Argv = []string{"ok", "bad\xff"}
	cfg := allocate(t, s)
	before := rt.Live()

	err := pyconfig.SetArgv(context.Background(), s, cfg)
	if !errors.IsKind(err, errors.KindConversion) {
		t.Errorf("err = %v, want conversion failure", err)
	}
	if rt.Live() != before {
		t.Errorf("live allocations = %d, want %d", rt.Live(), before)
	}
}

func TestSetRuntimeOptions(t *testing.T) {
	ctx := context.Background()
	s, _ := newStartup(t, pyconfig.Linux64, v312)
	cfg := allocate(t, s)

	toc := archive.List{
		{Name: "v", Type: archive.TypeRuntimeOption},
		{Name: "O", Type: archive.TypeRuntimeOption},
		{Name: "O", Type: archive.TypeRuntimeOption},
		{Name: "u", Type: archive.TypeRuntimeOption},
		{Name: "hash_seed=99", Type: archive.TypeRuntimeOption},
		{Name: "W ignore", Type: archive.TypeRuntimeOption},
		{Name: "X dev", Type: archive.TypeRuntimeOption},
	}
	opts, err := options.Extract(toc, s.Platform.Encoding())
	if err != nil {
		t.Fatal(err)
	}
	defer options.Free(opts)

	if err := pyconfig.SetRuntimeOptions(ctx, s, cfg, opts); err != nil {
		t.Fatalf("SetRuntimeOptions: %v", err)
	}

	ints := map[string]int32{
		"site_import":             0,
		"write_bytecode":          0,
		"configure_c_stdio":       1,
		"install_signal_handlers": 1,
		"optimization_level":      2,
		"buffered_stdio":          0,
		"verbose":                 1,
		"use_hash_seed":           1,
		"dev_mode":                1,
	}
	for name, want := range ints {
		if got, _ := cfg.Int(name); got != want {
			t.Errorf("%s = %d, want %d", name, got, want)
		}
	}
	if got, _ := cfg.ULong("hash_seed"); got != 99 {
		t.Errorf("hash_seed = %d, want 99", got)
	}
	if got, _ := cfg.StringList("warnoptions"); !slices.Equal(got, []string{"ignore"}) {
		t.Errorf("warnoptions = %v, want [ignore]", got)
	}
	if got, _ := cfg.StringList("xoptions"); !slices.Equal(got, []string{"dev"}) {
		t.Errorf("xoptions = %v, want [dev]", got)
	}
}

func TestSetRuntimeOptions_EmptyListsNotSet(t *testing.T) {
	s, rt := newStartup(t, pyconfig.WASI, v312)
	cfg := allocate(t, s)

	opts, err := options.Extract(archive.List{}, s.Platform.Encoding())
	if err != nil {
		t.Fatal(err)
	}
	if err := pyconfig.SetRuntimeOptions(context.Background(), s, cfg, opts); err != nil {
		t.Fatal(err)
	}
	if rt.Called("PyConfig_SetWideStringList") {
		t.Error("empty flag lists should not be set")
	}
	if got, _ := cfg.Int("buffered_stdio"); got != 1 {
		t.Errorf("buffered_stdio = %d, want 1", got)
	}
}

func TestSetRuntimeOptions_XListFailure(t *testing.T) {
	s, rt := newStartup(t, pyconfig.WASI, v312)
	cfg := allocate(t, s)

	toc := archive.List{
		{Name: "W ignore", Type: archive.TypeRuntimeOption},
		{Name: "X utf8", Type: archive.TypeRuntimeOption},
	}
	opts, err := options.Extract(toc, s.Platform.Encoding())
	if err != nil {
		t.Fatal(err)
	}
	rt.FailListAt = 2

	err = pyconfig.SetRuntimeOptions(context.Background(), s, cfg, opts)
	if !errors.IsKind(err, errors.KindRuntimeAPI) {
		t.Errorf("err = %v, want runtime api failure", err)
	}
}

func TestSetRuntimeOptions_EncodingMismatch(t *testing.T) {
	s, _ := newStartup(t, pyconfig.Windows64, v312)
	cfg := allocate(t, s)

	opts, err := options.Extract(archive.List{}, wchar.UTF32)
	if err != nil {
		t.Fatal(err)
	}
	err = pyconfig.SetRuntimeOptions(context.Background(), s, cfg, opts)
	if !errors.IsKind(err, errors.KindInvalidInput) {
		t.Errorf("err = %v, want invalid input", err)
	}
}
