package main

import (
	"fmt"
	"io"
	"os"
	"path"

	"github.com/spf13/cobra"

	"github.com/wippyai/pyboot/archive"
	"github.com/wippyai/pyboot/loader"
	"github.com/wippyai/pyboot/pyconfig"
)

var buildFlags struct {
	wasm       string
	manifest   string
	home       string
	executable string
	pages      uint32
}

var buildCmd = &cobra.Command{
	Use:   "build --wasm python.wasm -m manifest.yaml [-- args...]",
	Short: "Build a startup configuration inside a wasm CPython",
	Long: `Loads python.wasm, pre-initializes it with the manifest's runtime
options and populates a PyConfig. The populated fields are printed and the
config is freed again; the interpreter itself is never started.`,
	RunE: runBuild,
}

func init() {
	f := buildCmd.Flags()
	f.StringVar(&buildFlags.wasm, "wasm", "", "Path to a wasm32-wasi CPython build")
	f.StringVarP(&buildFlags.manifest, "manifest", "m", "", "Path to the TOC manifest (YAML)")
	f.StringVar(&buildFlags.home, "home", "/app", "Application directory inside the guest")
	f.StringVar(&buildFlags.executable, "executable", "", "Program name (default <home>/app)")
	f.Uint32Var(&buildFlags.pages, "memory-pages", 0, "Guest memory limit in 64KiB pages")
	_ = buildCmd.MarkFlagRequired("wasm")
	_ = buildCmd.MarkFlagRequired("manifest")
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	toc, err := archive.LoadManifest(ctx, buildFlags.manifest)
	if err != nil {
		return err
	}

	wasm, err := os.ReadFile(buildFlags.wasm)
	if err != nil {
		return fmt.Errorf("read %s: %w", buildFlags.wasm, err)
	}

	rt, err := loader.Load(ctx, wasm,
		loader.WithStdout(os.Stdout),
		loader.WithStderr(os.Stderr),
		loader.WithMemoryLimitPages(buildFlags.pages),
	)
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	exe := buildFlags.executable
	if exe == "" {
		exe = path.Join(buildFlags.home, "app")
	}

	s := &pyconfig.Startup{
		API:        rt,
		Platform:   rt.Platform(),
		Executable: exe,
		Home:       buildFlags.home,
		Argv:       append([]string{exe}, args...),
		Version:    rt.Version(),
	}

	b := pyconfig.NewBuilder(s)
	cfg, err := b.Build(ctx, toc)
	if err != nil {
		fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("build failed after %s", b.FailedAt())))
		return err
	}
	defer cfg.Free(ctx)

	fmt.Fprintln(out, titleStyle.Render("PyConfig")+" python "+rt.VersionString())
	fmt.Fprintln(out)
	return printConfig(out, cfg)
}

var printedStrings = []string{"program_name", "home"}

var printedLists = []string{"module_search_paths", "argv", "warnoptions", "xoptions"}

var printedInts = []string{
	"module_search_paths_set", "site_import", "write_bytecode", "optimization_level",
	"buffered_stdio", "verbose", "use_hash_seed", "dev_mode", "install_signal_handlers",
}

func printConfig(w io.Writer, cfg *pyconfig.Config) error {
	for _, name := range printedStrings {
		v, err := cfg.String(name)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, field(name, v))
	}
	for _, name := range printedLists {
		v, err := cfg.StringList(name)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, field(name, v))
	}
	for _, name := range printedInts {
		v, err := cfg.Int(name)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, field(name, v))
	}
	seed, err := cfg.ULong("hash_seed")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, field("hash_seed", seed))
	return nil
}
