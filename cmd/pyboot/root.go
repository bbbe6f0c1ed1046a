package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/pyboot/loader"
	"github.com/wippyai/pyboot/options"
	"github.com/wippyai/pyboot/pyconfig"
)

var (
	flagDebug    bool
	flagPlatform string
)

var rootCmd = &cobra.Command{
	Use:   "pyboot",
	Short: "Build PEP 587 startup configurations for embedded CPython",
	Long: `pyboot inspects application manifests, prints the PyConfig layouts it
knows about, and builds a startup configuration inside a wasm32-wasi CPython.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable development logging")

	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(layoutsCmd)
	rootCmd.AddCommand(buildCmd)
}

func setupLogging(_ *cobra.Command, _ []string) error {
	var (
		log *zap.Logger
		err error
	)
	if flagDebug {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	pyconfig.SetLogger(log.Named("pyconfig"))
	loader.SetLogger(log.Named("loader"))
	options.SetLogger(log.Named("options"))
	return nil
}

func lookupPlatform(name string) (*pyconfig.Platform, error) {
	p, ok := pyconfig.PlatformByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown platform %q (want wasi, linux64 or windows64)", name)
	}
	return p, nil
}
