package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wippyai/pyboot/archive"
	"github.com/wippyai/pyboot/options"
	"github.com/wippyai/pyboot/wchar"
)

var flagManifest string

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the runtime options extracted from a manifest",
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().StringVarP(&flagManifest, "manifest", "m", "", "Path to the TOC manifest (YAML)")
	inspectCmd.Flags().StringVar(&flagPlatform, "platform", "wasi", "Target platform (wasi, linux64, windows64)")
	_ = inspectCmd.MarkFlagRequired("manifest")
}

func runInspect(cmd *cobra.Command, _ []string) error {
	p, err := lookupPlatform(flagPlatform)
	if err != nil {
		return err
	}

	toc, err := archive.LoadManifest(cmd.Context(), flagManifest)
	if err != nil {
		return err
	}

	opts, err := options.Extract(toc, p.Encoding())
	if err != nil {
		return err
	}
	defer options.Free(opts)

	printBundle(cmd.OutOrStdout(), flagManifest, toc, opts)
	return nil
}

func printBundle(w io.Writer, source string, toc archive.List, opts *options.Bundle) {
	total := 0
	for range archive.Options(toc) {
		total++
	}

	fmt.Fprintln(w, titleStyle.Render("Runtime options")+" "+source)
	fmt.Fprintln(w)
	fmt.Fprintln(w, field("option entries", total))
	fmt.Fprintln(w, field("verbose", opts.Verbose))
	fmt.Fprintln(w, field("optimize", opts.Optimize))
	fmt.Fprintln(w, field("unbuffered", opts.Unbuffered))
	if opts.UseHashSeed {
		fmt.Fprintln(w, field("hash_seed", opts.HashSeed))
	} else {
		fmt.Fprintln(w, field("hash_seed", "random"))
	}
	fmt.Fprintln(w, field("utf8_mode", opts.UTF8Mode))
	fmt.Fprintln(w, field("dev_mode", opts.DevMode))
	fmt.Fprintln(w, field("warnoptions", opts.WarnOptions()))
	fmt.Fprintln(w, field("xoptions", opts.XOptions()))
	fmt.Fprintln(w, field("wchar_t", fmt.Sprintf("%d bytes", encodingSize(opts.Encoding()))))
}

func encodingSize(enc *wchar.Encoding) int {
	if enc == nil {
		return 0
	}
	return enc.Size()
}

func fmtValue(v any) string {
	switch v := v.(type) {
	case []string:
		if len(v) == 0 {
			return "[]"
		}
		return "[" + strings.Join(quoteAll(v), ", ") + "]"
	default:
		return fmt.Sprint(v)
	}
}

func quoteAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
