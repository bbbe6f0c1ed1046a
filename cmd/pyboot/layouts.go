package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	plain "github.com/rodaine/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wippyai/pyboot/pyconfig"
)

var flagInteractive bool

var layoutsCmd = &cobra.Command{
	Use:   "layouts",
	Short: "List the PyConfig layouts known for a platform",
	Long: `Prints one row per supported runtime version with the PyConfig and
PyPreConfig sizes and the offsets of the fields the builder writes.

With -i on a terminal, opens a browser that also shows every field.`,
	RunE: runLayouts,
}

func init() {
	layoutsCmd.Flags().StringVar(&flagPlatform, "platform", "wasi", "Target platform (wasi, linux64, windows64)")
	layoutsCmd.Flags().BoolVarP(&flagInteractive, "interactive", "i", false, "Browse layouts interactively")
}

// Columns shown for every layout, in order.
var layoutColumns = []string{"version", "id", "config", "preconfig", "program_name", "home", "argv", "module_search_paths"}

func runLayouts(cmd *cobra.Command, _ []string) error {
	p, err := lookupPlatform(flagPlatform)
	if err != nil {
		return err
	}

	table := pyconfig.TableFor(p)
	if flagInteractive && term.IsTerminal(int(os.Stdout.Fd())) {
		return runBrowser(p, table.Layouts())
	}
	return printLayouts(cmd.OutOrStdout(), p, table.Layouts())
}

func printLayouts(w io.Writer, p *pyconfig.Platform, layouts []*pyconfig.Layout) error {
	fmt.Fprintln(w, titleStyle.Render("PyConfig layouts")+" "+p.Name)
	fmt.Fprintln(w)

	headers := make([]any, len(layoutColumns))
	for i, c := range layoutColumns {
		headers[i] = c
	}
	tbl := plain.New(headers...).
		WithWriter(w).
		WithPadding(2).
		WithWidthFunc(lipgloss.Width).
		WithFirstColumnFormatter(func(format string, vals ...any) string {
			return keyStyle.Render(fmt.Sprintf(format, vals...))
		})

	for _, l := range layouts {
		row := layoutRow(l)
		cells := make([]any, len(row))
		for i, c := range row {
			cells[i] = c
		}
		tbl.AddRow(cells...)
	}
	tbl.Print()
	return nil
}

// layoutRow renders l as cells matching layoutColumns.
func layoutRow(l *pyconfig.Layout) []string {
	return []string{
		l.Version.String(),
		strconv.Itoa(l.Version.ID()),
		strconv.FormatUint(uint64(l.Config.Size), 10),
		strconv.FormatUint(uint64(l.PreConfig.Size), 10),
		offsetCell(l, "program_name"),
		offsetCell(l, "home"),
		offsetCell(l, "argv"),
		offsetCell(l, "module_search_paths"),
	}
}

func offsetCell(l *pyconfig.Layout, name string) string {
	off, ok := l.Config.Offset(name)
	if !ok {
		return "-"
	}
	return strconv.FormatUint(uint64(off), 10)
}

// fieldRows lists every field present in l in declaration order, as
// name, kind and offset.
func fieldRows(l *pyconfig.Layout) [][]string {
	rows := make([][]string, 0, len(l.Decl.Fields))
	for _, f := range l.Decl.Fields {
		off, ok := l.Config.Offset(f.Name)
		if !ok {
			continue
		}
		rows = append(rows, []string{f.Name, f.Kind.String(), strconv.FormatUint(uint64(off), 10)})
	}
	return rows
}
