package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/pterm/pterm"
	"golang.org/x/term"
)

var out io.Writer = os.Stdout

func isTerminal() bool {
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printTable draws a boxed table on a terminal and plain tab-separated
// columns otherwise, so output can be piped to awk.
func printTable(header []string, rows [][]string) error {
	if isTerminal() {
		data := pterm.TableData{header}
		data = append(data, rows...)
		return pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Render()
	}

	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	for _, row := range append([][]string{header}, rows...) {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, cell)
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func printWarning(format string, args ...any) {
	if isTerminal() {
		pterm.Warning.Printfln(format, args...)
		return
	}
	fmt.Fprintf(out, "warning: "+format+"\n", args...)
}
