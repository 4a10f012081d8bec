package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dewiedem/salmagundi/cif"
)

// checkCmd parses inputs and reports a one-line summary per input.
var checkCmd = &cobra.Command{
	Use:   "check [file...]",
	Short: "Syntax-check CIF documents",
	Long: `Parse each input and report a one-line summary: the grammar the
document was parsed under and its block, item, loop and row counts. The
exit status is non-zero when any input fails to parse.`,
	RunE: runCheckCommand,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheckCommand(cmd *cobra.Command, args []string) error {
	popts, err := parseOptions()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{"-"}
	}

	failed := 0
	for _, path := range args {
		name := path
		if path == "-" {
			name = "stdin"
		}
		text, err := readInput(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
			failed++
			continue
		}
		f, err := cif.ParseWithOptions(text, popts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
			failed++
			continue
		}
		fmt.Printf("%s: ok (%s)\n", name, summarize(f))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d inputs failed", failed, len(args))
	}
	return nil
}

func summarize(f *cif.File) string {
	items, loops, rows := 0, 0, 0
	for _, bn := range f.BlockNames() {
		b, _ := f.Block(bn)
		items += len(b.Names())
		for _, l := range b.Loops() {
			loops++
			rows += l.Len()
		}
	}
	return fmt.Sprintf("grammar %s, %s, %s, %s, %s",
		f.Grammar(),
		plural(f.Len(), "block"),
		plural(items, "item"),
		plural(loops, "loop"),
		plural(rows, "row"))
}

func plural(n int, what string) string {
	if n == 1 {
		return "1 " + what
	}
	return fmt.Sprintf("%d %ss", n, what)
}
