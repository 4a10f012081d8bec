package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dewiedem/salmagundi/cif"
)

// detectCmd prints the grammar auto-detection settles on.
var detectCmd = &cobra.Command{
	Use:   "detect [file]",
	Short: "Detect the grammar of a CIF document",
	Long: `Try each grammar the way automatic detection does (2.0, then 1.1,
then 1.0) and print the first one that accepts the input. STAR2 is never
auto-detected; parse STAR2 files with --grammar STAR2.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDetectCommand,
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

func runDetectCommand(cmd *cobra.Command, args []string) error {
	file := ""
	if len(args) == 1 {
		file = args[0]
	}
	text, err := readInput(file)
	if err != nil {
		return err
	}

	g, err := cif.DetectGrammar(text)
	if err != nil {
		var derr *cif.GrammarDetectionError
		if errors.As(err, &derr) {
			for _, a := range derr.Attempts {
				fmt.Fprintf(os.Stderr, "  %s: %v\n", a.Grammar, a.Err)
			}
			return errors.New("no grammar matches input")
		}
		return err
	}
	fmt.Println(g)
	return nil
}
