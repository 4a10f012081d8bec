package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dewiedem/salmagundi/cif"
	"github.com/dewiedem/salmagundi/cifio"
)

var (
	fmtTo       string
	fmtWrap     int
	fmtMaxLine  int
	fmtComment  string
	fmtTemplate string
	fmtOutput   string
)

// fmtCmd reparses a document and writes it back out.
var fmtCmd = &cobra.Command{
	Use:   "fmt [file]",
	Short: "Reformat a CIF document",
	Long: `Parse a CIF document and write it back under the requested output
grammar, wrap length and layout template. By default the output grammar is
the grammar the input was parsed under.

Examples:
  cif fmt structure.cif                 # normalize formatting
  cif fmt --to 2.0 legacy.cif           # upgrade to CIF 2.0
  cif fmt --template layout.cif in.cif  # impose a layout template
  cif fmt -o out.cif in.cif             # write to a file`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFmtCommand,
}

func init() {
	rootCmd.AddCommand(fmtCmd)

	fmtCmd.Flags().StringVar(&fmtTo, "to", "", "output grammar (default: the input grammar)")
	fmtCmd.Flags().IntVar(&fmtWrap, "wrap", 0, "soft wrap length (0 = 80, negative disables)")
	fmtCmd.Flags().IntVar(&fmtMaxLine, "out-max-line", 0, "output line length limit (0 = 2048)")
	fmtCmd.Flags().StringVar(&fmtComment, "comment", "", "comment emitted at the top of the output")
	fmtCmd.Flags().StringVar(&fmtTemplate, "template", "", "layout template file")
	fmtCmd.Flags().StringVarP(&fmtOutput, "output", "o", "", "write output to a file instead of stdout")
}

func runFmtCommand(cmd *cobra.Command, args []string) error {
	file := ""
	if len(args) == 1 {
		file = args[0]
	}
	text, err := readInput(file)
	if err != nil {
		return err
	}

	popts, err := parseOptions()
	if err != nil {
		return err
	}
	f, err := cif.ParseWithOptions(text, popts)
	if err != nil {
		return err
	}

	wopts := cif.WriteOptions{
		Grammar:       f.Grammar(),
		WrapLength:    fmtWrap,
		MaxLineLength: fmtMaxLine,
		Comment:       fmtComment,
	}
	if fmtTo != "" {
		g, err := cif.ParseGrammarName(fmtTo)
		if err != nil {
			return err
		}
		wopts.Grammar = g
	}
	if fmtTemplate != "" {
		ttext, err := cifio.ReadFile(fmtTemplate, ioOptions())
		if err != nil {
			return err
		}
		tmpl, err := cif.ParseTemplate(ttext)
		if err != nil {
			return err
		}
		wopts.Template = tmpl
	}

	out, err := cif.WriteString(f, wopts)
	if err != nil {
		return err
	}
	if fmtOutput != "" {
		return os.WriteFile(fmtOutput, []byte(out), 0o644)
	}
	fmt.Print(out)
	return nil
}
