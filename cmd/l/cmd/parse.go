package cmd

import (
	"fmt"
	"os"

	"github.com/cwbudde/go-l/internal/ast"
	"github.com/cwbudde/go-l/internal/errors"
	"github.com/cwbudde/go-l/internal/lexer"
	"github.com/cwbudde/go-l/internal/parser"
	"github.com/spf13/cobra"
)

var parseEvalExpr string

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse an L source file or expression and dump its AST",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVarP(&parseEvalExpr, "eval", "e", "", "parse inline source instead of reading a file")
}

func runParse(cmd *cobra.Command, args []string) error {
	input, _, err := readSource(parseEvalExpr, args)
	if err != nil {
		return err
	}

	p := parser.New(lexer.New(input))
	program := p.ParseProgram()

	if errs := p.Errors(); len(errs) > 0 {
		diags := make([]errors.Diagnostic, len(errs))
		for i, e := range errs {
			diags[i] = errors.FromParser(e)
		}
		fmt.Fprint(os.Stderr, errors.Format(diags, input, true))
		return fmt.Errorf("parsing failed with %d error(s)", len(errs))
	}

	fmt.Print(ast.Print(program))
	return nil
}
