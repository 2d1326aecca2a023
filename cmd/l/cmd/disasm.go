package cmd

import (
	"fmt"
	"os"

	"github.com/cwbudde/go-l/internal/bytecode"
	"github.com/cwbudde/go-l/internal/errors"
	"github.com/cwbudde/go-l/internal/lexer"
	"github.com/cwbudde/go-l/internal/parser"
	"github.com/cwbudde/go-l/internal/semantic"
	"github.com/spf13/cobra"
)

var (
	disasmEvalExpr      string
	disasmSkipTypeCheck bool
)

var disasmCmd = &cobra.Command{
	Use:   "disasm [file]",
	Short: "Compile an L program and print its disassembled bytecode",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDisasm,
}

func init() {
	rootCmd.AddCommand(disasmCmd)
	disasmCmd.Flags().StringVarP(&disasmEvalExpr, "eval", "e", "", "disassemble inline source instead of reading a file")
	disasmCmd.Flags().BoolVar(&disasmSkipTypeCheck, "skip-type-check", false, "skip the analyzer before compiling")
}

func runDisasm(cmd *cobra.Command, args []string) error {
	input, _, err := readSource(disasmEvalExpr, args)
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

	if !disasmSkipTypeCheck {
		if err := semantic.New().Analyze(program); err != nil {
			diag := errors.FromAnalyzer(err.(*semantic.AnalyzerError))
			fmt.Fprint(os.Stderr, errors.Format([]errors.Diagnostic{diag}, input, true))
			return fmt.Errorf("analysis failed")
		}
	}

	chunk := bytecode.Compile(program)
	fmt.Print(bytecode.DisassembleToString(chunk))
	return nil
}
