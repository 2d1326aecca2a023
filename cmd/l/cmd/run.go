package cmd

import (
	"fmt"
	"os"

	"github.com/cwbudde/go-l/internal/bytecode"
	"github.com/cwbudde/go-l/internal/errors"
	"github.com/cwbudde/go-l/internal/lexer"
	"github.com/cwbudde/go-l/internal/parser"
	"github.com/cwbudde/go-l/internal/result"
	"github.com/cwbudde/go-l/internal/semantic"
	"github.com/spf13/cobra"
)

var (
	runEvalExpr      string
	runSkipTypeCheck bool
	runTrace         bool
	runJSON          bool
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run an L program end to end and print its result",
	Long: `Execute an L program from a file or inline expression.

Examples:
  # Run a script file
  l run script.l

  # Evaluate an inline expression
  l run -e "1 + 2"

  # Run with execution trace
  l run --trace script.l

  # Print the result as JSON
  l run --json script.l`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProgram,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runEvalExpr, "eval", "e", "", "run inline source instead of reading a file")
	runCmd.Flags().BoolVar(&runSkipTypeCheck, "skip-type-check", false, "skip the analyzer before running")
	runCmd.Flags().BoolVar(&runTrace, "trace", false, "log every VM opcode executed to stderr")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the result as JSON instead of pretty text")
}

func runProgram(cmd *cobra.Command, args []string) error {
	input, filename, err := readSource(runEvalExpr, args)
	if err != nil {
		return err
	}

	skipTypeCheck := !cfg.TypeCheck
	if cmd.Flags().Changed("skip-type-check") {
		skipTypeCheck = runSkipTypeCheck
	}
	trace := cfg.Trace
	if cmd.Flags().Changed("trace") {
		trace = runTrace
	}
	asJSON := cfg.OutputFormat == "json"
	if cmd.Flags().Changed("json") {
		asJSON = runJSON
	}

	p := parser.New(lexer.New(input))
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		diags := make([]errors.Diagnostic, len(errs))
		for i, e := range errs {
			diags[i] = errors.FromParser(e)
		}
		fmt.Fprint(os.Stderr, errors.Format(diags, input, true))
		return fmt.Errorf("parsing %s failed with %d error(s)", filename, len(errs))
	}

	if !skipTypeCheck {
		if err := semantic.New().Analyze(program); err != nil {
			diag := errors.FromAnalyzer(err.(*semantic.AnalyzerError))
			fmt.Fprint(os.Stderr, errors.Format([]errors.Diagnostic{diag}, input, true))
			return fmt.Errorf("analyzing %s failed", filename)
		}
	}

	chunk := bytecode.Compile(program)

	vm := bytecode.NewVM()
	if trace {
		vm.SetTrace(os.Stderr)
	}

	value, err := vm.Run(chunk)
	if err != nil {
		diag := errors.FromRuntime(err)
		fmt.Fprint(os.Stderr, errors.Format([]errors.Diagnostic{diag}, input, true))
		return fmt.Errorf("running %s failed", filename)
	}

	res := result.FromValue(chunk, vm.Heap(), value)
	if asJSON {
		doc, err := res.JSON()
		if err != nil {
			return fmt.Errorf("encoding result as JSON: %w", err)
		}
		fmt.Println(doc)
		return nil
	}

	fmt.Println(res.String())
	return nil
}
