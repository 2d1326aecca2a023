// Package pipeline wires the Lexer, Parser, Analyzer, Compiler, and VM
// into the single end-to-end run the driver (cmd/l) and the golden
// end-to-end tests both need: source text in, a disassembly and an
// ExecutionResult out.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/cwbudde/go-l/internal/bytecode"
	"github.com/cwbudde/go-l/internal/lexer"
	"github.com/cwbudde/go-l/internal/parser"
	"github.com/cwbudde/go-l/internal/result"
	"github.com/cwbudde/go-l/internal/semantic"
)

// Output bundles everything a single end-to-end run produces: the
// disassembly of the compiled chunk and the final resolved result. A
// regression in either lowering or execution shows up in a diff of the
// combined text.
type Output struct {
	Disassembly string
	Result      result.ExecutionResult
}

// String renders o as the single document a golden test snapshots.
func (o Output) String() string {
	var sb strings.Builder
	sb.WriteString("--- disassembly ---\n")
	sb.WriteString(o.Disassembly)
	sb.WriteString("--- result ---\n")
	sb.WriteString(o.Result.String())
	sb.WriteString("\n")
	return sb.String()
}

// Run lexes, parses, type-checks, compiles, and executes source, skipping
// type-checking when skipTypeCheck is true (mirroring cmd/l run
// --skip-type-check).
func Run(source string, skipTypeCheck bool) (Output, error) {
	l := lexer.New(source)
	p := parser.New(l)
	program := p.ParseProgram()

	if errs := l.Errors(); len(errs) != 0 {
		return Output{}, fmt.Errorf("lex error: %s", errs[0].Message)
	}
	if errs := p.Errors(); len(errs) != 0 {
		return Output{}, fmt.Errorf("parse error: %s", errs[0].Message)
	}

	if !skipTypeCheck {
		if err := semantic.New().Analyze(program); err != nil {
			return Output{}, fmt.Errorf("analyze error: %w", err)
		}
	}

	chunk := bytecode.Compile(program)
	disasm := bytecode.DisassembleToString(chunk)

	vm := bytecode.NewVM()
	value, err := vm.Run(chunk)
	if err != nil {
		return Output{}, fmt.Errorf("runtime error: %w", err)
	}

	return Output{
		Disassembly: disasm,
		Result:      result.FromValue(chunk, vm.Heap(), value),
	}, nil
}
