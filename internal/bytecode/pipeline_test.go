package bytecode

import (
	"testing"

	"github.com/cwbudde/go-l/internal/lexer"
	"github.com/cwbudde/go-l/internal/parser"
	"github.com/cwbudde/go-l/internal/semantic"
)

// compileSource runs src through the lexer, parser, and analyzer before
// handing the type-checked tree to Compile, mirroring how cmd/l's run
// and disasm commands build a Chunk.
func compileSource(t *testing.T, src string) *Chunk {
	t.Helper()
	p := parser.New(lexer.New(src))
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) != 0 {
		t.Fatalf("parser errors for %q: %v", src, errs)
	}
	if err := semantic.New().Analyze(program); err != nil {
		t.Fatalf("analyzer error for %q: %v", src, err)
	}
	return Compile(program)
}

// runSource compiles and executes src, failing the test on any VM error.
func runSource(t *testing.T, src string) Value {
	t.Helper()
	chunk := compileSource(t, src)
	vm := NewVM()
	result, err := vm.Run(chunk)
	if err != nil {
		t.Fatalf("vm error for %q: %v", src, err)
	}
	return result
}
