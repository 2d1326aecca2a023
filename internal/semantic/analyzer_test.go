package semantic

import (
	"testing"

	"github.com/cwbudde/go-l/internal/ast"
	"github.com/cwbudde/go-l/internal/lexer"
	"github.com/cwbudde/go-l/internal/parser"
)

func mustParse(t *testing.T, src string) ast.Expr {
	t.Helper()
	p := parser.New(lexer.New(src))
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) != 0 {
		t.Fatalf("parser errors for %q: %v", src, errs)
	}
	return program
}

func analyze(t *testing.T, src string) error {
	t.Helper()
	return New().Analyze(mustParse(t, src))
}

func TestAnalyzeLiteralTypes(t *testing.T) {
	program := mustParse(t, `3; 3.5; true; "s"; 'c'; null`)
	if err := New().Analyze(program); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	block := program.(*ast.Block)
	want := []ast.Kind{ast.KindInt, ast.KindFloat, ast.KindBool, ast.KindString, ast.KindChar, ast.KindNull}
	for i, k := range want {
		if got := block.Exprs[i].InferredType().Kind; got != k {
			t.Errorf("exprs[%d]: expected kind %v, got %v", i, k, got)
		}
	}
}

func TestAnalyzeUnknownVariable(t *testing.T) {
	if err := analyze(t, `x`); err == nil {
		t.Fatal("expected an error for an unknown variable")
	}
}

func TestAnalyzePrefixNot(t *testing.T) {
	if err := analyze(t, `not true`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := analyze(t, `not 3`); err == nil {
		t.Fatal("expected an error for 'not' on a non-bool operand")
	}
}

func TestAnalyzePrefixMinusRequiresNumeric(t *testing.T) {
	if err := analyze(t, `-3`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := analyze(t, `-true`); err == nil {
		t.Fatal("expected an error for unary '-' on a bool")
	}
}

func TestAnalyzeIntDivisionYieldsFloat(t *testing.T) {
	program := mustParse(t, `1 / 2`)
	if err := New().Analyze(program); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	block := program.(*ast.Block)
	if got := block.Exprs[0].InferredType().Kind; got != ast.KindFloat {
		t.Fatalf("expected Float, got %v", got)
	}
}

func TestAnalyzeMixedArithmeticYieldsFloat(t *testing.T) {
	program := mustParse(t, `1 + 2.0`)
	if err := New().Analyze(program); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	block := program.(*ast.Block)
	if got := block.Exprs[0].InferredType().Kind; got != ast.KindFloat {
		t.Fatalf("expected Float, got %v", got)
	}
}

func TestAnalyzeArithmeticRejectsNonNumeric(t *testing.T) {
	if err := analyze(t, `true + 1`); err == nil {
		t.Fatal("expected an error for a non-numeric operand")
	}
}

func TestAnalyzeComparisonYieldsBool(t *testing.T) {
	program := mustParse(t, `1 < 2`)
	if err := New().Analyze(program); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	block := program.(*ast.Block)
	if got := block.Exprs[0].InferredType().Kind; got != ast.KindBool {
		t.Fatalf("expected Bool, got %v", got)
	}
}

func TestAnalyzeEqualityRequiresEqualTypes(t *testing.T) {
	if err := analyze(t, `1 == 2`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := analyze(t, `1 == true`); err == nil {
		t.Fatal("expected an error for comparing mismatched types")
	}
	if err := analyze(t, `1 != 2`); err != nil {
		t.Fatalf("unexpected error for '!=': %v", err)
	}
}

func TestAnalyzeAndOrRequireBoolOperands(t *testing.T) {
	if err := analyze(t, `true and false`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := analyze(t, `true or false`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := analyze(t, `1 and true`); err == nil {
		t.Fatal("expected an error for non-bool 'and' operand")
	}
}

func TestAnalyzeBlockTrailingSemicolonForcesNull(t *testing.T) {
	program := mustParse(t, `{ 3; }`)
	if err := New().Analyze(program); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	block := program.(*ast.Block).Exprs[0].(*ast.Block)
	if got := block.InferredType().Kind; got != ast.KindNull {
		t.Fatalf("expected trailing-semicolon block to type as Null, got %v", got)
	}
}

func TestAnalyzeBlockWithoutTrailingSemicolonTakesLastExprType(t *testing.T) {
	program := mustParse(t, `{ 1; 3 }`)
	if err := New().Analyze(program); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	block := program.(*ast.Block).Exprs[0].(*ast.Block)
	if got := block.InferredType().Kind; got != ast.KindInt {
		t.Fatalf("expected Int, got %v", got)
	}
}

func TestAnalyzeIfRequiresBoolCondition(t *testing.T) {
	if err := analyze(t, `if 1 { 1 } else { 2 }`); err == nil {
		t.Fatal("expected an error for a non-bool if condition")
	}
}

func TestAnalyzeIfWithoutElseIsRejected(t *testing.T) {
	if err := analyze(t, `if true { 1 }`); err == nil {
		t.Fatal("expected an error for if without else")
	}
}

func TestAnalyzeIfBranchesMustHaveEqualTypes(t *testing.T) {
	if err := analyze(t, `if true { 1 } else { "x" }`); err == nil {
		t.Fatal("expected an error for mismatched if/else branch types")
	}
	if err := analyze(t, `if true { 1 } else { 2 }`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAnalyzeVariableDefinitionAndUse(t *testing.T) {
	if err := analyze(t, `val a = 3; a + 1`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAnalyzeVariableDefinitionDeclaredTypeMismatch(t *testing.T) {
	if err := analyze(t, `val a: int = "x"`); err == nil {
		t.Fatal("expected an error for declared-type mismatch")
	}
}

func TestAnalyzeVariableRedefinitionIsRejected(t *testing.T) {
	if err := analyze(t, `val a = 1; val a = 2`); err == nil {
		t.Fatal("expected an error for redefining a variable")
	}
}

func TestAnalyzeAssignmentToValIsRejected(t *testing.T) {
	if err := analyze(t, `val a = 1; a = 2`); err == nil {
		t.Fatal("expected an error assigning to a val binding")
	}
}

func TestAnalyzeAssignmentTypeMismatch(t *testing.T) {
	if err := analyze(t, `var a = 1; a = true`); err == nil {
		t.Fatal("expected an error for assignment type mismatch")
	}
}

func TestAnalyzeAssignmentThroughAccessors(t *testing.T) {
	src := `struct Point { x int y int }
	var p = Point { x: 1, y: 2 };
	p.x = 5`
	if err := analyze(t, src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAnalyzeAssignmentThroughAccessorsUnknownField(t *testing.T) {
	src := `struct Point { x int y int }
	var p = Point { x: 1, y: 2 };
	p.z = 5`
	if err := analyze(t, src); err == nil {
		t.Fatal("expected an error assigning to an unknown field")
	}
}

func TestAnalyzeFunctionDefinitionAndCall(t *testing.T) {
	src := `fun add(a int, b int) int { a + b }
	add(1, 2)`
	if err := analyze(t, src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAnalyzeFunctionDefinitionBodyTypeMismatch(t *testing.T) {
	if err := analyze(t, `fun f() int { "x" }`); err == nil {
		t.Fatal("expected an error for body/return type mismatch")
	}
}

func TestAnalyzeSelfRecursiveFunction(t *testing.T) {
	src := `fun fact(n int) int { if n <= 1 { 1 } else { n * fact(n - 1) } }`
	if err := analyze(t, src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAnalyzeFunctionCallArityMismatch(t *testing.T) {
	src := `fun add(a int, b int) int { a + b }
	add(1)`
	if err := analyze(t, src); err == nil {
		t.Fatal("expected an error for call arity mismatch")
	}
}

func TestAnalyzeFunctionCallArgumentTypeMismatch(t *testing.T) {
	src := `fun add(a int, b int) int { a + b }
	add(1, true)`
	if err := analyze(t, src); err == nil {
		t.Fatal("expected an error for call argument type mismatch")
	}
}

func TestAnalyzeReceiverMethodCall(t *testing.T) {
	src := `fun (n int):double() int { n * 2 }
	val a = 3;
	a:double()`
	if err := analyze(t, src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAnalyzeReceiverMethodCallUnknownMethod(t *testing.T) {
	src := `val a = 3;
	a:double()`
	if err := analyze(t, src); err == nil {
		t.Fatal("expected an error for an unknown receiver method")
	}
}

func TestAnalyzeStructDefinitionDuplicateIsRejected(t *testing.T) {
	src := `struct Point { x int y int }
	struct Point { x int y int }`
	if err := analyze(t, src); err == nil {
		t.Fatal("expected an error for a duplicate struct definition")
	}
}

func TestAnalyzeNamedMakeStructFieldMismatch(t *testing.T) {
	src := `struct Point { x int y int }
	Point { x: 1 }`
	if err := analyze(t, src); err == nil {
		t.Fatal("expected an error for a missing field in a named struct literal")
	}
}

func TestAnalyzeNamedMakeStructFieldTypeMismatch(t *testing.T) {
	src := `struct Point { x int y int }
	Point { x: 1, y: true }`
	if err := analyze(t, src); err == nil {
		t.Fatal("expected an error for a field type mismatch in a named struct literal")
	}
}

func TestAnalyzeUnnamedMakeStructIsStructural(t *testing.T) {
	program := mustParse(t, `mkstruct { x: 1, y: 2 }`)
	if err := New().Analyze(program); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	block := program.(*ast.Block)
	if got := block.Exprs[0].InferredType().Kind; got != ast.KindStruct {
		t.Fatalf("expected Struct kind, got %v", got)
	}
}

func TestAnalyzeMakeStructDuplicateField(t *testing.T) {
	if err := analyze(t, `mkstruct { x: 1, x: 2 }`); err == nil {
		t.Fatal("expected an error for a duplicate field in a struct literal")
	}
}

func TestAnalyzeFieldAccessOnNonStruct(t *testing.T) {
	if err := analyze(t, `val a = 3; a.x`); err == nil {
		t.Fatal("expected an error accessing a field on a non-struct")
	}
}

func TestAnalyzeFieldAccessUnknownField(t *testing.T) {
	src := `struct Point { x int y int }
	val p = Point { x: 1, y: 2 };
	p.z`
	if err := analyze(t, src); err == nil {
		t.Fatal("expected an error accessing an unknown field")
	}
}

func TestAnalyzeUserDefinedAndStructTypesAreEquivalent(t *testing.T) {
	src := `struct Point { x int y int }
	val p = Point { x: 1, y: 2 };
	val q: struct { x int y int } = p`
	if err := analyze(t, src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
