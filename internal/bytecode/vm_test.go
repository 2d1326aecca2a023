package bytecode

import "testing"

func TestVMArithmetic(t *testing.T) {
	tests := []struct {
		src  string
		want Value
	}{
		{"1 + 2", IntValue(3)},
		{"5 - 2", IntValue(3)},
		{"3 * 4", IntValue(12)},
		{"1 / 2", FloatValue(0.5)},
		{"4 / 2", FloatValue(2)},
		{"1 + 2.5", FloatValue(3.5)},
		{"-3", IntValue(-3)},
		{"-3.5", FloatValue(-3.5)},
	}
	for _, tt := range tests {
		got := runSource(t, tt.src)
		if !got.Equal(tt.want) {
			t.Errorf("%q: expected %s, got %s", tt.src, tt.want, got)
		}
	}
}

func TestVMComparisons(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"1 < 2", true},
		{"2 <= 2", true},
		{"3 > 2", true},
		{"2 >= 3", false},
		{"1 == 1", true},
		{"1 != 2", true},
		{"true and false", false},
		{"true or false", true},
		{"not true", false},
	}
	for _, tt := range tests {
		got := runSource(t, tt.src)
		if got.Type != ValueBool || got.AsBool() != tt.want {
			t.Errorf("%q: expected %t, got %s", tt.src, tt.want, got)
		}
	}
}

func TestVMDivisionByZero(t *testing.T) {
	chunk := compileSource(t, `1 / 0`)
	_, err := NewVM().Run(chunk)
	if err == nil {
		t.Fatal("expected a runtime error for division by zero")
	}
}

func TestVMIfElse(t *testing.T) {
	got := runSource(t, `if 1 < 2 { "yes" } else { "no" }`)
	if got.Type != ValueObjectRef {
		t.Fatalf("expected an ObjectRef for the string result, got %s", got.Type)
	}
	vm := NewVM()
	chunk := compileSource(t, `if 1 < 2 { "yes" } else { "no" }`)
	result, err := vm.Run(chunk)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	obj := vm.Heap().Get(result.AsObjectRef())
	if obj.Text != "yes" {
		t.Fatalf("expected 'yes', got %q", obj.Text)
	}
}

func TestVMVariableDefinitionAndReassignment(t *testing.T) {
	got := runSource(t, `var a = 1; a = a + 1; a`)
	if !got.Equal(IntValue(2)) {
		t.Fatalf("expected 2, got %s", got)
	}
}

func TestVMFunctionCall(t *testing.T) {
	got := runSource(t, `fun add(a int, b int) int { a + b }
add(3, 4)`)
	if !got.Equal(IntValue(7)) {
		t.Fatalf("expected 7, got %s", got)
	}
}

func TestVMFunctionCallArgumentOrderIsPreserved(t *testing.T) {
	// Subtraction is non-commutative, so argument-order bugs in the
	// calling convention show up directly in the result.
	got := runSource(t, `fun sub(a int, b int) int { a - b }
sub(10, 3)`)
	if !got.Equal(IntValue(7)) {
		t.Fatalf("expected 7, got %s", got)
	}
}

func TestVMSelfRecursiveFunction(t *testing.T) {
	got := runSource(t, `fun fact(n int) int { if n <= 1 { 1 } else { n * fact(n - 1) } }
fact(5)`)
	if !got.Equal(IntValue(120)) {
		t.Fatalf("expected 120, got %s", got)
	}
}

func TestVMValReceiverMethodCall(t *testing.T) {
	got := runSource(t, `fun (n int):double() int { n * 2 }
val a = 3;
a:double()`)
	if !got.Equal(IntValue(6)) {
		t.Fatalf("expected 6, got %s", got)
	}
}

func TestVMVarReceiverMutatesCallerBinding(t *testing.T) {
	// Mirrors the spec's var-receiver writeback scenario: inc() mutates
	// the bound variable through a boxed heap cell, and abs() observes
	// the mutation on a subsequent call.
	got := runSource(t, `fun (n int):abs() int { if n < 0 { -n } else { n } }
fun (var n int):inc() null { n = n + 1; }
val n = -3; n:inc(); n:abs()`)
	if !got.Equal(IntValue(2)) {
		t.Fatalf("expected 2, got %s", got)
	}
}

func TestVMStructFieldAccessAndAssignment(t *testing.T) {
	got := runSource(t, `struct Point { x int y int }
var p = Point { x: 1, y: 2 };
p.x = 10;
p.x`)
	if !got.Equal(IntValue(10)) {
		t.Fatalf("expected 10, got %s", got)
	}
}

func TestVMStructRoundTrip(t *testing.T) {
	got := runSource(t, `struct Point { x int y int }
Point { x: 1, y: 2 }`)
	if got.Type != ValueStruct {
		t.Fatalf("expected a Struct value, got %s", got.Type)
	}
	fields := got.AsStruct()
	if !fields["x"].Equal(IntValue(1)) || !fields["y"].Equal(IntValue(2)) {
		t.Fatalf("unexpected struct fields: %v", fields)
	}
}

func TestVMHeapAwareStringEquality(t *testing.T) {
	got := runSource(t, `"abc" == "abc"`)
	if !got.Equal(BoolValue(true)) {
		t.Fatalf("expected two equal string literals to compare equal, got %s", got)
	}
}
