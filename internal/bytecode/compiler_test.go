package bytecode

import "testing"

func TestCompileLiteralsEmitPush(t *testing.T) {
	chunk := compileSource(t, `3`)
	if chunk.Code[0].Op != OpPush {
		t.Fatalf("expected first instruction to be Push, got %s", chunk.Code[0].Op)
	}
	if chunk.Code[len(chunk.Code)-1].Op != OpHalt {
		t.Fatalf("expected last instruction to be Halt, got %s", chunk.Code[len(chunk.Code)-1].Op)
	}
}

func TestCompileStringEmitsPushObject(t *testing.T) {
	chunk := compileSource(t, `"abc"`)
	if chunk.Code[0].Op != OpPushObject {
		t.Fatalf("expected PushObject, got %s", chunk.Code[0].Op)
	}
	if chunk.Code[0].Object.Text != "abc" {
		t.Fatalf("expected object text 'abc', got %q", chunk.Code[0].Object.Text)
	}
}

func TestCompileStatementsPopAllButLast(t *testing.T) {
	chunk := compileSource(t, `1; 2; 3`)
	popCount := 0
	for _, ins := range chunk.Code {
		if ins.Op == OpPop {
			popCount++
		}
	}
	if popCount != 2 {
		t.Fatalf("expected 2 Pop instructions, got %d", popCount)
	}
}

func TestCompileTrailingSemicolonForcesNullPush(t *testing.T) {
	chunk := compileSource(t, `{ 1; }`)
	last := chunk.Code[len(chunk.Code)-2] // before Halt
	if last.Op != OpPush || last.Value.Type != ValueNull {
		t.Fatalf("expected a trailing Null Push before Halt, got %s", last.Op)
	}
}

func TestCompileInfixEmitsOperandsThenOp(t *testing.T) {
	chunk := compileSource(t, `1 + 2`)
	var ops []OpCode
	for _, ins := range chunk.Code {
		ops = append(ops, ins.Op)
	}
	want := []OpCode{OpPush, OpPush, OpAdd, OpHalt}
	if len(ops) != len(want) {
		t.Fatalf("expected %v, got %v", want, ops)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, ops)
		}
	}
}

func TestCompileNotEqualDesugarsToEqualNegate(t *testing.T) {
	chunk := compileSource(t, `1 != 2`)
	foundEqual, foundNegate := false, false
	for _, ins := range chunk.Code {
		if ins.Op == OpEqual {
			foundEqual = true
		}
		if ins.Op == OpNegate {
			foundNegate = true
		}
	}
	if !foundEqual || !foundNegate {
		t.Fatalf("expected Equal followed by Negate in %v", chunk.Code)
	}
}

func TestCompileAndOrDesugarToJumps(t *testing.T) {
	chunk := compileSource(t, `true and false`)
	sawJumpIfFalse := false
	for _, ins := range chunk.Code {
		if ins.Op == OpJumpIfFalse {
			sawJumpIfFalse = true
		}
	}
	if !sawJumpIfFalse {
		t.Fatalf("expected a JumpIfFalse in desugared 'and', got %v", chunk.Code)
	}
}

func TestCompileIfEmitsJumpsThatPatchForward(t *testing.T) {
	chunk := compileSource(t, `if true { 1 } else { 2 }`)
	for i, ins := range chunk.Code {
		if ins.Op == OpJump || ins.Op == OpJumpIfFalse {
			if ins.Addr <= i {
				t.Fatalf("expected jump at %d to target a forward address, got %d", i, ins.Addr)
			}
		}
	}
}

func TestCompileNamedFunctionRegistersInRootFunctionsTable(t *testing.T) {
	chunk := compileSource(t, `fun double(n int) int { n * 2 }
double(3)`)
	if len(chunk.Functions) != 1 {
		t.Fatalf("expected 1 registered function, got %d", len(chunk.Functions))
	}
	if chunk.Functions[0].Name != "double" {
		t.Fatalf("expected function named 'double', got %q", chunk.Functions[0].Name)
	}
	if _, ok := chunk.FunctionIndexByName["double"]; !ok {
		t.Fatal("expected 'double' in FunctionIndexByName")
	}
}

func TestCompileReceiverFunctionRegistersUnderValueFunctionKey(t *testing.T) {
	chunk := compileSource(t, `fun (n int):double() int { n * 2 }
	val a = 3;
	a:double()`)
	if len(chunk.Functions) != 1 {
		t.Fatalf("expected 1 registered function, got %d", len(chunk.Functions))
	}
	key := ValueFunctionKey("double", "int")
	if _, ok := chunk.ValueFunctionIndex[key]; !ok {
		t.Fatalf("expected %q in ValueFunctionIndex, keys=%v", key, chunk.ValueFunctionIndex)
	}
}

func TestCompileSelfRecursiveFunctionSharesRootFunctionsTable(t *testing.T) {
	chunk := compileSource(t, `fun fact(n int) int { if n <= 1 { 1 } else { n * fact(n - 1) } }
fact(5)`)
	fn := chunk.Functions[0]
	if _, ok := fn.Chunk.FunctionIndexByName["fact"]; !ok {
		t.Fatal("expected the function's own chunk to know about 'fact' for self-recursion")
	}
	if fn.Chunk.FunctionIndexByName["fact"] != chunk.FunctionIndexByName["fact"] || len(fn.Chunk.Functions) != 0 {
		t.Fatalf("expected 'fact' to index the root Functions table and the nested chunk to have none of its own, got %d functions", len(fn.Chunk.Functions))
	}
}

func TestCompileMakeStructEmitsFieldMarkersThenCount(t *testing.T) {
	chunk := compileSource(t, `mkstruct { x: 1, y: 2 }`)
	var makeStruct *Instruction
	for i := range chunk.Code {
		if chunk.Code[i].Op == OpMakeStruct {
			makeStruct = &chunk.Code[i]
		}
	}
	if makeStruct == nil {
		t.Fatal("expected a MakeStruct instruction")
	}
	if makeStruct.Count != 2 {
		t.Fatalf("expected Count 2, got %d", makeStruct.Count)
	}
}
