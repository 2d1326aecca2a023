package bytecode

import "github.com/cwbudde/go-l/internal/ast"

// Compiler lowers a type-checked ast.Expr tree into a Chunk (spec §4.2,
// component C4). It trusts the Analyzer completely: anything it can't
// make sense of is an invariant violation, not a user error (spec §7
// "Compile: reserved for invariant violations — treated as bugs").
//
// chunk is the compiler's current emission target; root is the
// top-level chunk that owns the single flat Functions table every
// Function(idx) value indexes into. A nested function chunk never gets
// its own Functions slice, so a self-recursive call — which runs with
// its own chunk as the executing chunk — must still resolve fi against
// the same table the call site resolved it from.
type Compiler struct {
	chunk *Chunk
	root  *Chunk
}

// Compile lowers program (conventionally the top-level Block) into a
// fresh Chunk terminated by Halt.
func Compile(program ast.Expr) *Chunk {
	root := NewChunk()
	c := &Compiler{chunk: root, root: root}
	c.compileSequenceBody(program)
	c.chunk.Emit(Instruction{Op: OpHalt, Line: program.Line()})
	return c.chunk
}

// compileSequenceBody compiles a program or function body: a Block's
// statements go through compileStatements, exactly as a nested Block's do,
// and any other expression is compiled directly. The single value left on
// the stack is what Halt then takes as the result.
func (c *Compiler) compileSequenceBody(program ast.Expr) {
	if b, ok := program.(*ast.Block); ok {
		c.compileStatements(b.Exprs, b.TrailingSemicolon)
		return
	}
	c.compileExpr(program)
}

// compileStatements compiles a statement list, discarding the value of
// every statement but the last (Pop), and forcing a trailing Null when
// trailingSemicolon is set (design note "semicolon policy"). Variable
// definitions and assignments (whose Store consumes the value) and struct
// definitions (which emit nothing) leave no value, so they get no Pop, and
// one of them in last position is followed by a Null push instead.
func (c *Compiler) compileStatements(exprs []ast.Expr, trailingSemicolon bool) {
	if len(exprs) == 0 {
		c.chunk.Emit(Instruction{Op: OpPush, Value: NullValue()})
		return
	}
	for i, e := range exprs {
		c.compileExpr(e)
		last := i == len(exprs)-1
		switch e.(type) {
		case *ast.VariableDefinition, *ast.VariableAssignment, *ast.StructDefinition:
			if last && !trailingSemicolon {
				c.chunk.Emit(Instruction{Op: OpPush, Value: NullValue(), Line: e.Line()})
			}
			continue
		}
		if !last || trailingSemicolon {
			c.chunk.Emit(Instruction{Op: OpPop, Line: e.Line()})
		}
	}
	if trailingSemicolon {
		c.chunk.Emit(Instruction{Op: OpPush, Value: NullValue()})
	}
}

func (c *Compiler) compileExpr(e ast.Expr) {
	switch n := e.(type) {
	case *ast.NullLiteral:
		c.chunk.Emit(Instruction{Op: OpPush, Value: NullValue(), Line: n.Line()})
	case *ast.StringLiteral:
		c.chunk.Emit(Instruction{Op: OpPushObject, Object: StringObject(n.Value), Line: n.Line()})
	case *ast.CharLiteral:
		c.chunk.Emit(Instruction{Op: OpPush, Value: CharValue(n.Value), Line: n.Line()})
	case *ast.IntLiteral:
		c.chunk.Emit(Instruction{Op: OpPush, Value: IntValue(n.Value), Line: n.Line()})
	case *ast.FloatLiteral:
		c.chunk.Emit(Instruction{Op: OpPush, Value: FloatValue(n.Value), Line: n.Line()})
	case *ast.BoolLiteral:
		c.chunk.Emit(Instruction{Op: OpPush, Value: BoolValue(n.Value), Line: n.Line()})

	case *ast.Identifier:
		c.compileIdentifier(n)

	case *ast.Prefix:
		c.compileExpr(n.Operand)
		c.chunk.Emit(Instruction{Op: OpNegate, Line: n.Line()})

	case *ast.Infix:
		c.compileInfix(n)

	case *ast.Block:
		// Scoping is lexical only; no opcode marks block entry/exit.
		c.compileStatements(n.Exprs, n.TrailingSemicolon)

	case *ast.IfCondition:
		c.compileIf(n)

	case *ast.VariableDefinition:
		c.compileExpr(n.Value)
		c.chunk.Emit(Instruction{Op: OpStore, Name: n.Name, Line: n.Line()})

	case *ast.VariableAssignment:
		c.compileExpr(n.Value)
		c.chunk.Emit(Instruction{Op: OpStore, Name: n.Name, Accessors: toAccessors(n.Accessors), Line: n.Line()})

	case *ast.FunctionDefinition:
		idx := c.compileFunctionDefinition(n)
		c.chunk.Emit(Instruction{Op: OpPush, Value: FunctionValue(idx), Line: n.Line()})

	case *ast.StructDefinition:
		// type declaration only; nothing to emit (spec §4.2).

	case *ast.MakeStruct:
		c.compileMakeStruct(n)

	case *ast.FunctionCall:
		for _, arg := range n.Args {
			c.compileExpr(arg)
		}
		c.compileCallee(n.Callee)
		c.chunk.Emit(Instruction{Op: OpCall, Line: n.Line()})

	case *ast.ValueFunctionCall:
		c.compileExpr(n.PreArgument)
		for _, arg := range n.Args {
			c.compileExpr(arg)
		}
		receiverType := ""
		if n.PreArgumentType != nil {
			receiverType = n.PreArgumentType.String()
		}
		idx := c.chunk.ValueFunctionIndex[ValueFunctionKey(n.Method, receiverType)]
		c.chunk.Emit(Instruction{Op: OpPush, Value: FunctionValue(idx), Line: n.Line()})
		c.chunk.Emit(Instruction{Op: OpCall, Line: n.Line()})

	case *ast.FieldAccess:
		c.compileExpr(n.Expr)
		c.chunk.Emit(Instruction{Op: OpAccessField, Name: n.Field, Line: n.Line()})

	case *ast.TypeLiteral:
		panic("bytecode: unreachable Type node reached the compiler")

	default:
		panic("bytecode: unhandled expression node in compiler")
	}
}

// compileIdentifier pushes Function(idx) when name resolves to a
// receiver-less function registered in the current chunk's table, and
// Loads it as a local binding otherwise. Because the Analyzer enforces
// that a name is either a variable or a function, never both (spec
// invariant 3), this lookup alone disambiguates correctly without
// needing a separately threaded "isFunction" context.
func (c *Compiler) compileIdentifier(n *ast.Identifier) {
	if idx, ok := c.chunk.FunctionIndexByName[n.Name]; ok {
		c.chunk.Emit(Instruction{Op: OpPush, Value: FunctionValue(idx), Line: n.Line()})
		return
	}
	c.chunk.Emit(Instruction{Op: OpLoad, Name: n.Name, Line: n.Line()})
}

// compileCallee compiles an expression in "function-expecting" position.
// It is compileExpr unchanged: compileIdentifier already pushes
// Function(idx) for a bare function-table name, so the call site needs no
// separate handling and this wrapper only names it.
func (c *Compiler) compileCallee(callee ast.Expr) {
	c.compileExpr(callee)
}

func (c *Compiler) compileInfix(n *ast.Infix) {
	switch n.Operator {
	case "+":
		c.compileExpr(n.Left)
		c.compileExpr(n.Right)
		c.chunk.Emit(Instruction{Op: OpAdd, Line: n.Line()})
	case "-":
		c.compileExpr(n.Left)
		c.compileExpr(n.Right)
		c.chunk.Emit(Instruction{Op: OpSubstract, Line: n.Line()})
	case "*":
		c.compileExpr(n.Left)
		c.compileExpr(n.Right)
		c.chunk.Emit(Instruction{Op: OpMultiply, Line: n.Line()})
	case "/":
		c.compileExpr(n.Left)
		c.compileExpr(n.Right)
		c.chunk.Emit(Instruction{Op: OpDivide, Line: n.Line()})
	case "<":
		c.compileExpr(n.Left)
		c.compileExpr(n.Right)
		c.chunk.Emit(Instruction{Op: OpLessThan, Line: n.Line()})
	case "<=":
		c.compileExpr(n.Left)
		c.compileExpr(n.Right)
		c.chunk.Emit(Instruction{Op: OpLessThanOrEqual, Line: n.Line()})
	case ">":
		c.compileExpr(n.Left)
		c.compileExpr(n.Right)
		c.chunk.Emit(Instruction{Op: OpGreaterThan, Line: n.Line()})
	case ">=":
		c.compileExpr(n.Left)
		c.compileExpr(n.Right)
		c.chunk.Emit(Instruction{Op: OpGreaterThanOrEqual, Line: n.Line()})
	case "==":
		c.compileExpr(n.Left)
		c.compileExpr(n.Right)
		c.chunk.Emit(Instruction{Op: OpEqual, Line: n.Line()})
	case "!=":
		// Desugars to Equal + Negate rather than adding a dedicated
		// opcode, since the spec's opcode set has no NotEqual and
		// Negate already supports boolean operands.
		c.compileExpr(n.Left)
		c.compileExpr(n.Right)
		c.chunk.Emit(Instruction{Op: OpEqual, Line: n.Line()})
		c.chunk.Emit(Instruction{Op: OpNegate, Line: n.Line()})
	case "and":
		c.compileShortCircuit(n, false)
	case "or":
		c.compileShortCircuit(n, true)
	default:
		panic("bytecode: unreachable infix operator " + n.Operator)
	}
}

// compileShortCircuit lowers `and`/`or` onto the same Jump/JumpIfFalse
// primitives IfCondition uses, since the opcode set has no dedicated
// logical instructions: `a and b` ≡ `if a { b } else { false }`,
// `a or b` ≡ `if a { true } else { b }`.
func (c *Compiler) compileShortCircuit(n *ast.Infix, isOr bool) {
	c.compileExpr(n.Left)
	jumpIfFalse := c.chunk.Emit(Instruction{Op: OpJumpIfFalse, Line: n.Line()})

	if isOr {
		c.chunk.Emit(Instruction{Op: OpPush, Value: BoolValue(true), Line: n.Line()})
	} else {
		c.compileExpr(n.Right)
	}
	jumpEnd := c.chunk.Emit(Instruction{Op: OpJump, Line: n.Line()})

	c.chunk.PatchAddr(jumpIfFalse, len(c.chunk.Code))
	if isOr {
		c.compileExpr(n.Right)
	} else {
		c.chunk.Emit(Instruction{Op: OpPush, Value: BoolValue(false), Line: n.Line()})
	}

	c.chunk.PatchAddr(jumpEnd, len(c.chunk.Code))
}

func (c *Compiler) compileIf(n *ast.IfCondition) {
	c.compileExpr(n.Cond)
	jumpIfFalse := c.chunk.Emit(Instruction{Op: OpJumpIfFalse, Line: n.Line()})

	c.compileExpr(n.Then)
	jumpEnd := c.chunk.Emit(Instruction{Op: OpJump, Line: n.Line()})

	c.chunk.PatchAddr(jumpIfFalse, len(c.chunk.Code))
	c.compileExpr(n.Else)

	c.chunk.PatchAddr(jumpEnd, len(c.chunk.Code))
}

func (c *Compiler) compileMakeStruct(n *ast.MakeStruct) {
	for _, f := range n.Fields {
		c.chunk.Emit(Instruction{Op: OpPush, Value: StructFieldNameValue(f.Name), Line: n.Line()})
		c.compileExpr(f.Value)
	}
	c.chunk.Emit(Instruction{Op: OpMakeStruct, Count: len(n.Fields), Line: n.Line()})
}

// compileFunctionDefinition compiles n into its own Chunk and adds it to
// the shared root chunk's Functions table. A named function is also
// entered in the enclosing chunk's name tables and in its own chunk's
// name tables, so the function can call itself; an anonymous function is
// reachable only through the Function(idx) value. It returns the
// function's index in the root Functions table.
func (c *Compiler) compileFunctionDefinition(n *ast.FunctionDefinition) int {
	fnChunk := NewChunk()
	for name, idx := range c.chunk.FunctionIndexByName {
		fnChunk.FunctionIndexByName[name] = idx
	}
	for key, idx := range c.chunk.ValueFunctionIndex {
		fnChunk.ValueFunctionIndex[key] = idx
	}

	function := &Function{Chunk: fnChunk, Name: nameOrEmpty(n.Name)}

	if n.PreParameter != nil {
		function.PreParameter = &FunctionParam{Name: n.PreParameter.Name, Constant: n.PreParameter.Constant}
	}
	for _, p := range n.Params {
		function.Params = append(function.Params, FunctionParam{Name: p.Name, Constant: p.Constant})
	}

	idx := c.root.AddFunction(function)

	if n.Name != nil {
		if n.PreParameter != nil {
			key := ValueFunctionKey(*n.Name, n.PreParameter.Type.String())
			c.chunk.ValueFunctionIndex[key] = idx
			fnChunk.ValueFunctionIndex[key] = idx
		} else {
			c.chunk.FunctionIndexByName[*n.Name] = idx
			fnChunk.FunctionIndexByName[*n.Name] = idx
		}
	}

	// Store parameters in declared order. The call site pushes arguments
	// left to right (so the last-declared argument ends up on top of the
	// caller's stack); Call (spec §4.3) walks the declared parameter list
	// in *reverse* as it pops those arguments off, which is what
	// reassembles them onto the callee's initial stack in declared order
	// again — so the first Store here (declared parameter 0) correctly
	// consumes the first entry of that reassembled stack.
	if function.PreParameter != nil {
		fnChunk.Emit(Instruction{Op: OpStore, Name: function.PreParameter.Name, Line: n.Line()})
	}
	for i := 0; i < len(function.Params); i++ {
		fnChunk.Emit(Instruction{Op: OpStore, Name: function.Params[i].Name, Line: n.Line()})
	}

	fc := &Compiler{chunk: fnChunk, root: c.root}
	fc.compileSequenceBody(n.Body)
	fnChunk.Emit(Instruction{Op: OpHalt, Line: n.Line()})

	return idx
}

func nameOrEmpty(name *string) string {
	if name == nil {
		return ""
	}
	return *name
}

func toAccessors(accessors []ast.StructFieldAccessor) []Accessor {
	out := make([]Accessor, len(accessors))
	for i, a := range accessors {
		out[i] = Accessor{FieldName: a.FieldName}
	}
	return out
}
