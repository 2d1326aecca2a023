package semantic

import "github.com/cwbudde/go-l/internal/ast"

// Analyzer type-checks an ast.Expr tree in place (spec §4.1, component C3):
// every expression ends up annotated with its static type via
// ast.SetType, or the first ill-typed construct aborts the whole pass.
type Analyzer struct {
	root *Environment
}

// New creates an Analyzer with a fresh root environment.
func New() *Analyzer {
	return &Analyzer{root: NewEnvironment()}
}

// Analyze validates program (conventionally a top-level Block) and
// returns the first AnalyzerError encountered, if any.
func (a *Analyzer) Analyze(program ast.Expr) error {
	_, err := a.check(a.root, program)
	return err
}

// check dispatches to each expression shape's typing rule and annotates
// the node with the result on success.
func (a *Analyzer) check(env *Environment, e ast.Expr) (ast.Type, error) {
	var (
		t   ast.Type
		err error
	)

	switch n := e.(type) {
	case *ast.NullLiteral:
		t = ast.Null()
	case *ast.StringLiteral:
		t = ast.StringT()
	case *ast.CharLiteral:
		t = ast.CharT()
	case *ast.IntLiteral:
		t = ast.IntT()
	case *ast.FloatLiteral:
		t = ast.FloatT()
	case *ast.BoolLiteral:
		t = ast.BoolT()

	case *ast.Identifier:
		t, err = a.checkIdentifier(env, n)
	case *ast.Prefix:
		t, err = a.checkPrefix(env, n)
	case *ast.Infix:
		t, err = a.checkInfix(env, n)
	case *ast.Block:
		t, err = a.checkBlock(env, n)
	case *ast.IfCondition:
		t, err = a.checkIf(env, n)
	case *ast.VariableDefinition:
		t, err = a.checkVariableDefinition(env, n)
	case *ast.VariableAssignment:
		t, err = a.checkVariableAssignment(env, n)
	case *ast.FunctionDefinition:
		t, err = a.checkFunctionDefinition(env, n)
	case *ast.StructDefinition:
		t, err = a.checkStructDefinition(env, n)
	case *ast.MakeStruct:
		t, err = a.checkMakeStruct(env, n)
	case *ast.FunctionCall:
		t, err = a.checkFunctionCall(env, n)
	case *ast.ValueFunctionCall:
		t, err = a.checkValueFunctionCall(env, n)
	case *ast.FieldAccess:
		t, err = a.checkFieldAccess(env, n)
	case *ast.TypeLiteral:
		err = errf(n.Line(), "a type cannot appear in expression position")

	default:
		err = errf(e.Line(), "unhandled expression node %T", e)
	}

	if err != nil {
		return ast.Type{}, err
	}
	ast.SetType(e, t)
	return t, nil
}

func (a *Analyzer) checkIdentifier(env *Environment, n *ast.Identifier) (ast.Type, error) {
	if v, ok := env.GetVariable(n.Name); ok {
		return v.Type, nil
	}
	if f, ok := env.GetFunction(n.Name, nil); ok {
		return ast.FunctionT(f.ParamTypes, f.ReturnType), nil
	}
	return ast.Type{}, errf(n.Line(), "Unknown variable: %s", n.Name)
}

func (a *Analyzer) checkPrefix(env *Environment, n *ast.Prefix) (ast.Type, error) {
	operand, err := a.check(env, n.Operand)
	if err != nil {
		return ast.Type{}, err
	}
	switch n.Operator {
	case "-":
		if !operand.IsNumeric() {
			return ast.Type{}, errf(n.Line(), "unary '-' requires a numeric operand, got %s", operand)
		}
		return operand, nil
	case "not":
		// Supplements the literal spec rule (which names only '-') since
		// the token vocabulary (§6) includes `not` and the parser emits it
		// as a Prefix node; boolean negation is the only sensible reading.
		if operand.Kind != ast.KindBool {
			return ast.Type{}, errf(n.Line(), "'not' requires a bool operand, got %s", operand)
		}
		return operand, nil
	default:
		return ast.Type{}, errf(n.Line(), "unreachable: unknown prefix operator %q", n.Operator)
	}
}

func (a *Analyzer) checkInfix(env *Environment, n *ast.Infix) (ast.Type, error) {
	left, err := a.check(env, n.Left)
	if err != nil {
		return ast.Type{}, err
	}
	right, err := a.check(env, n.Right)
	if err != nil {
		return ast.Type{}, err
	}

	switch n.Operator {
	case "+", "-", "*":
		if !left.IsNumeric() || !right.IsNumeric() {
			return ast.Type{}, errf(n.Line(), "operator %q requires numeric operands, got %s and %s", n.Operator, left, right)
		}
		if left.Kind == ast.KindFloat || right.Kind == ast.KindFloat {
			return ast.FloatT(), nil
		}
		return ast.IntT(), nil

	case "/":
		if !left.IsNumeric() || !right.IsNumeric() {
			return ast.Type{}, errf(n.Line(), "operator '/' requires numeric operands, got %s and %s", left, right)
		}
		// Int/Int division always yields Float (no integer division).
		return ast.FloatT(), nil

	case "<", "<=", ">", ">=":
		if !left.IsNumeric() || !right.IsNumeric() {
			return ast.Type{}, errf(n.Line(), "operator %q requires numeric operands, got %s and %s", n.Operator, left, right)
		}
		return ast.BoolT(), nil

	case "==", "!=":
		if !ast.TypesEqual(env, left, right) {
			return ast.Type{}, errf(n.Line(), "operator %q requires operands of equal type, got %s and %s", n.Operator, left, right)
		}
		return ast.BoolT(), nil

	case "and", "or":
		if left.Kind != ast.KindBool || right.Kind != ast.KindBool {
			return ast.Type{}, errf(n.Line(), "operator %q requires bool operands, got %s and %s", n.Operator, left, right)
		}
		return ast.BoolT(), nil

	default:
		return ast.Type{}, errf(n.Line(), "unreachable: unknown infix operator %q", n.Operator)
	}
}

func (a *Analyzer) checkBlock(env *Environment, n *ast.Block) (ast.Type, error) {
	child := NewChildEnvironment(env)
	result := ast.Null()
	for _, sub := range n.Exprs {
		t, err := a.check(child, sub)
		if err != nil {
			return ast.Type{}, err
		}
		result = t
	}
	if n.TrailingSemicolon {
		// Design note "semicolon policy": a trailing ';' forces the
		// block's value/type to Null regardless of the last expression.
		return ast.Null(), nil
	}
	return result, nil
}

func (a *Analyzer) checkIf(env *Environment, n *ast.IfCondition) (ast.Type, error) {
	cond, err := a.check(env, n.Cond)
	if err != nil {
		return ast.Type{}, err
	}
	if cond.Kind != ast.KindBool {
		return ast.Type{}, errf(n.Line(), "if condition must be bool, got %s", cond)
	}
	if n.Else == nil {
		// Open question "nullable if": rejected outright rather than
		// guessing a zero value.
		return ast.Type{}, errf(n.Line(), "unsupported: if without else is not yet supported")
	}
	thenT, err := a.check(env, n.Then)
	if err != nil {
		return ast.Type{}, err
	}
	elseT, err := a.check(env, n.Else)
	if err != nil {
		return ast.Type{}, err
	}
	if !ast.TypesEqual(env, thenT, elseT) {
		return ast.Type{}, errf(n.Line(), "if branches must have equal types, got %s and %s", thenT, elseT)
	}
	return thenT, nil
}

func (a *Analyzer) checkVariableDefinition(env *Environment, n *ast.VariableDefinition) (ast.Type, error) {
	if _, ok := env.GetVariable(n.Name); ok {
		return ast.Type{}, errf(n.Line(), "variable already defined: %s", n.Name)
	}
	if env.HasReceiverlessFunction(n.Name) {
		return ast.Type{}, errf(n.Line(), "a function named %s already exists", n.Name)
	}
	valueType, err := a.check(env, n.Value)
	if err != nil {
		return ast.Type{}, err
	}
	if n.DeclaredType != nil && !ast.TypesEqual(env, *n.DeclaredType, valueType) {
		return ast.Type{}, errf(n.Line(), "declared type %s does not match value type %s", *n.DeclaredType, valueType)
	}
	env.AddVariable(n.Name, valueType, n.Constant)
	return ast.Null(), nil
}

func (a *Analyzer) checkVariableAssignment(env *Environment, n *ast.VariableAssignment) (ast.Type, error) {
	binding, ok := env.GetVariable(n.Name)
	if !ok {
		return ast.Type{}, errf(n.Line(), "Unknown variable: %s", n.Name)
	}
	if binding.Constant {
		return ast.Type{}, errf(n.Line(), "cannot assign to val binding: %s", n.Name)
	}

	valueType, err := a.check(env, n.Value)
	if err != nil {
		return ast.Type{}, err
	}

	targetType := binding.Type
	for _, acc := range n.Accessors {
		fields, ok := resolveFields(env, targetType)
		if !ok {
			return ast.Type{}, errf(n.Line(), "%s is not a struct type", targetType)
		}
		ft, ok := fields.Get(acc.FieldName)
		if !ok {
			return ast.Type{}, errf(n.Line(), "no field %q on %s", acc.FieldName, targetType)
		}
		targetType = ft
	}

	if !ast.TypesEqual(env, targetType, valueType) {
		return ast.Type{}, errf(n.Line(), "cannot assign %s to target of type %s", valueType, targetType)
	}
	return ast.Null(), nil
}

// resolveFields returns the field set of t, resolving UserDefined(name)
// through env when necessary.
func resolveFields(env *Environment, t ast.Type) (*ast.StructFields, bool) {
	switch t.Kind {
	case ast.KindStruct:
		return t.Fields, true
	case ast.KindUserDefined:
		return env.LookupStructFields(t.Name)
	default:
		return nil, false
	}
}

func (a *Analyzer) checkFunctionDefinition(env *Environment, n *ast.FunctionDefinition) (ast.Type, error) {
	paramTypes := make([]ast.Type, len(n.Params))
	for i, p := range n.Params {
		paramTypes[i] = p.Type
	}

	var preType *ast.Type
	if n.PreParameter != nil {
		pt := n.PreParameter.Type
		preType = &pt
	}

	if n.Name != nil {
		if _, ok := env.GetFunction(*n.Name, preType); ok {
			return ast.Type{}, errf(n.Line(), "function already defined: %s", *n.Name)
		}
		if _, ok := env.GetVariable(*n.Name); ok && preType == nil {
			return ast.Type{}, errf(n.Line(), "a variable named %s already exists", *n.Name)
		}
		env.AddFunction(*n.Name, preType, paramTypes, n.ReturnType)
	}

	body := NewChildEnvironment(env)
	if n.PreParameter != nil {
		if body.HasReceiverlessFunction(n.PreParameter.Name) {
			return ast.Type{}, errf(n.Line(), "a function named %s already exists", n.PreParameter.Name)
		}
		body.AddVariable(n.PreParameter.Name, n.PreParameter.Type, n.PreParameter.Constant)
	}
	for _, p := range n.Params {
		if body.HasReceiverlessFunction(p.Name) {
			return ast.Type{}, errf(n.Line(), "a function named %s already exists", p.Name)
		}
		body.AddVariable(p.Name, p.Type, p.Constant)
	}

	bodyType, err := a.check(body, n.Body)
	if err != nil {
		return ast.Type{}, err
	}
	if !ast.TypesEqual(env, n.ReturnType, bodyType) {
		return ast.Type{}, errf(n.Line(), "function body type %s does not match declared return type %s", bodyType, n.ReturnType)
	}

	return ast.FunctionT(paramTypes, n.ReturnType), nil
}

func (a *Analyzer) checkStructDefinition(env *Environment, n *ast.StructDefinition) (ast.Type, error) {
	if n.Name != nil {
		if _, ok := env.GetStruct(*n.Name); ok {
			return ast.Type{}, errf(n.Line(), "struct already defined: %s", *n.Name)
		}
		fields := ast.NewStructFields()
		for _, f := range n.Fields {
			fields.Add(f.Name, f.Type)
		}
		env.AddStruct(*n.Name, fields)
	}
	return ast.Null(), nil
}

func (a *Analyzer) checkMakeStruct(env *Environment, n *ast.MakeStruct) (ast.Type, error) {
	valueTypes := make(map[string]ast.Type, len(n.Fields))
	seen := make(map[string]bool, len(n.Fields))
	for _, f := range n.Fields {
		if seen[f.Name] {
			return ast.Type{}, errf(n.Line(), "duplicate field in struct literal: %s", f.Name)
		}
		seen[f.Name] = true
		t, err := a.check(env, f.Value)
		if err != nil {
			return ast.Type{}, err
		}
		valueTypes[f.Name] = t
	}

	if n.Name != nil {
		decl, ok := env.GetStruct(*n.Name)
		if !ok {
			return ast.Type{}, errf(n.Line(), "unknown struct: %s", *n.Name)
		}
		if decl.Fields.Len() != len(n.Fields) {
			return ast.Type{}, errf(n.Line(), "struct %s expects %d fields, got %d", *n.Name, decl.Fields.Len(), len(n.Fields))
		}
		for _, fname := range decl.Fields.Names() {
			declType, _ := decl.Fields.Get(fname)
			vt, ok := valueTypes[fname]
			if !ok {
				return ast.Type{}, errf(n.Line(), "struct %s missing field %q", *n.Name, fname)
			}
			if !ast.TypesEqual(env, declType, vt) {
				return ast.Type{}, errf(n.Line(), "field %q expects %s, got %s", fname, declType, vt)
			}
		}
		return ast.UserDefinedT(*n.Name), nil
	}

	fields := ast.NewStructFields()
	for _, f := range n.Fields {
		fields.Add(f.Name, valueTypes[f.Name])
	}
	return ast.StructT(fields), nil
}

func (a *Analyzer) checkFunctionCall(env *Environment, n *ast.FunctionCall) (ast.Type, error) {
	calleeType, err := a.check(env, n.Callee)
	if err != nil {
		return ast.Type{}, err
	}
	if calleeType.Kind != ast.KindFunction {
		return ast.Type{}, errf(n.Line(), "cannot call non-function type %s", calleeType)
	}
	return a.checkCallArgs(env, n.Line(), calleeType, n.Args)
}

func (a *Analyzer) checkValueFunctionCall(env *Environment, n *ast.ValueFunctionCall) (ast.Type, error) {
	preType, err := a.check(env, n.PreArgument)
	if err != nil {
		return ast.Type{}, err
	}
	n.PreArgumentType = &preType

	f, ok := env.GetFunction(n.Method, &preType)
	if !ok {
		return ast.Type{}, errf(n.Line(), "no method %q on receiver type %s", n.Method, preType)
	}
	return a.checkCallArgs(env, n.Line(), ast.FunctionT(f.ParamTypes, f.ReturnType), n.Args)
}

func (a *Analyzer) checkCallArgs(env *Environment, line int, fnType ast.Type, args []ast.Expr) (ast.Type, error) {
	if len(args) != len(fnType.ParamTypes) {
		return ast.Type{}, errf(line, "expected %d arguments, got %d", len(fnType.ParamTypes), len(args))
	}
	for i, arg := range args {
		at, err := a.check(env, arg)
		if err != nil {
			return ast.Type{}, err
		}
		if !ast.TypesEqual(env, fnType.ParamTypes[i], at) {
			return ast.Type{}, errf(line, "argument %d: expected %s, got %s", i+1, fnType.ParamTypes[i], at)
		}
	}
	ret := ast.Null()
	if fnType.ReturnType != nil {
		ret = *fnType.ReturnType
	}
	return ret, nil
}

func (a *Analyzer) checkFieldAccess(env *Environment, n *ast.FieldAccess) (ast.Type, error) {
	baseType, err := a.check(env, n.Expr)
	if err != nil {
		return ast.Type{}, err
	}
	fields, ok := resolveFields(env, baseType)
	if !ok {
		return ast.Type{}, errf(n.Line(), "%s is not a struct type", baseType)
	}
	ft, ok := fields.Get(n.Field)
	if !ok {
		return ast.Type{}, errf(n.Line(), "no field %q on %s", n.Field, baseType)
	}
	return ft, nil
}
