package ast

// Expr is implemented by every AST node. Line returns the 1-based source
// line used for diagnostics (invariant: always >= 1). InferredType returns
// the type the analyzer attached, or nil before analysis runs.
type Expr interface {
	Line() int
	InferredType() *Type
	setInferredType(Type)
}

// base is embedded by every concrete node; it carries the line number and
// the analyzer-attached type slot (spec invariant 2).
type base struct {
	typ    *Type
	LineNo int
}

func (b *base) Line() int             { return b.LineNo }
func (b *base) InferredType() *Type   { return b.typ }
func (b *base) setInferredType(t Type) { b.typ = &t }

// SetType is called by the analyzer to annotate a node with its computed
// static type.
func SetType(e Expr, t Type) { e.setInferredType(t) }

// --- Literals ---

type NullLiteral struct{ base }
type StringLiteral struct {
	base
	Value string
}
type CharLiteral struct {
	base
	Value rune
}
type IntLiteral struct {
	base
	Value int64
}
type FloatLiteral struct {
	base
	Value float64
}
type BoolLiteral struct {
	base
	Value bool
}

func NewNullLiteral(line int) *NullLiteral { return &NullLiteral{base{LineNo: line}} }
func NewStringLiteral(line int, v string) *StringLiteral {
	return &StringLiteral{base{LineNo: line}, v}
}
func NewCharLiteral(line int, v rune) *CharLiteral { return &CharLiteral{base{LineNo: line}, v} }
func NewIntLiteral(line int, v int64) *IntLiteral  { return &IntLiteral{base{LineNo: line}, v} }
func NewFloatLiteral(line int, v float64) *FloatLiteral {
	return &FloatLiteral{base{LineNo: line}, v}
}
func NewBoolLiteral(line int, v bool) *BoolLiteral { return &BoolLiteral{base{LineNo: line}, v} }

// --- Identifier ---

type Identifier struct {
	base
	Name string
}

func NewIdentifier(line int, name string) *Identifier { return &Identifier{base{LineNo: line}, name} }

// --- Operators ---

type Prefix struct {
	base
	Operator string
	Operand  Expr
}

type Infix struct {
	base
	Left     Expr
	Right    Expr
	Operator string
}

type Postfix struct {
	base
	Operand  Expr
	Operator string
}

func NewPrefix(line int, op string, operand Expr) *Prefix {
	return &Prefix{base{LineNo: line}, op, operand}
}
func NewInfix(line int, left Expr, op string, right Expr) *Infix {
	return &Infix{base{LineNo: line}, left, right, op}
}
func NewPostfix(line int, operand Expr, op string) *Postfix {
	return &Postfix{base{LineNo: line}, operand, op}
}

// --- Block / control flow ---

type Block struct {
	base
	Exprs []Expr
	// TrailingSemicolon records whether the block's last expression was
	// followed by ';', which makes the block's value/type Null regardless
	// of that expression's own type (design note "semicolon policy").
	TrailingSemicolon bool
}

func NewBlock(line int, exprs []Expr, trailingSemicolon bool) *Block {
	return &Block{base{LineNo: line}, exprs, trailingSemicolon}
}

// IfCondition is an if/else expression. Else is nil when the source has no
// else branch; the analyzer rejects such an if (design note "nullable if").
type IfCondition struct {
	base
	Cond Expr
	Then Expr
	Else Expr
}

func NewIfCondition(line int, cond, then, els Expr) *IfCondition {
	return &IfCondition{base{LineNo: line}, cond, then, els}
}

// --- Variables ---

type VariableDefinition struct {
	base
	DeclaredType *Type
	Name         string
	Value        Expr
	Constant     bool
}

func NewVariableDefinition(line int, constant bool, name string, declared *Type, value Expr) *VariableDefinition {
	return &VariableDefinition{base{LineNo: line}, declared, name, value, constant}
}

// StructFieldAccessor is one hop of a VariableAssignment accessor chain: a
// struct field name. It carries no kind tag; field access is the only kind
// of hop.
type StructFieldAccessor struct {
	FieldName string
}

type VariableAssignment struct {
	base
	Name      string
	Accessors []StructFieldAccessor
	Value     Expr
}

func NewVariableAssignment(line int, name string, accessors []StructFieldAccessor, value Expr) *VariableAssignment {
	return &VariableAssignment{base{LineNo: line}, name, accessors, value}
}

// --- Functions ---

// FunctionParam is {name, type, constant}; constant=true is `val`, false is `var`.
type FunctionParam struct {
	Type     Type
	Name     string
	Constant bool
}

type FunctionDefinition struct {
	base
	Name          *string
	PreParameter  *FunctionParam
	ReturnType    Type
	Body          Expr
	Params        []FunctionParam
}

func NewFunctionDefinition(line int, name *string, pre *FunctionParam, params []FunctionParam, ret Type, body Expr) *FunctionDefinition {
	return &FunctionDefinition{base{LineNo: line}, name, pre, ret, body, params}
}

// --- Structs ---

type StructFieldDecl struct {
	Type Type
	Name string
}

type StructDefinition struct {
	base
	Name   *string
	Fields []StructFieldDecl
}

func NewStructDefinition(line int, name *string, fields []StructFieldDecl) *StructDefinition {
	return &StructDefinition{base{LineNo: line}, name, fields}
}

type MakeStructField struct {
	Value Expr
	Name  string
}

// MakeStruct builds a struct value. Name is nil for the unnamed `mkstruct`
// form (structural result type); non-nil for `Name { ... }`.
type MakeStruct struct {
	base
	Name   *string
	Fields []MakeStructField
}

func NewMakeStruct(line int, name *string, fields []MakeStructField) *MakeStruct {
	return &MakeStruct{base{LineNo: line}, name, fields}
}

// --- Calls / field access ---

type FunctionCall struct {
	base
	Callee Expr
	Args   []Expr
}

func NewFunctionCall(line int, callee Expr, args []Expr) *FunctionCall {
	return &FunctionCall{base{LineNo: line}, callee, args}
}

// ValueFunctionCall is the receiver syntax `expr:method(args...)`.
// PreArgumentType is written by the analyzer (spec invariant 2) once the
// pre-argument's type is known, so the compiler can key into the
// receiver-typed function table without re-inferring it.
type ValueFunctionCall struct {
	base
	PreArgument     Expr
	PreArgumentType *Type
	Method          string
	Args            []Expr
}

func NewValueFunctionCall(line int, pre Expr, method string, args []Expr) *ValueFunctionCall {
	return &ValueFunctionCall{base{LineNo: line}, pre, nil, method, args}
}

type FieldAccess struct {
	base
	Expr  Expr
	Field string
}

func NewFieldAccess(line int, expr Expr, field string) *FieldAccess {
	return &FieldAccess{base{LineNo: line}, expr, field}
}

// TypeLiteral wraps a Type appearing in expression position, which is
// never legal (spec §9 "Type-node in expression position"); it exists so
// the parser has somewhere to put a type it parsed speculatively before
// the analyzer rejects it.
type TypeLiteral struct {
	base
	Value Type
}

func NewTypeLiteral(line int, t Type) *TypeLiteral { return &TypeLiteral{base{LineNo: line}, t} }
