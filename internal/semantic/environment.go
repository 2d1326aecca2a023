// Package semantic type-checks an ast.Expr tree and annotates it in place
// (the Analyzer, spec §4.1), backed by a lexically scoped Environment
// (spec §3 "Environment", component C2).
package semantic

import "github.com/cwbudde/go-l/internal/ast"

// Variable is a binding: {name, type, constant}.
type Variable struct {
	Type     ast.Type
	Name     string
	Constant bool
}

// Function is a signature entry keyed by (name, receiver type). PreParamType
// is nil for a receiver-less function.
type Function struct {
	PreParamType *ast.Type
	Name         string
	ParamTypes   []ast.Type
	ReturnType   ast.Type
}

// sameReceiver reports whether two optional receiver types match: both nil,
// or both present and structurally equal.
func sameReceiver(a, b *ast.Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return ast.TypesEqualStructural(*a, *b)
}

// Struct is a registered struct declaration: name plus ordered fields.
type Struct struct {
	Name   string
	Fields *ast.StructFields
}

// Environment is a linked lexical frame (spec §3 "Environment"). Functions
// and structs are copied down from the parent at construction time since
// they are effectively top-level (spec: "so function/struct lookup is
// strictly local"); variables are looked up by walking parent links.
type Environment struct {
	parent    *Environment
	variables []Variable
	functions []Function
	structs   []Struct
}

// NewEnvironment creates a root environment with no parent.
func NewEnvironment() *Environment {
	return &Environment{}
}

// NewChildEnvironment creates a frame enclosed by parent, inheriting its
// functions and structs by value (spec §3).
func NewChildEnvironment(parent *Environment) *Environment {
	child := &Environment{parent: parent}
	child.functions = append(child.functions, parent.functions...)
	child.structs = append(child.structs, parent.structs...)
	return child
}

// GetVariable walks parent links looking for name.
func (e *Environment) GetVariable(name string) (Variable, bool) {
	for _, v := range e.variables {
		if v.Name == name {
			return v, true
		}
	}
	if e.parent != nil {
		return e.parent.GetVariable(name)
	}
	return Variable{}, false
}

// GetFunction looks up a function by (name, preParamType). Lookup is
// strictly local: functions are copied down at frame construction, so
// there is no need to walk parent links (spec invariant 3).
func (e *Environment) GetFunction(name string, preParamType *ast.Type) (Function, bool) {
	for _, f := range e.functions {
		if f.Name == name && sameReceiver(f.PreParamType, preParamType) {
			return f, true
		}
	}
	return Function{}, false
}

// HasReceiverlessFunction reports whether a receiver-less function named
// name is already registered (used by VariableDefinition/FunctionDefinition
// name-collision checks).
func (e *Environment) HasReceiverlessFunction(name string) bool {
	_, ok := e.GetFunction(name, nil)
	return ok
}

// GetStruct looks up a struct declaration by name.
func (e *Environment) GetStruct(name string) (Struct, bool) {
	for _, s := range e.structs {
		if s.Name == name {
			return s, true
		}
	}
	return Struct{}, false
}

// LookupStructFields implements ast.StructResolver so types_equal can see
// through UserDefined(name) to its fields.
func (e *Environment) LookupStructFields(name string) (*ast.StructFields, bool) {
	s, ok := e.GetStruct(name)
	if !ok {
		return nil, false
	}
	return s.Fields, true
}

// AddVariable adds a new binding to the current scope.
func (e *Environment) AddVariable(name string, t ast.Type, constant bool) {
	e.variables = append(e.variables, Variable{Name: name, Type: t, Constant: constant})
}

// AddFunction registers a function signature in the current scope (and,
// since structs/functions are copied down rather than shared, only
// visible to frames created after this call).
func (e *Environment) AddFunction(name string, preParamType *ast.Type, paramTypes []ast.Type, returnType ast.Type) {
	e.functions = append(e.functions, Function{Name: name, PreParamType: preParamType, ParamTypes: paramTypes, ReturnType: returnType})
}

// AddStruct registers a struct declaration in the current scope.
func (e *Environment) AddStruct(name string, fields *ast.StructFields) {
	e.structs = append(e.structs, Struct{Name: name, Fields: fields})
}
