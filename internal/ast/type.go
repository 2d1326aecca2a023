// Package ast defines the abstract syntax tree produced by the parser, the
// static type model the analyzer computes over it, and the small set of
// annotations the analyzer attaches in place.
package ast

import "strings"

// Kind tags the static type union described in spec §3.
type Kind int

const (
	KindAny Kind = iota
	KindNull
	KindInt
	KindFloat
	KindBool
	KindChar
	KindString
	KindFunction
	KindStruct
	KindUserDefined
)

func (k Kind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindFunction:
		return "function"
	case KindStruct:
		return "struct"
	case KindUserDefined:
		return "user-defined"
	default:
		return "unknown"
	}
}

// StructFields is an ordered mapping of field name to Type, per spec §3
// ("fields is an ordered mapping by name"). Order is preserved for display
// and diagnostics; equality between two StructFields compares the field
// sets, not the order (design note "Struct ordering").
type StructFields struct {
	byName map[string]Type
	order  []string
}

// NewStructFields creates an empty ordered field set.
func NewStructFields() *StructFields {
	return &StructFields{byName: map[string]Type{}}
}

// Add appends a field, preserving insertion order. Re-adding an existing
// name overwrites its type without moving its position.
func (f *StructFields) Add(name string, t Type) {
	if _, exists := f.byName[name]; !exists {
		f.order = append(f.order, name)
	}
	f.byName[name] = t
}

// Get looks up a field by name.
func (f *StructFields) Get(name string) (Type, bool) {
	t, ok := f.byName[name]
	return t, ok
}

// Names returns field names in insertion order.
func (f *StructFields) Names() []string {
	return f.order
}

// Len returns the number of fields.
func (f *StructFields) Len() int {
	return len(f.order)
}

// Equal reports whether two field sets contain the same names mapped to
// equal types, regardless of declaration order.
func (f *StructFields) Equal(other *StructFields) bool {
	if f == nil || other == nil {
		return f == other
	}
	if f.Len() != other.Len() {
		return false
	}
	for name, t := range f.byName {
		ot, ok := other.byName[name]
		if !ok || !TypesEqualStructural(t, ot) {
			return false
		}
	}
	return true
}

func (f *StructFields) String() string {
	var sb strings.Builder
	sb.WriteString("{")
	for i, name := range f.order {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(name)
		sb.WriteString(" ")
		sb.WriteString(f.byName[name].String())
	}
	sb.WriteString("}")
	return sb.String()
}

// Type is the static type of an expression: a tagged union over Kind, with
// payload fields populated according to the tag (Function: ParamTypes /
// ReturnType; Struct: Fields; UserDefined: Name).
type Type struct {
	Fields     *StructFields
	ReturnType *Type
	Name       string
	ParamTypes []Type
	Kind       Kind
}

func Any() Type      { return Type{Kind: KindAny} }
func Null() Type     { return Type{Kind: KindNull} }
func IntT() Type     { return Type{Kind: KindInt} }
func FloatT() Type   { return Type{Kind: KindFloat} }
func BoolT() Type    { return Type{Kind: KindBool} }
func CharT() Type    { return Type{Kind: KindChar} }
func StringT() Type  { return Type{Kind: KindString} }

func FunctionT(params []Type, ret Type) Type {
	return Type{Kind: KindFunction, ParamTypes: params, ReturnType: &ret}
}

func StructT(fields *StructFields) Type {
	return Type{Kind: KindStruct, Fields: fields}
}

func UserDefinedT(name string) Type {
	return Type{Kind: KindUserDefined, Name: name}
}

func (t Type) IsNumeric() bool {
	return t.Kind == KindInt || t.Kind == KindFloat
}

func (t Type) String() string {
	switch t.Kind {
	case KindFunction:
		parts := make([]string, len(t.ParamTypes))
		for i, p := range t.ParamTypes {
			parts[i] = p.String()
		}
		ret := "null"
		if t.ReturnType != nil {
			ret = t.ReturnType.String()
		}
		return "fun(" + strings.Join(parts, ", ") + ") " + ret
	case KindStruct:
		if t.Fields == nil {
			return "struct {}"
		}
		return "struct " + t.Fields.String()
	case KindUserDefined:
		return t.Name
	default:
		return t.Kind.String()
	}
}

// StructResolver resolves a named struct declaration to its field set. The
// semantic Environment implements this so type equality can see through
// UserDefined(name) to the struct it names.
type StructResolver interface {
	LookupStructFields(name string) (*StructFields, bool)
}

// TypesEqual decides type equality per spec §3: UserDefined(N) and
// Struct{F} are equal exactly when N resolves (via resolver) to a struct
// with fields F. Two UserDefined types are equal when their names match or
// their resolved field sets are equal; otherwise equality is structural on
// tag and components.
func TypesEqual(resolver StructResolver, a, b Type) bool {
	af, aIsUD := resolveUserDefined(resolver, a)
	bf, bIsUD := resolveUserDefined(resolver, b)

	switch {
	case aIsUD && bIsUD:
		return a.Name == b.Name || af.Equal(bf)
	case aIsUD && b.Kind == KindStruct:
		return af.Equal(b.Fields)
	case b.Kind == KindUserDefined && a.Kind == KindStruct:
		// symmetry: equal(Struct(F), UD(N)) must match equal(UD(N), Struct(F))
		return bf.Equal(a.Fields)
	default:
		return TypesEqualStructural(a, b)
	}
}

func resolveUserDefined(resolver StructResolver, t Type) (*StructFields, bool) {
	if t.Kind != KindUserDefined {
		return nil, false
	}
	if resolver == nil {
		return nil, true
	}
	fields, ok := resolver.LookupStructFields(t.Name)
	if !ok {
		return nil, true
	}
	return fields, true
}

// TypesEqualStructural compares two types ignoring UserDefined resolution;
// used for the payload components of a composite type (function params,
// struct field types) where no environment is threaded through.
func TypesEqualStructural(a, b Type) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindFunction:
		if len(a.ParamTypes) != len(b.ParamTypes) {
			return false
		}
		for i := range a.ParamTypes {
			if !TypesEqualStructural(a.ParamTypes[i], b.ParamTypes[i]) {
				return false
			}
		}
		ar, br := Null(), Null()
		if a.ReturnType != nil {
			ar = *a.ReturnType
		}
		if b.ReturnType != nil {
			br = *b.ReturnType
		}
		return TypesEqualStructural(ar, br)
	case KindStruct:
		return a.Fields.Equal(b.Fields)
	case KindUserDefined:
		return a.Name == b.Name
	default:
		return true
	}
}
