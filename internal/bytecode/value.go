// Package bytecode lowers a type-checked ast.Expr tree into linear
// stack-machine bytecode (the Compiler) and executes it (the VM).
package bytecode

import (
	"fmt"
	"strings"
)

// ValueType tags the runtime value union (spec §3 "Runtime Values").
type ValueType byte

const (
	ValueNull ValueType = iota
	ValueChar
	ValueInt
	ValueFloat
	ValueBool
	ValueObjectRef
	ValueFunction
	ValueStruct
	ValueStructFieldName
)

func (t ValueType) String() string {
	switch t {
	case ValueNull:
		return "null"
	case ValueChar:
		return "char"
	case ValueInt:
		return "int"
	case ValueFloat:
		return "float"
	case ValueBool:
		return "bool"
	case ValueObjectRef:
		return "objectref"
	case ValueFunction:
		return "function"
	case ValueStruct:
		return "struct"
	case ValueStructFieldName:
		return "structfieldname"
	default:
		return "unknown"
	}
}

// Value is a tagged-union runtime value. Data holds the payload per Type:
// ValueChar→rune, ValueInt→int64, ValueFloat→float64, ValueBool→bool,
// ValueObjectRef→int (heap index), ValueFunction→int (function index),
// ValueStruct→map[string]Value, ValueStructFieldName→string.
type Value struct {
	Data any
	Type ValueType
}

func NullValue() Value                { return Value{Type: ValueNull} }
func CharValue(c rune) Value          { return Value{Type: ValueChar, Data: c} }
func IntValue(i int64) Value          { return Value{Type: ValueInt, Data: i} }
func FloatValue(f float64) Value      { return Value{Type: ValueFloat, Data: f} }
func BoolValue(b bool) Value          { return Value{Type: ValueBool, Data: b} }
func ObjectRefValue(idx int) Value    { return Value{Type: ValueObjectRef, Data: idx} }
func FunctionValue(idx int) Value     { return Value{Type: ValueFunction, Data: idx} }
func StructValue(m map[string]Value) Value {
	return Value{Type: ValueStruct, Data: m}
}
func StructFieldNameValue(name string) Value {
	return Value{Type: ValueStructFieldName, Data: name}
}

func (v Value) AsInt() int64              { return v.Data.(int64) }
func (v Value) AsFloat() float64          { return v.Data.(float64) }
func (v Value) AsBool() bool              { return v.Data.(bool) }
func (v Value) AsChar() rune              { return v.Data.(rune) }
func (v Value) AsObjectRef() int          { return v.Data.(int) }
func (v Value) AsFunctionIndex() int      { return v.Data.(int) }
func (v Value) AsStruct() map[string]Value { return v.Data.(map[string]Value) }
func (v Value) AsFieldName() string       { return v.Data.(string) }

// Equal compares two values structurally. It does not resolve ObjectRefs —
// callers needing heap-aware equality (spec open question "equality on
// heap objects") use VM.valuesEqual instead.
func (v Value) Equal(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case ValueNull:
		return true
	case ValueChar:
		return v.AsChar() == other.AsChar()
	case ValueInt:
		return v.AsInt() == other.AsInt()
	case ValueFloat:
		return v.AsFloat() == other.AsFloat()
	case ValueBool:
		return v.AsBool() == other.AsBool()
	case ValueObjectRef:
		return v.AsObjectRef() == other.AsObjectRef()
	case ValueFunction:
		return v.AsFunctionIndex() == other.AsFunctionIndex()
	case ValueStructFieldName:
		return v.AsFieldName() == other.AsFieldName()
	case ValueStruct:
		a, b := v.AsStruct(), other.AsStruct()
		if len(a) != len(b) {
			return false
		}
		for name, av := range a {
			bv, ok := b[name]
			if !ok || !av.Equal(bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (v Value) String() string {
	switch v.Type {
	case ValueNull:
		return "null"
	case ValueChar:
		return fmt.Sprintf("%q", v.AsChar())
	case ValueInt:
		return fmt.Sprintf("%d", v.AsInt())
	case ValueFloat:
		return fmt.Sprintf("%g", v.AsFloat())
	case ValueBool:
		return fmt.Sprintf("%t", v.AsBool())
	case ValueObjectRef:
		return fmt.Sprintf("object@%d", v.AsObjectRef())
	case ValueFunction:
		return fmt.Sprintf("function#%d", v.AsFunctionIndex())
	case ValueStructFieldName:
		return fmt.Sprintf("<field %s>", v.AsFieldName())
	case ValueStruct:
		var sb strings.Builder
		sb.WriteString("{")
		first := true
		for name, fv := range v.AsStruct() {
			if !first {
				sb.WriteString(", ")
			}
			first = false
			sb.WriteString(name)
			sb.WriteString(": ")
			sb.WriteString(fv.String())
		}
		sb.WriteString("}")
		return sb.String()
	default:
		return "<invalid>"
	}
}

// ObjectType tags a heap object (spec §3 "Heap Objects").
type ObjectType byte

const (
	ObjectString ObjectType = iota
	ObjectBoxedValue
)

// Object is a heap-resident value: either an immutable String or a
// mutable Value cell used to realize `var`-parameter writeback.
type Object struct {
	Text  string
	Boxed Value
	Type  ObjectType
}

func StringObject(s string) Object  { return Object{Type: ObjectString, Text: s} }
func BoxedObject(v Value) Object    { return Object{Type: ObjectBoxedValue, Boxed: v} }

func (o Object) String() string {
	if o.Type == ObjectString {
		return fmt.Sprintf("%q", o.Text)
	}
	return fmt.Sprintf("box(%s)", o.Boxed)
}

func (o Object) Equal(other Object) bool {
	if o.Type != other.Type {
		return false
	}
	if o.Type == ObjectString {
		return o.Text == other.Text
	}
	return o.Boxed.Equal(other.Boxed)
}
