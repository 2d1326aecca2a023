// Package result translates a bytecode.Value into the external
// ExecutionResult tree a caller of the language actually sees (spec.md
// §6), resolving heap indirection and function-index naming along the
// way.
package result

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cwbudde/go-l/internal/bytecode"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Kind tags which case of the ExecutionResult union is populated.
type Kind byte

const (
	KindNull Kind = iota
	KindChar
	KindInt
	KindFloat
	KindBool
	KindString
	KindFunction
	KindStruct
)

// ExecutionResult is the value a program run produces, with every heap
// indirection already resolved: scalars map 1-1 from bytecode.Value,
// ObjectRef is dereferenced (recursively, through boxed values),
// Function carries its name when one is registered, and Struct holds a
// field name to ExecutionResult mapping (grounded on
// original_source/src/vm/execution_result.rs's ExecutionResult enum).
type ExecutionResult struct {
	Fields       map[string]ExecutionResult
	FunctionName *string
	Text         string
	Kind         Kind
	Int          int64
	Float        float64
	Bool         bool
	Char         rune
	FunctionIdx  int
}

// FromValue resolves v (as produced by a VM run against chunk/heap) into
// an ExecutionResult.
func FromValue(chunk *bytecode.Chunk, heap *bytecode.Heap, v bytecode.Value) ExecutionResult {
	switch v.Type {
	case bytecode.ValueNull:
		return ExecutionResult{Kind: KindNull}
	case bytecode.ValueChar:
		return ExecutionResult{Kind: KindChar, Char: v.AsChar()}
	case bytecode.ValueInt:
		return ExecutionResult{Kind: KindInt, Int: v.AsInt()}
	case bytecode.ValueFloat:
		return ExecutionResult{Kind: KindFloat, Float: v.AsFloat()}
	case bytecode.ValueBool:
		return ExecutionResult{Kind: KindBool, Bool: v.AsBool()}

	case bytecode.ValueObjectRef:
		return fromObject(chunk, heap, heap.Get(v.AsObjectRef()))

	case bytecode.ValueFunction:
		idx := v.AsFunctionIndex()
		res := ExecutionResult{Kind: KindFunction, FunctionIdx: idx}
		if name, ok := chunk.ReverseLookupFunctionName(idx); ok {
			res.FunctionName = &name
		}
		return res

	case bytecode.ValueStruct:
		fields := make(map[string]ExecutionResult)
		for name, fv := range v.AsStruct() {
			fields[name] = FromValue(chunk, heap, fv)
		}
		return ExecutionResult{Kind: KindStruct, Fields: fields}

	case bytecode.ValueStructFieldName:
		panic("result: StructFieldName escaped to an execution result")

	default:
		panic("result: unhandled value type in FromValue")
	}
}

func fromObject(chunk *bytecode.Chunk, heap *bytecode.Heap, obj bytecode.Object) ExecutionResult {
	if obj.Type == bytecode.ObjectString {
		return ExecutionResult{Kind: KindString, Text: obj.Text}
	}
	return FromValue(chunk, heap, obj.Boxed)
}

// String renders a human-readable form, e.g. Int(3), Struct{age: Int(20)}.
func (r ExecutionResult) String() string {
	switch r.Kind {
	case KindNull:
		return "Null"
	case KindChar:
		return fmt.Sprintf("Char(%q)", r.Char)
	case KindInt:
		return fmt.Sprintf("Int(%d)", r.Int)
	case KindFloat:
		return fmt.Sprintf("Float(%g)", r.Float)
	case KindBool:
		return fmt.Sprintf("Bool(%t)", r.Bool)
	case KindString:
		return fmt.Sprintf("String(%q)", r.Text)
	case KindFunction:
		if r.FunctionName != nil {
			return fmt.Sprintf("Function(%s#%d)", *r.FunctionName, r.FunctionIdx)
		}
		return fmt.Sprintf("Function(#%d)", r.FunctionIdx)
	case KindStruct:
		names := make([]string, 0, len(r.Fields))
		for name := range r.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		var sb strings.Builder
		sb.WriteString("Struct{")
		for i, name := range names {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(name)
			sb.WriteString(": ")
			sb.WriteString(r.Fields[name].String())
		}
		sb.WriteString("}")
		return sb.String()
	default:
		return "<invalid>"
	}
}

// JSON builds the JSON document for r field-by-field via sjson, rather
// than through an intermediate map[string]any.
func (r ExecutionResult) JSON() (string, error) {
	return r.buildJSON("")
}

func (r ExecutionResult) buildJSON(doc string) (string, error) {
	var err error
	switch r.Kind {
	case KindNull:
		doc, err = sjson.Set(doc, "kind", "null")
	case KindChar:
		doc, err = sjson.Set(doc, "kind", "char")
		if err == nil {
			doc, err = sjson.Set(doc, "value", string(r.Char))
		}
	case KindInt:
		doc, err = sjson.Set(doc, "kind", "int")
		if err == nil {
			doc, err = sjson.Set(doc, "value", r.Int)
		}
	case KindFloat:
		doc, err = sjson.Set(doc, "kind", "float")
		if err == nil {
			doc, err = sjson.Set(doc, "value", r.Float)
		}
	case KindBool:
		doc, err = sjson.Set(doc, "kind", "bool")
		if err == nil {
			doc, err = sjson.Set(doc, "value", r.Bool)
		}
	case KindString:
		doc, err = sjson.Set(doc, "kind", "string")
		if err == nil {
			doc, err = sjson.Set(doc, "value", r.Text)
		}
	case KindFunction:
		doc, err = sjson.Set(doc, "kind", "function")
		if err == nil {
			doc, err = sjson.Set(doc, "index", r.FunctionIdx)
		}
		if err == nil && r.FunctionName != nil {
			doc, err = sjson.Set(doc, "name", *r.FunctionName)
		}
	case KindStruct:
		doc, err = sjson.Set(doc, "kind", "struct")
		for name, field := range r.Fields {
			if err != nil {
				break
			}
			var fieldJSON string
			fieldJSON, err = field.buildJSON("")
			if err == nil {
				doc, err = sjson.SetRaw(doc, "fields."+escapeSjsonPathKey(name), fieldJSON)
			}
		}
	default:
		err = fmt.Errorf("result: unhandled kind %d in JSON", r.Kind)
	}
	return doc, err
}

// escapeSjsonPathKey backslash-escapes the path-syntax characters sjson
// treats specially, so a struct field name can never be misread as path
// structure when used as a path segment.
func escapeSjsonPathKey(key string) string {
	var sb strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '"', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// FromJSON re-extracts the value at a gjson path (a top-level key such as
// "kind" or a nested one such as "fields.age.value") from a JSON document
// built by JSON, for tests that want to assert on one value without
// declaring a throwaway struct.
func FromJSON(doc, path string) gjson.Result {
	return gjson.Get(doc, path)
}
