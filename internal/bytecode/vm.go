package bytecode

import (
	"fmt"
	"io"
)

// RuntimeError is a VM panic surfaced as a normal Go error (spec §7
// "Runtime panic... Errors surface as analyzer/compile/runtime failures,
// never as language-level exceptions").
type RuntimeError struct {
	Message string
}

func (e *RuntimeError) Error() string { return "runtime error: " + e.Message }

func runtimeErrorf(format string, args ...any) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(format, args...)}
}

// provenance records the variable + accessor chain a value-wrapper was
// loaded from (spec §4.3), so a var-parameter's mutation can be
// committed back to the caller's binding after Call returns.
type provenance struct {
	name      string
	accessors []Accessor
}

// wrapper is the VM's operand-stack element: a Value plus optional
// provenance. Provenance is cleared by arithmetic/logic ops and by Push,
// and carried by Load and AccessField (spec glossary "Value-wrapper").
type wrapper struct {
	value Value
	from  *provenance
}

func plain(v Value) wrapper { return wrapper{value: v} }

// VM executes Chunks produced by the Compiler against an operand stack,
// a per-frame local map, and a heap shared across the whole run (spec
// §4.3, component C5).
type VM struct {
	heap  *Heap
	root  *Chunk
	trace io.Writer
}

// NewVM creates a VM with a fresh heap.
func NewVM() *VM {
	return &VM{heap: NewHeap()}
}

// SetTrace enables per-opcode tracing: every instruction executed by
// every chunk (root or nested function) is written to w before it runs.
func (vm *VM) SetTrace(w io.Writer) { vm.trace = w }

// Heap exposes the VM's heap, e.g. for ExecutionResult construction after
// Run returns.
func (vm *VM) Heap() *Heap { return vm.heap }

// Run executes chunk's top-level code and returns its result value.
func (vm *VM) Run(chunk *Chunk) (Value, error) {
	vm.root = chunk
	return vm.execChunk(chunk, nil)
}

// execChunk runs one chunk (top-level or a function body) to completion.
// initialStack seeds the operand stack for a function invocation; nil for
// the top-level run.
func (vm *VM) execChunk(chunk *Chunk, initialStack []wrapper) (Value, error) {
	stack := append([]wrapper{}, initialStack...)
	locals := map[string]Value{}

	ip := 0
	for ip < len(chunk.Code) {
		ins := chunk.Code[ip]
		jumped := false

		if vm.trace != nil {
			fmt.Fprintf(vm.trace, "%04d %s\n", ip, ins.String())
		}

		switch ins.Op {
		case OpPush:
			stack = append(stack, plain(ins.Value))

		case OpPop:
			if len(stack) == 0 {
				return Value{}, runtimeErrorf("stack underflow on Pop")
			}
			stack = stack[:len(stack)-1]

		case OpPushObject:
			idx := vm.heap.Add(ins.Object)
			stack = append(stack, plain(ObjectRefValue(idx)))

		case OpStore:
			v, rest, err := pop(stack)
			if err != nil {
				return Value{}, err
			}
			stack = rest
			vm.store(locals, ins.Name, toAccessorSlice(ins.Accessors), v.value)

		case OpLoad:
			v, ok := locals[ins.Name]
			if !ok {
				return Value{}, runtimeErrorf("undefined variable %q", ins.Name)
			}
			stack = append(stack, wrapper{value: v, from: &provenance{name: ins.Name}})

		case OpAdd, OpSubstract, OpMultiply, OpDivide:
			b, rest, err := pop(stack)
			if err != nil {
				return Value{}, err
			}
			a, rest2, err := pop(rest)
			if err != nil {
				return Value{}, err
			}
			stack = rest2
			result, err := vm.arith(ins.Op, vm.resolve(a.value), vm.resolve(b.value))
			if err != nil {
				return Value{}, err
			}
			stack = append(stack, plain(result))

		case OpNegate:
			a, rest, err := pop(stack)
			if err != nil {
				return Value{}, err
			}
			stack = rest
			result, err := vm.negate(vm.resolve(a.value))
			if err != nil {
				return Value{}, err
			}
			stack = append(stack, plain(result))

		case OpEqual, OpLessThan, OpLessThanOrEqual, OpGreaterThan, OpGreaterThanOrEqual:
			b, rest, err := pop(stack)
			if err != nil {
				return Value{}, err
			}
			a, rest2, err := pop(rest)
			if err != nil {
				return Value{}, err
			}
			stack = rest2
			result, err := vm.compare(ins.Op, a.value, b.value)
			if err != nil {
				return Value{}, err
			}
			stack = append(stack, plain(result))

		case OpJump:
			ip = ins.Addr
			jumped = true

		case OpJumpIfFalse:
			v, rest, err := pop(stack)
			if err != nil {
				return Value{}, err
			}
			stack = rest
			cond, err := vm.boolOf(vm.resolve(v.value))
			if err != nil {
				return Value{}, err
			}
			if !cond {
				ip = ins.Addr
				jumped = true
			}

		case OpCall:
			v, rest, err := pop(stack)
			if err != nil {
				return Value{}, err
			}
			if v.value.Type != ValueFunction {
				return Value{}, runtimeErrorf("cannot call non-function value %s", v.value)
			}
			result, newStack, err := vm.call(v.value.AsFunctionIndex(), rest, locals)
			if err != nil {
				return Value{}, err
			}
			stack = append(newStack, plain(result))

		case OpMakeStruct:
			fields := map[string]Value{}
			cur := stack
			for i := 0; i < ins.Count; i++ {
				val, rest, err := pop(cur)
				if err != nil {
					return Value{}, err
				}
				name, rest2, err := pop(rest)
				if err != nil {
					return Value{}, err
				}
				if name.value.Type != ValueStructFieldName {
					return Value{}, runtimeErrorf("expected struct field name marker")
				}
				fields[name.value.AsFieldName()] = val.value
				cur = rest2
			}
			stack = append(cur, plain(StructValue(fields)))

		case OpAccessField:
			base, rest, err := pop(stack)
			if err != nil {
				return Value{}, err
			}
			stack = rest
			fields, err := vm.structFieldsOf(base.value)
			if err != nil {
				return Value{}, err
			}
			fv, ok := fields[ins.Name]
			if !ok {
				return Value{}, runtimeErrorf("field %q does not exist", ins.Name)
			}
			stack = append(stack, wrapper{value: fv, from: extendProvenance(base.from, ins.Name)})

		case OpHalt:
			if len(stack) == 0 {
				return NullValue(), nil
			}
			return stack[len(stack)-1].value, nil

		default:
			return Value{}, runtimeErrorf("unhandled opcode %s", ins.Op)
		}

		if !jumped {
			ip++
		}
	}

	if len(stack) == 0 {
		return NullValue(), nil
	}
	return stack[len(stack)-1].value, nil
}

func pop(stack []wrapper) (wrapper, []wrapper, error) {
	if len(stack) == 0 {
		return wrapper{}, nil, runtimeErrorf("stack underflow")
	}
	return stack[len(stack)-1], stack[:len(stack)-1], nil
}

func toAccessorSlice(a []Accessor) []Accessor {
	if a == nil {
		return nil
	}
	out := make([]Accessor, len(a))
	copy(out, a)
	return out
}

func extendProvenance(base *provenance, field string) *provenance {
	if base == nil {
		return nil
	}
	accessors := make([]Accessor, len(base.accessors)+1)
	copy(accessors, base.accessors)
	accessors[len(accessors)-1] = Accessor{FieldName: field}
	return &provenance{name: base.name, accessors: accessors}
}

// resolve transparently unwraps an ObjectRef to a boxed Object::Value,
// per spec §4.3 "Arithmetic coercions".
func (vm *VM) resolve(v Value) Value {
	if v.Type != ValueObjectRef {
		return v
	}
	obj := vm.heap.Get(v.AsObjectRef())
	if obj.Type == ObjectBoxedValue {
		return obj.Boxed
	}
	return v
}

func (vm *VM) structFieldsOf(v Value) (map[string]Value, error) {
	resolved := vm.resolve(v)
	if resolved.Type != ValueStruct {
		return nil, runtimeErrorf("field access on non-struct value %s", v)
	}
	return resolved.AsStruct(), nil
}

func (vm *VM) boolOf(v Value) (bool, error) {
	if v.Type != ValueBool {
		return false, runtimeErrorf("expected bool, got %s", v.Type)
	}
	return v.AsBool(), nil
}

func (vm *VM) arith(op OpCode, a, b Value) (Value, error) {
	af, aIsFloat, aOk := numeric(a)
	bf, bIsFloat, bOk := numeric(b)
	if !aOk || !bOk {
		return Value{}, runtimeErrorf("arithmetic requires numeric operands, got %s and %s", a.Type, b.Type)
	}

	if op == OpDivide {
		// Int/Int division always yields Float (no integer division).
		if bf == 0 {
			return Value{}, runtimeErrorf("division by zero")
		}
		return FloatValue(af / bf), nil
	}

	if !aIsFloat && !bIsFloat {
		ai, bi := a.AsInt(), b.AsInt()
		switch op {
		case OpAdd:
			return IntValue(ai + bi), nil
		case OpSubstract:
			return IntValue(ai - bi), nil
		case OpMultiply:
			return IntValue(ai * bi), nil
		}
	}

	switch op {
	case OpAdd:
		return FloatValue(af + bf), nil
	case OpSubstract:
		return FloatValue(af - bf), nil
	case OpMultiply:
		return FloatValue(af * bf), nil
	}
	return Value{}, runtimeErrorf("unreachable arithmetic opcode %s", op)
}

func numeric(v Value) (f float64, isFloat bool, ok bool) {
	switch v.Type {
	case ValueInt:
		return float64(v.AsInt()), false, true
	case ValueFloat:
		return v.AsFloat(), true, true
	default:
		return 0, false, false
	}
}

func (vm *VM) negate(v Value) (Value, error) {
	switch v.Type {
	case ValueInt:
		return IntValue(-v.AsInt()), nil
	case ValueFloat:
		return FloatValue(-v.AsFloat()), nil
	case ValueBool:
		return BoolValue(!v.AsBool()), nil
	default:
		return Value{}, runtimeErrorf("cannot negate value of type %s", v.Type)
	}
}

func (vm *VM) compare(op OpCode, a, b Value) (Value, error) {
	if op == OpEqual {
		return BoolValue(vm.valuesEqual(a, b)), nil
	}

	af, aIsFloat, aOk := numeric(vm.resolve(a))
	bf, bIsFloat, bOk := numeric(vm.resolve(b))
	_ = aIsFloat
	_ = bIsFloat
	if !aOk || !bOk {
		return Value{}, runtimeErrorf("comparison requires numeric operands, got %s and %s", a.Type, b.Type)
	}

	switch op {
	case OpLessThan:
		return BoolValue(af < bf), nil
	case OpLessThanOrEqual:
		return BoolValue(af <= bf), nil
	case OpGreaterThan:
		return BoolValue(af > bf), nil
	case OpGreaterThanOrEqual:
		return BoolValue(af >= bf), nil
	default:
		return Value{}, runtimeErrorf("unreachable comparison opcode %s", op)
	}
}

// valuesEqual implements the open question "equality on heap objects":
// ObjectRefs compare by the underlying Object::Value/String, never by
// reference identity.
func (vm *VM) valuesEqual(a, b Value) bool {
	aIsRef := a.Type == ValueObjectRef
	bIsRef := b.Type == ValueObjectRef

	switch {
	case aIsRef && bIsRef:
		return vm.heap.Get(a.AsObjectRef()).Equal(vm.heap.Get(b.AsObjectRef()))
	case aIsRef && !bIsRef:
		obj := vm.heap.Get(a.AsObjectRef())
		return obj.Type == ObjectBoxedValue && obj.Boxed.Equal(b)
	case !aIsRef && bIsRef:
		obj := vm.heap.Get(b.AsObjectRef())
		return obj.Type == ObjectBoxedValue && obj.Boxed.Equal(a)
	default:
		return a.Equal(b)
	}
}

// store implements Store{name, accessors} (spec §4.2/§4.3): with no
// accessors it either mutates an existing heap cell in place (when the
// binding already holds an ObjectRef) or rebinds the local directly;
// with accessors it rewrites the named binding through the field chain.
func (vm *VM) store(locals map[string]Value, name string, accessors []Accessor, value Value) {
	if len(accessors) == 0 {
		vm.storeWithoutAccessors(locals, name, value)
		return
	}
	current := locals[name]
	locals[name] = vm.updateField(current, accessors, value)
}

func (vm *VM) storeWithoutAccessors(locals map[string]Value, name string, value Value) {
	if existing, ok := locals[name]; ok && existing.Type == ValueObjectRef {
		destIndex := existing.AsObjectRef()
		var obj Object
		if value.Type == ValueObjectRef {
			obj = vm.heap.Get(value.AsObjectRef())
		} else {
			obj = BoxedObject(value)
		}
		vm.heap.Update(destIndex, obj)
	}
	locals[name] = value
}

// updateField returns a copy of old with the field chain accessors
// rewritten to newFieldValue, recursing through plain Structs and through
// ObjectRef→Object::Value(Struct) boxes (writing the updated object back
// to the heap as it unwinds).
func (vm *VM) updateField(old Value, accessors []Accessor, newFieldValue Value) Value {
	if len(accessors) == 0 {
		return newFieldValue
	}

	field := accessors[0].FieldName

	if old.Type == ValueObjectRef {
		idx := old.AsObjectRef()
		obj := vm.heap.Get(idx)
		if obj.Type != ObjectBoxedValue || obj.Boxed.Type != ValueStruct {
			panic("bytecode: store through accessor on non-struct object")
		}
		fields := cloneFields(obj.Boxed.AsStruct())
		fields[field] = vm.updateField(fields[field], accessors[1:], newFieldValue)
		vm.heap.Update(idx, BoxedObject(StructValue(fields)))
		return old
	}

	if old.Type != ValueStruct {
		panic("bytecode: store through accessor on non-struct value")
	}
	fields := cloneFields(old.AsStruct())
	fields[field] = vm.updateField(fields[field], accessors[1:], newFieldValue)
	return StructValue(fields)
}

func cloneFields(m map[string]Value) map[string]Value {
	out := make(map[string]Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// call implements the Call calling convention (spec §4.3): box `var`
// arguments into fresh heap cells, run the callee chunk, then commit
// writeback for every boxed argument back into the caller's locals.
// fnIndex always indexes vm.root's Functions table (see Chunk doc) so
// self-recursive calls resolve correctly regardless of which chunk is
// currently executing.
func (vm *VM) call(fnIndex int, callerStack []wrapper, callerLocals map[string]Value) (Value, []wrapper, error) {
	fn := vm.root.Functions[fnIndex]

	params := combinedParams(fn)

	// initial is built by appending in pop order, not indexed by i: Store
	// ops in the callee run in declared order (compileFunctionDefinition),
	// and execChunk treats the last element of its initial stack as the
	// top. Popping params in reverse declared order and appending each in
	// that same order lands declared parameter 0 last in initial, which is
	// exactly where the callee's first Store expects to find it.
	var initial []wrapper
	type pending struct {
		prov  provenance
		index int
	}
	var writeback []pending

	stack := callerStack
	for i := len(params) - 1; i >= 0; i-- {
		arg, rest, err := pop(stack)
		if err != nil {
			return Value{}, nil, err
		}
		stack = rest

		if !params[i].Constant && arg.value.Type != ValueObjectRef {
			idx := vm.heap.Add(BoxedObject(arg.value))
			initial = append(initial, plain(ObjectRefValue(idx)))
			if arg.from != nil {
				writeback = append(writeback, pending{prov: *arg.from, index: idx})
			}
		} else {
			initial = append(initial, arg)
		}
	}

	result, err := vm.execChunk(fn.Chunk, initial)
	if err != nil {
		return Value{}, nil, err
	}

	for _, p := range writeback {
		obj := vm.heap.Get(p.index)
		if obj.Type != ObjectBoxedValue {
			continue
		}
		vm.store(callerLocals, p.prov.name, p.prov.accessors, obj.Boxed)
	}

	return result, stack, nil
}

// combinedParams returns fn's parameters in call-site declaration order
// with the receiver (if any) first, matching how the compiler pushes
// arguments at the call site (pre-argument, then args left to right).
func combinedParams(fn *Function) []FunctionParam {
	if fn.PreParameter == nil {
		return fn.Params
	}
	out := make([]FunctionParam, 0, len(fn.Params)+1)
	out = append(out, *fn.PreParameter)
	out = append(out, fn.Params...)
	return out
}
