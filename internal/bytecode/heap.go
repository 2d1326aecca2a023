package bytecode

// Heap is the VM's monotonically growing object store (spec §3 invariant
// 5: "indices once issued remain stable" — there is no garbage
// collection and no compaction, per the language's Non-goals).
type Heap struct {
	objects []Object
}

// NewHeap creates an empty heap.
func NewHeap() *Heap {
	return &Heap{}
}

// Add allocates a new object and returns its stable index.
func (h *Heap) Add(o Object) int {
	h.objects = append(h.objects, o)
	return len(h.objects) - 1
}

// Get returns the object at index. Panics on an out-of-range index, which
// indicates a compiler or VM bug, not a user error.
func (h *Heap) Get(index int) Object {
	return h.objects[index]
}

// Update overwrites the object at index in place.
func (h *Heap) Update(index int, o Object) {
	h.objects[index] = o
}

// Len reports how many objects have been allocated.
func (h *Heap) Len() int {
	return len(h.objects)
}
