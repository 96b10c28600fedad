// Package heap implements the managed object heap backing heap-allocated
// values. Objects live in a slot table addressed by opaque handles and are
// reclaimed by a stop-the-world tri-color mark-sweep collector. Strings
// are interned: allocating the same text twice yields the same handle.
package heap

// objectHeaderSize is the estimated fixed cost of one live object, used
// for the accounting that drives collection scheduling. It does not need
// to be exact; it only has to be consistent between alloc and sweep.
const objectHeaderSize = 48

const (
	initialGCThreshold = 1024 * 1024 // 1MB
	heapGrowFactor     = 2
)

// RootSource contributes roots to a collection. The VM registers itself as
// a source for the duration of a run so that every value on its stack is a
// root at every allocation point, including collections that fire
// mid-execution.
type RootSource interface {
	// MarkRoots calls mark for every handle the source currently holds.
	MarkRoots(mark func(Handle))
}

// Heap owns all object payloads. Handles issued by a Heap are non-owning
// references and are only meaningful to the Heap that issued them.
//
// The Heap is single-threaded, like the rest of the interpreter: one
// executor owns it at a time and no operation suspends.
type Heap struct {
	// The slot table. A nil entry is a free slot whose index sits on the
	// free list.
	objects []*Object

	// Indices of free slots available for reuse.
	freeList []int

	// Explicitly rooted handles. String literals loaded into a constant
	// pool are pinned here for the life of the program.
	roots []Handle

	// Registered root sources, scanned during the mark phase.
	rootSources []RootSource

	// Gray worklist for the trace phase.
	grayStack []Handle

	// Intern table: string content to the handle of its object. Entries
	// are removed when the object is swept.
	strings map[string]Handle

	bytesAllocated int
	nextGC         int
}

// Stats is a point-in-time snapshot of the heap's accounting, intended
// for debugging and tests.
type Stats struct {
	BytesAllocated int
	NextGC         int
	TotalSlots     int
	LiveObjects    int
	FreeSlots      int
}

// New creates an empty Heap with the initial collection threshold.
func New() *Heap {
	return &Heap{
		strings: make(map[string]Handle),
		nextGC:  initialGCThreshold,
	}
}

// AllocString returns a handle to a string object holding s.
//
// Strings are interned: if an object with the same content is already
// live, its handle is returned and no allocation happens. Otherwise a new
// object is allocated, which may trigger a collection first. The caller
// must ensure that any handle that has to survive this call is reachable
// from the root set.
func (h *Heap) AllocString(s string) Handle {
	if hd, ok := h.strings[s]; ok {
		return hd
	}

	data := NewStringObject(s)
	hd := h.allocObject(data)
	h.strings[s] = hd
	return hd
}

// allocObject places a payload into a slot, collecting first if the
// accounting says the allocation would cross the threshold.
func (h *Heap) allocObject(data ObjectData) Handle {
	size := objectHeaderSize + data.Size()
	if h.bytesAllocated+size > h.nextGC {
		h.Collect()
	}

	obj := &Object{marked: white, Data: data}

	var index int
	if n := len(h.freeList); n > 0 {
		index = h.freeList[n-1]
		h.freeList = h.freeList[:n-1]
		h.objects[index] = obj
	} else {
		h.objects = append(h.objects, obj)
		index = len(h.objects) - 1
	}

	h.bytesAllocated += size
	return Handle(index)
}

// Get resolves a handle to its object, or reports false if the slot is
// empty. Resolving a handle whose object has been collected is a
// programmer error; the heap answers "not found" rather than handing out
// stale data.
func (h *Heap) Get(hd Handle) (*Object, bool) {
	if int(hd) < 0 || int(hd) >= len(h.objects) {
		return nil, false
	}
	obj := h.objects[hd]
	if obj == nil {
		return nil, false
	}
	return obj, true
}

// GetString resolves a handle to its string content. It reports false if
// the slot is empty or holds a non-string variant.
func (h *Heap) GetString(hd Handle) (string, bool) {
	obj, ok := h.Get(hd)
	if !ok {
		return "", false
	}
	s, ok := obj.Data.(*StringObject)
	if !ok {
		return "", false
	}
	return string(s.Bytes), true
}

// AddRoot pins a handle in the explicit root set.
func (h *Heap) AddRoot(hd Handle) {
	h.roots = append(h.roots, hd)
}

// RemoveRoot removes one occurrence of a handle from the explicit root set.
func (h *Heap) RemoveRoot(hd Handle) {
	for i, r := range h.roots {
		if r == hd {
			h.roots = append(h.roots[:i], h.roots[i+1:]...)
			return
		}
	}
}

// AddRootSource registers a source to be scanned during every collection.
func (h *Heap) AddRootSource(src RootSource) {
	h.rootSources = append(h.rootSources, src)
}

// RemoveRootSource deregisters a previously added source.
func (h *Heap) RemoveRootSource(src RootSource) {
	for i, s := range h.rootSources {
		if s == src {
			h.rootSources = append(h.rootSources[:i], h.rootSources[i+1:]...)
			return
		}
	}
}

// Collect runs a full stop-the-world mark-sweep cycle and resets the next
// collection threshold to the surviving byte count times the grow factor.
func (h *Heap) Collect() {
	h.markRoots()
	h.traceReferences()
	h.sweep()

	h.nextGC = h.bytesAllocated * heapGrowFactor
}

// markRoots grays every object reachable from the explicit root set and
// from the registered root sources.
func (h *Heap) markRoots() {
	for _, root := range h.roots {
		h.markObject(root)
	}
	for _, src := range h.rootSources {
		src.MarkRoots(h.markObject)
	}
}

// markObject grays a white object and queues it for tracing. Gray and
// black objects are left alone, so shared children are scanned once.
func (h *Heap) markObject(hd Handle) {
	obj, ok := h.Get(hd)
	if !ok {
		return
	}
	if obj.marked != white {
		return
	}
	obj.marked = gray
	h.grayStack = append(h.grayStack, hd)
}

// traceReferences drains the gray worklist, blackening each object and
// graying its children.
func (h *Heap) traceReferences() {
	for len(h.grayStack) > 0 {
		hd := h.grayStack[len(h.grayStack)-1]
		h.grayStack = h.grayStack[:len(h.grayStack)-1]

		obj, ok := h.Get(hd)
		if !ok {
			continue
		}
		obj.marked = black
		obj.Data.Trace(h.markObject)
	}
}

// sweep frees every object still white, returning its slot to the free
// list and subtracting its size from the accounting. Black survivors are
// recolored white for the next cycle. Swept strings are also dropped from
// the intern table.
func (h *Heap) sweep() {
	for index, obj := range h.objects {
		if obj == nil {
			continue
		}
		if obj.marked != white {
			obj.marked = white
			continue
		}

		h.bytesAllocated -= objectHeaderSize + obj.Data.Size()
		if s, ok := obj.Data.(*StringObject); ok {
			delete(h.strings, string(s.Bytes))
		}
		h.objects[index] = nil
		h.freeList = append(h.freeList, index)
	}
}

// BytesAllocated returns the current accounted byte count.
func (h *Heap) BytesAllocated() int {
	return h.bytesAllocated
}

// Stats returns a snapshot of the heap accounting.
func (h *Heap) Stats() Stats {
	live := 0
	for _, obj := range h.objects {
		if obj != nil {
			live++
		}
	}
	return Stats{
		BytesAllocated: h.bytesAllocated,
		NextGC:         h.nextGC,
		TotalSlots:     len(h.objects),
		LiveObjects:    live,
		FreeSlots:      len(h.freeList),
	}
}
