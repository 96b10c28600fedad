package heap

import (
	"hash/fnv"
)

// Handle is an opaque, stable identifier for an object living on the Heap.
// Handles are freely copyable and comparable; two handles are equal exactly
// when they name the same slot. A Handle is not a pointer: only the Heap
// that issued it can resolve it.
type Handle int

// color is the tri-color marking state of a live object.
//
// Outside a collection every live object is white. During a collection,
// gray objects have been reached but not yet scanned, black objects have
// been fully scanned. The sweep frees the remaining white objects and
// recolors the black survivors white for the next cycle.
type color uint8

const (
	white color = iota
	gray
	black
)

// ObjectData is the variant contract every heap-allocated payload
// implements. Only strings exist today, but the collector never inspects
// concrete types: new variants only need to report their children and
// their size.
type ObjectData interface {
	// Trace calls mark for every handle the payload references.
	Trace(mark func(Handle))

	// Size returns the payload's contribution to the heap accounting,
	// excluding the fixed per-object header estimate.
	Size() int
}

// Object is a heap slot entry: a GC header plus the variant payload.
type Object struct {
	marked color
	Data   ObjectData
}

// StringObject is the string variant. The FNV-1a hash is computed once at
// allocation and stored with the object; the intern table is keyed by the
// string content and does not read it.
type StringObject struct {
	Bytes []byte
	Hash  uint32
}

// NewStringObject builds a string payload with its hash precomputed.
func NewStringObject(s string) *StringObject {
	return &StringObject{
		Bytes: []byte(s),
		Hash:  hashString(s),
	}
}

// Trace is a no-op: strings reference no other objects.
func (s *StringObject) Trace(mark func(Handle)) {}

func (s *StringObject) Size() int {
	return len(s.Bytes)
}

func (s *StringObject) String() string {
	return string(s.Bytes)
}

// hashString computes the 32-bit FNV-1a hash of a string.
func hashString(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}
