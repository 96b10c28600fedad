// Package value defines the runtime value representation shared by the
// constant pool, the VM stack and the heap.
package value

import (
	"fmt"
	"strconv"

	"rlox/heap"
)

// ValueType discriminates the variants of a Value.
type ValueType uint8

const (
	DOUBLE ValueType = iota
	BOOLEAN
	NIL
	OBJECT
)

// Value is a tagged union: a 64-bit float, a boolean, nil, or a handle to
// a heap object. Values are freely duplicable; copying an OBJECT value
// copies the handle, not the referent.
type Value struct {
	Type    ValueType
	Number  float64
	Boolean bool
	Obj     heap.Handle
}

// Double wraps a float64.
func Double(n float64) Value {
	return Value{Type: DOUBLE, Number: n}
}

// Boolean values share the two fixed representations.
func Bool(b bool) Value {
	return Value{Type: BOOLEAN, Boolean: b}
}

// Nil is the single nil value.
func Nil() Value {
	return Value{Type: NIL}
}

// Object wraps a heap handle.
func Object(h heap.Handle) Value {
	return Value{Type: OBJECT, Obj: h}
}

// IsFalsey reports whether the value is falsey: nil and false are falsey,
// everything else (including 0 and empty strings) is truthy.
func (v Value) IsFalsey() bool {
	switch v.Type {
	case NIL:
		return true
	case BOOLEAN:
		return !v.Boolean
	default:
		return false
	}
}

// Equals compares two values: cross-variant comparisons are always false,
// doubles use IEEE-754 equality (so NaN != NaN), and object handles
// compare by slot identity. The VM layers string value equality on top of
// this for OBJECT values, resolving both handles through its heap.
func (v Value) Equals(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case DOUBLE:
		return v.Number == other.Number
	case BOOLEAN:
		return v.Boolean == other.Boolean
	case NIL:
		return true
	case OBJECT:
		return v.Obj == other.Obj
	}
	return false
}

// String formats the value for display. Doubles print without trailing
// zeros (3, not 3.0). Object handles print their slot number; resolving
// them to their payload needs the heap and is the VM's job.
func (v Value) String() string {
	switch v.Type {
	case DOUBLE:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	case BOOLEAN:
		return strconv.FormatBool(v.Boolean)
	case NIL:
		return "nil"
	case OBJECT:
		return fmt.Sprintf("[object@%d]", v.Obj)
	}
	return "<invalid>"
}
