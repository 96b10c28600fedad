package chunk

import (
	"fmt"
)

// Opcode is a single instruction byte. Every instruction starts with an
// opcode, optionally followed by operand bytes as described by its
// definition.
type Opcode byte

// iota generates a distinct byte for each opcode. The numbering is part of
// the bytecode format: decoders map raw bytes straight back through it.
const (
	OP_RETURN Opcode = iota
	OP_CONSTANT
	OP_CONSTANT_LONG
	OP_NIL
	OP_TRUE
	OP_FALSE
	OP_NEGATE
	OP_ADD
	OP_SUBTRACT
	OP_MULTIPLY
	OP_DIVIDE
	OP_NOT
	OP_EQUAL
	OP_GREATER
	OP_LESS
)

const (
	// MaxShortConstantIndex is the highest constant index OP_CONSTANT can
	// encode in its single operand byte.
	MaxShortConstantIndex = 255

	// MaxConstantIndex is the highest constant index OP_CONSTANT_LONG can
	// encode in its three little-endian operand bytes.
	MaxConstantIndex = 1<<24 - 1
)

// OpCodeDefinition describes the shape of one instruction.
//
// Fields:
//   - Name: The human-readable name for the opcode, e.g. "OP_CONSTANT".
//   - OperandWidths: The number of bytes each operand takes up. Most
//     opcodes have none; the constant loads carry one operand of one or
//     three bytes holding an index into the constant pool.
type OpCodeDefinition struct {
	Name          string
	OperandWidths []int
}

var definitions = map[Opcode]*OpCodeDefinition{
	OP_RETURN: {Name: "OP_RETURN"},
	// a single operand, one byte wide: a constant index in [0, 255]
	OP_CONSTANT: {Name: "OP_CONSTANT", OperandWidths: []int{1}},
	// a single operand, three little-endian bytes: an index in [0, 2^24-1]
	OP_CONSTANT_LONG: {Name: "OP_CONSTANT_LONG", OperandWidths: []int{3}},
	OP_NIL:           {Name: "OP_NIL"},
	OP_TRUE:          {Name: "OP_TRUE"},
	OP_FALSE:         {Name: "OP_FALSE"},
	OP_NEGATE:        {Name: "OP_NEGATE"},
	OP_ADD:           {Name: "OP_ADD"},
	OP_SUBTRACT:      {Name: "OP_SUBTRACT"},
	OP_MULTIPLY:      {Name: "OP_MULTIPLY"},
	OP_DIVIDE:        {Name: "OP_DIVIDE"},
	OP_NOT:           {Name: "OP_NOT"},
	OP_EQUAL:         {Name: "OP_EQUAL"},
	OP_GREATER:       {Name: "OP_GREATER"},
	OP_LESS:          {Name: "OP_LESS"},
}

// Get retrieves the definition of an opcode. An unknown opcode byte is a
// corrupted instruction stream, which the caller treats as fatal.
func Get(op Opcode) (*OpCodeDefinition, error) {
	def, ok := definitions[op]
	if !ok {
		return nil, fmt.Errorf("opcode %d undefined", byte(op))
	}
	return def, nil
}

// Width returns the total instruction length in bytes for an opcode: one
// for the opcode itself plus its operand widths.
func Width(op Opcode) (int, error) {
	def, err := Get(op)
	if err != nil {
		return 0, err
	}
	length := 1
	for _, w := range def.OperandWidths {
		length += w
	}
	return length, nil
}
