package chunk

import (
	"fmt"
	"io"
)

// DisassembleInstruction pretty-prints the instruction at offset and
// returns the offset of the next instruction so the caller can iterate
// the stream. The listing shows the byte offset, the source line (or '|'
// when it matches the previous instruction's line), the opcode name and,
// for constant loads, the operand index and the constant it names.
func (c *Chunk) DisassembleInstruction(w io.Writer, offset int) (int, error) {
	fmt.Fprintf(w, "%04d ", offset)
	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		fmt.Fprintf(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", c.Lines[offset])
	}

	op := Opcode(c.Code[offset])
	def, err := Get(op)
	if err != nil {
		return 0, err
	}

	switch op {
	case OP_CONSTANT:
		index := int(c.Code[offset+1])
		fmt.Fprintf(w, "%-16s %4d '%s'\n", def.Name, index, c.Constants[index])
		return offset + 2, nil
	case OP_CONSTANT_LONG:
		index := c.ReadU24(offset + 1)
		fmt.Fprintf(w, "%-16s %4d '%s'\n", def.Name, index, c.Constants[index])
		return offset + 4, nil
	default:
		fmt.Fprintf(w, "%s\n", def.Name)
		return offset + 1, nil
	}
}

// Disassemble writes the whole chunk as a listing, one instruction per
// line, preceded by a header naming the chunk.
func (c *Chunk) Disassemble(w io.Writer, name string) error {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		next, err := c.DisassembleInstruction(w, offset)
		if err != nil {
			return err
		}
		offset = next
	}
	return nil
}

// DumpHex writes the raw instruction bytes encoded as hexadecimal, so the
// bytecode can be inspected in a text editor.
func (c *Chunk) DumpHex(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%x", c.Code)
	return err
}
