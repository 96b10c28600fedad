package vm

import "fmt"

// RuntimeError halts execution immediately. It records the diagnostic and
// the source line of the instruction that failed.
type RuntimeError struct {
	Message string
	Line    int
}

func (e RuntimeError) Error() string {
	return fmt.Sprintf("💥 RuntimeError: %s [line %d]", e.Message, e.Line)
}
