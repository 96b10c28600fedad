package compiler

// CompileError is the failure result of a compilation. The individual
// diagnostics have already been written to the error output by the time
// it is returned.
type CompileError struct{}

func (e CompileError) Error() string {
	return "💥 CompileError: compilation failed"
}
