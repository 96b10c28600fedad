package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"rlox/compiler"
	"rlox/heap"
	"rlox/vm"

	"github.com/google/subcommands"
)

// runCmd executes a source file on the VM.
type runCmd struct {
	trace bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Execute a source file" }
func (*runCmd) Usage() string {
	return `rlox run [-trace] <path>:
  Compile and execute the file at <path>.
`
}

func (cmd *runCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.trace, "trace", false, "Print the stack and each disassembled instruction while executing")
}

func (cmd *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitStatus(exitUsage)
	}
	return subcommands.ExitStatus(runFile(args[0], cmd.trace))
}

// runFile reads a file, interprets it, and maps the result to the CLI's
// exit codes: 0 on success, 65 on a compile error, 70 on a runtime error.
func runFile(path string, trace bool) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file: %v\n", err)
		return int(subcommands.ExitFailure)
	}

	machine := vm.New(heap.New(), vm.WithTrace(trace))
	err = machine.Interpret(string(data))

	var compileErr compiler.CompileError
	var runtimeErr vm.RuntimeError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &compileErr):
		return exitCompile
	case errors.As(err, &runtimeErr):
		return exitRuntime
	default:
		fmt.Fprintln(os.Stderr, err.Error())
		return int(subcommands.ExitFailure)
	}
}
