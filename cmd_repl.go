package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"rlox/heap"
	"rlox/vm"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"
)

// replCmd starts an interactive session.
type replCmd struct {
	trace bool
}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive session" }
func (*replCmd) Usage() string {
	return `rlox repl [-trace]:
  Read one expression per line and print its result.
`
}

func (cmd *replCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.trace, "trace", false, "Print the stack and each disassembled instruction while executing")
}

func (cmd *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return repl(cmd.trace)
}

// repl reads lines until an empty line or end of input. Each line is
// interpreted independently against one shared heap, so interned strings
// persist across lines. Diagnostics are printed but never terminate the
// loop.
func repl(trace bool) subcommands.ExitStatus {
	rl, err := readline.New("> ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 %s\n", err.Error())
		return subcommands.ExitFailure
	}
	defer rl.Close()

	machine := vm.New(heap.New(), vm.WithTrace(trace))

	for {
		line, err := rl.Readline()
		if err != nil {
			// interrupted or end of input
			return subcommands.ExitSuccess
		}
		if line == "" {
			return subcommands.ExitSuccess
		}

		// errors were already reported; the next line starts fresh
		machine.Interpret(line)
	}
}
