package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"rlox/chunk"
	"rlox/compiler"
	"rlox/heap"

	"github.com/google/subcommands"
)

// disasmCmd compiles a source file and writes the bytecode in a human
// readable listing, or as raw hexadecimal.
type disasmCmd struct {
	output string
	hex    bool
}

func (*disasmCmd) Name() string     { return "disasm" }
func (*disasmCmd) Synopsis() string { return "Compile a source file and disassemble the bytecode" }
func (*disasmCmd) Usage() string {
	return `rlox disasm [-o <file>] [-hex] <path>:
  Compile the file at <path> and print the bytecode listing.
`
}

func (cmd *disasmCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.output, "o", "", "Write the listing to a file instead of stdout")
	f.BoolVar(&cmd.hex, "hex", false, "Dump the raw code bytes as hexadecimal")
}

func (cmd *disasmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitStatus(exitUsage)
	}
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	ch := chunk.New()
	if err := compiler.Compile(string(data), ch, heap.New(), os.Stderr); err != nil {
		return subcommands.ExitStatus(exitCompile)
	}

	var w io.Writer = os.Stdout
	if cmd.output != "" {
		fDescriptor, err := os.Create(cmd.output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "💥 Error creating listing file: %s\n", err.Error())
			return subcommands.ExitFailure
		}
		defer fDescriptor.Close()
		w = fDescriptor
	}

	if cmd.hex {
		if err := ch.DumpHex(w); err != nil {
			fmt.Fprintf(os.Stderr, "💥 Dump bytecode error: %s\n", err.Error())
			return subcommands.ExitFailure
		}
		fmt.Fprintln(w)
		return subcommands.ExitSuccess
	}

	if err := ch.Disassemble(w, filepath.Base(path)); err != nil {
		fmt.Fprintf(os.Stderr, "💥 Bytecode disassemble error: %s\n", err.Error())
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
