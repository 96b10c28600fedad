package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

// Exit codes for the public CLI contract.
const (
	exitUsage   = 64
	exitCompile = 65
	exitRuntime = 70
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&replCmd{}, "")
	subcommands.Register(&runCmd{}, "")
	subcommands.Register(&disasmCmd{}, "")

	flag.Parse()
	args := flag.Args()

	// No argument starts the REPL. A first argument that names a
	// subcommand dispatches to it (the flag-carrying forms of the same
	// operations); otherwise a single path executes that file.
	switch {
	case len(args) == 0:
		os.Exit(int(repl(false)))
	case isSubcommand(args[0]):
		os.Exit(int(subcommands.Execute(context.Background())))
	case len(args) == 1:
		os.Exit(runFile(args[0], false))
	default:
		fmt.Fprintln(os.Stderr, "Usage: rlox [path]")
		os.Exit(exitUsage)
	}
}

func isSubcommand(name string) bool {
	switch name {
	case "repl", "run", "disasm", "help", "commands", "flags":
		return true
	}
	return false
}
