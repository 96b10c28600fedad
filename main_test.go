package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "program.lox")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func TestRunFileExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected int
	}{
		{name: "success", source: "1 + 2 * 3", expected: 0},
		{name: "compile error", source: "(1 + 2", expected: exitCompile},
		{name: "runtime error", source: `-"foo"`, expected: exitRuntime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, runFile(writeSource(t, tt.source), false))
		})
	}
}

func TestRunFileMissingFile(t *testing.T) {
	code := runFile(filepath.Join(t.TempDir(), "nope.lox"), false)
	assert.NotEqual(t, 0, code)
}

func TestIsSubcommand(t *testing.T) {
	assert.True(t, isSubcommand("run"))
	assert.True(t, isSubcommand("repl"))
	assert.True(t, isSubcommand("disasm"))
	assert.False(t, isSubcommand("program.lox"))
}
