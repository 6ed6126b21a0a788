package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/Kevin-Prichard/csv2sql/internal/cli"
	"github.com/Kevin-Prichard/csv2sql/pkg/csv2sql"
)

func main() {
	// Recover from panics to ensure graceful exits with stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(csv2sql.ExitPanic)
		}
	}()

	if err := cli.Execute(); err != nil {
		os.Exit(csv2sql.ExitCodeForError(err))
	}
}
