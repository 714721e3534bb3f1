// File: cmd/runeforge/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/xkilldash9x/runeforge/cmd"
	"github.com/xkilldash9x/runeforge/internal/observability"
	"github.com/xkilldash9x/runeforge/internal/stackerr"
)

const panicLogFile = "panic.log"

// Function variables so tests can observe the panic handler.
var (
	osWriteFile = os.WriteFile
	osExit      = os.Exit
)

func main() {
	defer handlePanic()

	// Interrupts cancel the command context; selection itself is synchronous.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := exitCode(cmd.Execute(ctx))
	stop()
	osExit(code)
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	if err == nil || errors.Is(err, context.Canceled) {
		return 0
	}
	return stackerr.ExitCode(err)
}

// handlePanic records an unexpected panic with its stack in panicLogFile and
// exits non-zero.
func handlePanic() {
	r := recover()
	if r == nil {
		return
	}
	observability.Sync()

	panicMessage := fmt.Sprintf("panic: %v\n\n%s", r, debug.Stack())
	if err := osWriteFile(panicLogFile, []byte(panicMessage), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: Failed to write panic log: %v\n", err)
		fmt.Fprintf(os.Stderr, "Panic details:\n%s\n", panicMessage)
		osExit(stackerr.ExitInput)
		return
	}

	fmt.Fprintf(os.Stderr, "runeforge crashed: %v\nDetails logged to %s\n", r, panicLogFile)
	osExit(stackerr.ExitInput)
}
