// ./main.go
package main

import (
	"context"
	"os"

	"github.com/xkilldash9x/runeforge/cmd"
	"github.com/xkilldash9x/runeforge/internal/stackerr"
)

// main is the entry point for `go run .`; cmd/runeforge is the installed binary.
func main() {
	if err := cmd.Execute(context.Background()); err != nil {
		os.Exit(stackerr.ExitCode(err))
	}
}
