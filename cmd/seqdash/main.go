/*
PURPOSE:
  Entry point for seqdash.
  Wires OS signals into a context and hands off to the CLI.

REQUIREMENTS:
  User-specified:
  - Single binary for both the terminal runner and the browser dashboard.

  Implementation-discovered:
  - Ctrl-C must stop in-flight batches and the HTTP server cleanly.

ARCHITECTURE INTEGRATION:
  - Calls: internal/cli.ExecuteContext()

ERROR HANDLING:
  - Exit code 1 on any error returned by the CLI. The CLI has already
    rendered user-facing errors, so only unexpected ones are printed here.

IMPLEMENTATION RULES:
  - Keep main() minimal. All logic belongs in internal/ packages.

USAGE:
  go build -o seqdash ./cmd/seqdash
  ./seqdash serve
  ./seqdash run --model nanomelt --file seqs.csv

SELF-HEALING INSTRUCTIONS:
  - If CLI fails to start, check internal/cli/root.go definition.

RELATED FILES:
  - internal/cli/root.go

MAINTENANCE:
  - Update when changing high-level signal handling.
*/

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/daryltucker/seqdash/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !cli.Reported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
