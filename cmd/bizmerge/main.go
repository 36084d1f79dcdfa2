// Package main provides the entry point for the bizmerge CLI tool.
package main

import (
	"context"
	"os"

	"github.com/agentstation/bizmerge/cmd/bizmerge/app"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	application, err := app.New(version, commit, date, builtBy)
	if err != nil {
		app.ExitOnError(err)
	}

	// SIGINT/SIGTERM cancel the run; nothing is written on cancellation
	ctx, cancel := app.ContextWithSignals(context.Background())
	defer cancel()

	if err := application.Execute(ctx, os.Args[1:]); err != nil {
		cancel()
		app.ExitOnError(err)
	}
}
