// Package main is the entry point for helixctl CLI
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"helix/internal/cli"
	"helix/internal/output"
)

// version is set at build time via ldflags
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.NewRootCommand(version).ExecuteContext(ctx)
	stop()

	if err != nil {
		output.NewPrinter(output.PrinterOptions{}).Error("%v", err)
		os.Exit(1)
	}
}
