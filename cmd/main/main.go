package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Houeta/heidi/internal/cli"
)

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := cli.Execute(ctx)
	stop()

	if err != nil {
		os.Exit(1)
	}
}
