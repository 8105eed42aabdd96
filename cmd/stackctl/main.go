// stackctl is the operator CLI for the AFRO CEO Agent backend
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Version information (will be set during build)
var (
	Version = "dev"
	Commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand(newApp()).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
