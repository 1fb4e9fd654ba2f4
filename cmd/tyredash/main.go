package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tyredash/internal/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Execute root command
	if err := commands.ExecuteContext(ctx); err != nil {
		_, err := fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if err != nil {
			fmt.Println("Error writing to stderr:", err)
			return
		}
		stop()
		os.Exit(1)
	}
}
