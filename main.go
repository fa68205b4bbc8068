// Coursereg - a multi-client course registration server and its
// interactive client.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"coursereg/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "coursereg: %v\n", err)
		os.Exit(1)
	}
}
