// Command cockpit is the options analytics CLI and HTTP server.
package main

import (
	"context"
	"fmt"
	"os"

	"options-cockpit/internal/cli"
)

func main() {
	root := cli.NewRootCmd(&cli.App{})
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
