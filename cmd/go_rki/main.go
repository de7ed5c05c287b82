package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/andrei-cloud/go_rki/internal/commands/cli"
)

// main builds the command tree and exits non-zero on any failure.
func main() {
	root, err := cli.NewRootCommand()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := root.Execute(); err != nil {
		if !errors.Is(err, cli.ErrReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
