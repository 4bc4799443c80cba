// Package main is the entry point for the gophauth command-line client.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/client/cli"
)

// Version information set at build time.
var version = "dev"

func main() {
	cmd := cli.NewRootCmd()
	cmd.Version = version

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
