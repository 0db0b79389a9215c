// Command soloweb serves a demo application built on the soloweb framework.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "soloweb",
		Short: "A minimal HTTP application framework",
		Long: `soloweb serves HTTP/1.1 applications built from routes, blueprints,
middleware and hooks.

This binary runs a demo application that exercises the stock middleware,
the session stores and the health and metrics endpoints.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		serveCmd(),
		routesCmd(),
		versionCmd(),
	)

	return cmd
}
