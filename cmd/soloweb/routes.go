package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/soloweb/core/logger"
)

func routesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the routes of the demo application",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			// Listing routes must not need a reachable Redis.
			cfg.Session.Driver = "memory"

			app, cleanup, err := newDemoApp(cmd.Context(), cfg, logger.Discard())
			if err != nil {
				return err
			}
			defer cleanup()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "METHOD\tPATTERN\tNAME")
			for _, r := range app.Routes() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.Method, r.Pattern, r.Name)
			}
			return w.Flush()
		},
	}
}
