package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDBCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database utilities",
	}
	cmd.AddCommand(newDBHealthCommand(ctx))
	return cmd
}

func newDBHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check database integrity and report totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			health, err := st.CheckHealth(cmd.Context())
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Database: %s\n", health.DBPath)
			fmt.Fprintf(out, "Exists: %v, readable: %v, schema present: %v\n",
				health.DatabaseExists, health.DatabaseReadable, health.TableExists)
			fmt.Fprintf(out, "Integrity check passed: %v\n", health.IntegrityCheck)
			fmt.Fprintf(out, "Videos stored: %d\n", health.TotalVideos)
			if err != nil {
				return fmt.Errorf("database unhealthy: %w", err)
			}
			return nil
		},
	}
}
