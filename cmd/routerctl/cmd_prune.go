package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ai-query-router-be/internal/bootstrap"
	"ai-query-router-be/internal/config"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete decision log records past the retention period",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd.Context(), func(cfg *config.Config, c *bootstrap.Container) error {
			deleted, cutoff, err := c.Janitor.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			if cutoff.IsZero() {
				color.Yellow("Retention is disabled (DECISION_RETENTION_DAYS <= 0)")
				return nil
			}
			color.Green("Deleted %d records created before %s", deleted, cutoff.Format("2006-01-02 15:04:05"))
			return nil
		})
	},
}
