package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ai-query-router-be/internal/bootstrap"
	"ai-query-router-be/internal/config"
)

var handlersCmd = &cobra.Command{
	Use:   "handlers",
	Short: "Show which category handlers started and are available",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd.Context(), func(cfg *config.Config, c *bootstrap.Container) error {
			for _, h := range c.HandlerService.List() {
				line := fmt.Sprintf("%d. %-22s %-10s timeout=%dms retries=%d", h.Priority, h.Category, h.Implementation, h.TimeoutMs, h.RetryCount)
				switch {
				case h.Available:
					color.Green("%s available", line)
				case h.Instantiated:
					color.Yellow("%s disabled", line)
				default:
					color.Red("%s failed: %s", line, h.Error)
				}
			}
			return nil
		})
	},
}
