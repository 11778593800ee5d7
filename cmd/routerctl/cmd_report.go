package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ai-query-router-be/internal/bootstrap"
	"ai-query-router-be/internal/config"
	"ai-query-router-be/internal/service"
)

var reportWindow time.Duration

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarise the decision log over a trailing window",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd.Context(), func(cfg *config.Config, c *bootstrap.Container) error {
			if cfg.App.DecisionLogStore != "postgres" {
				color.Yellow("Decision log store is %q; only this process's records are visible.", cfg.App.DecisionLogStore)
			}
			s, err := c.ReportService.Summary(cmd.Context(), reportWindow)
			if err != nil {
				return err
			}

			color.Cyan("Since %s (%s)", s.Since.Format(time.RFC3339), s.Window)
			fmt.Printf("Queries:        %d (answered %d, clarification %d, unanswered %d)\n",
				s.Total, s.Answered, s.Clarification, s.Unanswered)
			fmt.Printf("Accuracy:       %.1f%%\n", s.Accuracy*100)
			fmt.Printf("Fallback rate:  %.1f%%\n", s.FallbackRate*100)
			fmt.Printf("Override rate:  %.1f%%\n", s.OverrideRate*100)
			fmt.Printf("Confidence:     %.2f mean\n", s.MeanConfidence)
			fmt.Printf("Handler time:   %.0fms mean\n", s.MeanHandlerLatencyMs)

			names := make([]string, 0, len(s.Categories))
			for name := range s.Categories {
				names = append(names, name)
			}
			sort.Slice(names, func(i, j int) bool { return s.Categories[names[i]] > s.Categories[names[j]] })
			for _, name := range names {
				fmt.Printf("  %-22s %d\n", name, s.Categories[name])
			}
			return nil
		})
	},
}

func init() {
	reportCmd.Flags().DurationVar(&reportWindow, "window", service.DefaultReportWindow, "trailing window")
}
