package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"ai-query-router-be/internal/bootstrap"
	"ai-query-router-be/internal/config"
	"ai-query-router-be/internal/entity"
	"ai-query-router-be/pkg/ai/router"
)

var (
	routeUser    string
	routeSession string
)

var routeCmd = &cobra.Command{
	Use:   "route [text...]",
	Short: "Classify and answer one query in process",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if routeSession == "" {
			routeSession = uuid.NewString()
		}
		return withContainer(cmd.Context(), func(cfg *config.Config, c *bootstrap.Container) error {
			res := c.Router.Route(cmd.Context(), text, routeUser, routeSession)
			printResult(res)
			return nil
		})
	},
}

func init() {
	routeCmd.Flags().StringVar(&routeUser, "user", "cli", "user id")
	routeCmd.Flags().StringVar(&routeSession, "session", "", "session UUID (random when empty)")
}

func printResult(res *router.Result) {
	if d := res.Decision; d != nil {
		color.Cyan("Category:   %s (%.1f%%)", d.PrimaryCategory, d.PrimaryConfidence*100)
		if d.HasSecondary() {
			fmt.Printf("Runner-up:  %s (%.1f%%)\n", *d.SecondaryCategory, *d.SecondaryConfidence*100)
		}
		fmt.Printf("Reasoning:  %s\n", d.Reasoning)
		if d.FallbackTriggered {
			color.Yellow("Fallback:   triggered")
		}
	}
	if res.HandledBy != nil {
		fmt.Printf("Handled by: %s\n", *res.HandledBy)
	}
	fmt.Printf("Latency:    %dms\n\n", res.LatencyMs)

	switch res.Outcome {
	case entity.OutcomeAnswered:
		color.Green("%s", res.Reply())
	case entity.OutcomeClarification:
		color.Yellow("%s", res.Reply())
	default:
		color.Red("%s", res.Reply())
		if res.Error != "" {
			color.Red("(%s)", res.Error)
		}
	}
}
