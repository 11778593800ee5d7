package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ai-query-router-be/internal/config"
	"ai-query-router-be/internal/constant"
	"ai-query-router-be/internal/entity"
	"ai-query-router-be/pkg/events"
	pktNats "ai-query-router-be/pkg/nats"
)

var tailDurable string

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Stream routing events from NATS",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		sub, err := pktNats.NewSubscriber(cfg.App.NatsURL, nil)
		if err != nil {
			return err
		}
		defer sub.Close()

		ctx := cmd.Context()
		err = sub.Subscribe(ctx, events.Subject(constant.EventTypeRoutingDecided), tailDurable,
			func(ctx context.Context, event events.Event) error {
				evt, err := events.AsRoutingDecided(event)
				if err != nil {
					return err
				}
				printEvent(evt)
				return nil
			})
		if err != nil {
			return err
		}

		color.Cyan("Tailing %s on %s (Ctrl+C to stop)", events.Subject(constant.EventTypeRoutingDecided), cfg.App.NatsURL)
		<-ctx.Done()
		return nil
	},
}

func init() {
	tailCmd.Flags().StringVar(&tailDurable, "durable", "", "durable consumer name (ephemeral when empty)")
}

func printEvent(evt events.RoutingDecided) {
	line := fmt.Sprintf("%s %-22s %3.0f%% user=%s", evt.CreatedAt.Format("15:04:05"), evt.PrimaryCategory, evt.Confidence*100, evt.UserId)
	if evt.HandlerCategory != "" && evt.HandlerCategory != evt.PrimaryCategory {
		line += " -> " + evt.HandlerCategory
	}
	line += fmt.Sprintf(" %dms", evt.HandlerLatencyMs)

	switch {
	case evt.Outcome == string(entity.OutcomeClarification):
		color.Yellow("%s clarification", line)
	case evt.Outcome != string(entity.OutcomeAnswered):
		color.Red("%s unanswered", line)
	case evt.FallbackTriggered:
		color.Yellow("%s answered by fallback", line)
	default:
		color.Green("%s answered", line)
	}
}
