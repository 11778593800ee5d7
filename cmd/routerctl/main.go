// Command routerctl drives the query router from a terminal: route a query,
// inspect handlers, read the decision log summary, prune it, or tail routing events.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"ai-query-router-be/internal/bootstrap"
	"ai-query-router-be/internal/config"
	"ai-query-router-be/pkg/database"
)

var rootCmd = &cobra.Command{
	Use:           "routerctl",
	Short:         "Operate the AI query router",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd.AddCommand(routeCmd, handlersCmd, reportCmd, pruneCmd, tailCmd)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// withContainer builds the engine for one command and tears it down afterwards
func withContainer(ctx context.Context, fn func(cfg *config.Config, c *bootstrap.Container) error) error {
	cfg := config.Load()

	var db *gorm.DB
	if cfg.NeedsDatabase() {
		conn, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer database.Close(conn)
		db = conn
	}

	c, err := bootstrap.NewContainer(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer c.Close()

	return fn(cfg, c)
}
