package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"ai-query-router-be/internal/bootstrap"
	"ai-query-router-be/internal/config"
	"ai-query-router-be/internal/telegram"
	"ai-query-router-be/pkg/database"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	if cfg.App.TelegramToken == "" {
		log.Fatal("Error: TELEGRAM_TOKEN is not set")
	}

	var gormDB *gorm.DB
	if cfg.NeedsDatabase() {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		defer database.Close(db)
		gormDB = db
	}

	container, err := bootstrap.NewContainer(ctx, cfg, gormDB)
	if err != nil {
		log.Panicf("Unable to bootstrap: %v", err)
	}
	defer container.Close()

	bot, err := telegram.New(cfg.App.TelegramToken, container.Router, container.Logger)
	if err != nil {
		log.Panicf("Unable to start telegram bot: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return container.Janitor.Start(gctx)
	})
	g.Go(func() error {
		return container.Hub.Run(gctx)
	})
	g.Go(func() error {
		log.Println("Telegram bot is polling for updates")
		return bot.Start(gctx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("Bot stopped: %v", err)
	}
}
