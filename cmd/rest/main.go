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
	"ai-query-router-be/internal/server"
	"ai-query-router-be/internal/tracer"
	"ai-query-router-be/pkg/database"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg := config.Load()

	shutdownTracer := tracer.InitTracer(tracer.Options{
		Enabled:     cfg.App.OtelEnabled,
		Environment: cfg.App.Environment,
		SampleRatio: cfg.App.OtelSampleRatio,
	})
	defer shutdownTracer(context.Background())

	// 2. Initialize Database when a component needs it
	var gormDB *gorm.DB
	if cfg.NeedsDatabase() {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, !cfg.IsProduction())
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		defer database.Close(db)
		gormDB = db
	}

	// 3. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(ctx, cfg, gormDB)
	if err != nil {
		log.Panicf("Unable to bootstrap: %v", err)
	}
	defer container.Close()

	// 4. Background services and server
	srv := server.New(cfg, container)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return container.ConsumerService.Consume(gctx)
	})
	g.Go(func() error {
		return container.Janitor.Start(gctx)
	})
	g.Go(func() error {
		return container.Hub.Run(gctx)
	})
	g.Go(func() error {
		return srv.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
