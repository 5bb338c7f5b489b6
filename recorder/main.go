package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/imkonsowa/paragourmet/config"
	"github.com/imkonsowa/paragourmet/logger"
)

func main() {
	configFile := flag.String("config", config.DefaultConfigFile, "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(err)
	}
	if err := logger.Initialize(cfg.Log.JSON); err != nil {
		panic(err)
	}
	defer logger.Sync()

	log := logger.Named("recorder")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	nc, err := NewNats(cfg.Nats, log)
	if err != nil {
		log.Fatalw("failed to connect to nats", "error", err)
	}
	defer nc.Close()

	pg, err := NewPg(cfg.Postgres.ConnStr())
	if err != nil {
		log.Fatalw("failed to connect to postgres", "error", err)
	}
	if err := pg.Migrate(ctx); err != nil {
		log.Fatalw("failed to migrate", "error", err)
	}

	handler, err := NewHandler(pg, log)
	if err != nil {
		log.Fatalw("failed to create handler", "error", err)
	}

	workers := cfg.Recorder.Workers
	if workers < 1 {
		workers = 2
	}
	queueSize := cfg.Recorder.QueueSize
	if queueSize < 1 {
		queueSize = 100
	}
	log.Infow("starting recorder", "workers", workers, "queueSize", queueSize, "subject", cfg.Nats.SuggestionsSubject)

	pool := NewWorkerPool(ctx, workers, queueSize, handler.HandleSuggestionEvent, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return nc.Subscribe(gctx, cfg.Nats.SuggestionsSubject, pool)
	})

	if err := g.Wait(); err != nil {
		log.Errorw("shutting down due to error", "error", err)
	} else {
		log.Infow("shutting down")
	}

	pool.Stop()
	pool.Wait()
}
