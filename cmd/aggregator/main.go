package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"content_aggregator/internal/config"
	"content_aggregator/internal/fetch"
	"content_aggregator/internal/filter"
	"content_aggregator/internal/publisher"
	"content_aggregator/internal/scheduler"
	"content_aggregator/internal/server"
	"content_aggregator/internal/service"
	"content_aggregator/internal/source/articlefeed"
	"content_aggregator/internal/source/microblog"
	"content_aggregator/internal/source/searchindex"
	"content_aggregator/internal/source/videosite"
	"content_aggregator/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("aggregator stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = postgres.EnsureSchema(ctx, db)
	cancel()
	if err != nil {
		return err
	}
	logger.Info("connected to database", "host", cfg.Database.Host, "dbname", cfg.Database.DBName)

	contentStore := postgres.NewContentStore(db)
	creatorStore := postgres.NewCreatorStore(db)
	logStore := postgres.NewIngestLogStore(db)
	txManager := postgres.NewTransactionManager(db)

	var pub service.Publisher
	if cfg.RabbitMQ.Enabled {
		rmq, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			return err
		}
		defer rmq.Close()
		pub = rmq
	}

	sources := service.NewSources(
		videosite.New(cfg.Platforms.VideoSite, cfg.Platforms.Timeout, logger),
		microblog.New(cfg.Platforms.Microblog, cfg.Platforms.Timeout, logger),
		searchindex.New(cfg.Platforms.SearchIndex, cfg.Platforms.Timeout, logger),
		articlefeed.New(cfg.Platforms.ArticleFeed, cfg.Platforms.Timeout, logger),
	)

	ingest := service.NewIngestService(
		sources,
		fetch.NewPolicy(cfg.Retry, logger),
		filter.New(cfg.Filter),
		contentStore,
		logStore,
		pub,
		logger,
	)

	sched := scheduler.New(ingest, creatorStore, cfg.Ingest, logger)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	srv := server.New(sched, contentStore, creatorStore, logStore, txManager, logger)
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", "error", err)
	}

	return nil
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
}
