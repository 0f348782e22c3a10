package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nsqio/go-nsq"

	"ragcore/internal/app"
	"ragcore/internal/config"
	"ragcore/internal/logger"
)

func main() {
	slog.SetDefault(slog.New(logger.NewContextHandler(slog.NewJSONHandler(os.Stdout, nil))))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer deps.DB.Close()
	defer deps.Embedder.Close()
	defer deps.Generator.Close()

	a, err := app.New(cfg, deps.Store, deps.Embedder, deps.Generator, deps.NSQProducer)
	if err != nil {
		slog.Error("failed to build app", "error", err)
		os.Exit(1)
	}

	if cfg.EnableReingestWorker {
		consumer, err := nsq.NewConsumer(config.TopicReingest, "backend", nsq.NewConfig())
		if err != nil {
			slog.Error("failed to create reingest consumer", "error", err)
			os.Exit(1)
		}
		consumer.AddHandler(nsq.HandlerFunc(func(m *nsq.Message) error {
			return a.ReingestConsumer.HandleMessage(m)
		}))
		if err := consumer.ConnectToNSQLookupd(cfg.NSQLookupd); err != nil {
			slog.Error("failed to connect to NSQLookupd", "error", err)
		} else {
			slog.Info("reingest consumer connected", "topic", config.TopicReingest)
		}
		defer consumer.Stop()
	}

	if err := a.Run(ctx); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
