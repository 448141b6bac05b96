package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/postings-codec/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/postings-codec/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting indexer service",
		"codec", cfg.Indexer.Codec,
		"data_dir", cfg.Indexer.DataDir,
	)

	var opts []indexer.Option
	if cfg.Metrics.Enabled {
		opts = append(opts, indexer.WithMetrics(metrics.New(prometheus.DefaultRegisterer)))
	}
	engine, err := indexer.NewEngine(cfg.Indexer, opts...)
	if err != nil {
		slog.Error("failed to create indexer engine", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := engine.Close(); err != nil {
			slog.Error("closing engine", "error", err)
		}
	}()

	if cfg.Metrics.Enabled {
		checker := health.NewChecker()
		checker.Register("codec", health.CodecCheck(cfg.Indexer.Codec))
		checker.Register("segments", health.DirCheck(cfg.Indexer.DataDir))
		shutdownServer := metrics.StartServer(cfg.Metrics.Port, map[string]http.Handler{
			"/readyz": checker.ReadyHandler(),
		})
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownServer(ctx); err != nil {
				slog.Error("metrics server shutdown", "error", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	engine.StartFlushLoop(ctx)

	kafkaConsumer := kafka.NewConsumer(cfg.Kafka, consumer.HandleMessage(engine))
	indexConsumer := consumer.New(kafkaConsumer)

	slog.Info("indexer service ready, consuming from kafka",
		"topic", cfg.Kafka.Topic,
		"group", cfg.Kafka.ConsumerGroup,
	)
	if err := indexConsumer.Start(ctx); err != nil {
		slog.Error("consumer error", "error", err)
	}
	slog.Info("indexer service stopped")
}
