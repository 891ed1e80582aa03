// Command worker consumes domain events from RabbitMQ and appends them to
// the audit log.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/iliyamo/ticketflow/internal/config"
	"github.com/iliyamo/ticketflow/internal/queue"
	"github.com/iliyamo/ticketflow/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadWorker(ctx)
	if err != nil {
		boot := logger.Init(logger.Options{Service: "ticketflow-worker"})
		boot.Fatal().Err(err).Msg("configuration")
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Service: "ticketflow-worker"})
	if cfg.Broker.URL == "" {
		log.Fatal().Msg("RABBITMQ_URL is empty, nothing to consume")
	}

	audit, closer, err := queue.OpenAuditLog(cfg.Broker.AuditPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Broker.AuditPath).Msg("open audit log")
	}
	defer closer.Close()

	consumer := &queue.AuditConsumer{
		URL:   cfg.Broker.URL,
		Queue: cfg.Broker.Queue,
		Audit: audit,
		Log:   log,
	}
	log.Info().Str("queue", cfg.Broker.Queue).Str("audit_path", cfg.Broker.AuditPath).Msg("audit worker started")
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("audit worker stopped")
	}
}
