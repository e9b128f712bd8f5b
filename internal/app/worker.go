package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/Abhinav7558/employee-management-system/internal/bootstrap"
	"github.com/Abhinav7558/employee-management-system/internal/config"
	"github.com/Abhinav7558/employee-management-system/internal/messaging/kafka"
	"github.com/Abhinav7558/employee-management-system/internal/messaging/kafka/producer"
	"github.com/Abhinav7558/employee-management-system/internal/shared/connection"

	"go.uber.org/zap"
)

const kafkaRetries = 5

var errKafkaBrokerRequired = errors.New("kafka.broker is required")

// RunWorker relays pending outbox events to Kafka until SIGINT/SIGTERM.
func RunWorker(cfg *config.Config, logger *zap.Logger) error {
	log := logger.Named("app.worker")

	if cfg.Kafka.Broker == "" {
		return errKafkaBrokerRequired
	}

	gormDB, err := connection.ConnectGORMWithRetry(cfg.Database, logger)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	kafkaWriter, err := connection.ConnectKafkaWithRetry(cfg.Kafka.Broker, kafkaRetries, logger)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	outboxRepo := kafka.NewOutboxRepository(sqlDB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go producer.ProcessOutboxEvents(ctx, outboxRepo, kafkaWriter, logger, cfg.Kafka.PollInterval)

	waitForShutdown(log, "WORKER_SHUTDOWN")
	cancel()
	return nil
}

func waitForShutdown(log *zap.Logger, action string) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	bootstrap.NewStdoutAuditLogger(log).Log(context.Background(), bootstrap.AuditLog{
		Action:  action,
		Message: "process is shutting down",
		Meta:    map[string]any{"signal": sig.String()},
	})
}
