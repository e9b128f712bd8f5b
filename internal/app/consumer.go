package app

import (
	"context"

	"github.com/Abhinav7558/employee-management-system/internal/bootstrap"
	"github.com/Abhinav7558/employee-management-system/internal/config"
	"github.com/Abhinav7558/employee-management-system/internal/events"
	"github.com/Abhinav7558/employee-management-system/internal/messaging/kafka/consumer"
	"github.com/Abhinav7558/employee-management-system/internal/shared/connection"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// RunConsumer writes an audit entry for every lifecycle event until
// SIGINT/SIGTERM.
func RunConsumer(cfg *config.Config, logger *zap.Logger) error {
	log := logger.Named("app.consumer")

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

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{cfg.Kafka.Broker},
		Topic:          events.LifecycleTopic,
		GroupID:        cfg.Kafka.GroupID,
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go consumer.ConsumeLifecycleEvents(ctx, reader, bootstrap.NewDBAuditLogger(gormDB, logger), logger)

	waitForShutdown(log, "CONSUMER_SHUTDOWN")
	cancel()
	return nil
}
