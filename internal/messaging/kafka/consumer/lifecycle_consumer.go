package consumer

import (
	"context"
	"strings"

	"github.com/Abhinav7558/employee-management-system/internal/bootstrap"
	"github.com/Abhinav7558/employee-management-system/internal/events"
	"github.com/Abhinav7558/employee-management-system/internal/metrics"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the subset of *kafkago.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// AuditWriter persists one audit entry. *bootstrap.DBAuditLogger satisfies it.
type AuditWriter interface {
	Write(ctx context.Context, entry bootstrap.AuditLog) error
}

// ConsumeLifecycleEvents turns every lifecycle event into an audit entry.
// Undecodable messages are committed and skipped. A failed write leaves the
// offset uncommitted so the message is redelivered after a rebalance.
func ConsumeLifecycleEvents(
	ctx context.Context,
	reader MessageReader,
	audit AuditWriter,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.lifecycle")
	log.Info("lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("lifecycle consumer stopped")
				return
			}
			log.Error("fetch lifecycle message failed", zap.Error(err))
			continue
		}

		event, err := events.Decode(msg.Value)
		if err != nil || event.EventType == "" {
			log.Error("decode lifecycle event failed",
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if err := audit.Write(ctx, ToAuditLog(event, msg)); err != nil {
			log.Error("write audit entry failed",
				zap.String("event_type", event.EventType),
				zap.String("aggregate_id", event.AggregateID),
				zap.Error(err),
			)
			continue
		}
		metrics.AuditEntries.Inc()

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit lifecycle message failed", zap.Error(err))
			continue
		}

		log.Debug("audit entry written",
			zap.String("event_type", event.EventType),
			zap.String("aggregate_id", event.AggregateID),
		)
	}
}

func ToAuditLog(event events.LifecycleEvent, msg kafkago.Message) bootstrap.AuditLog {
	meta := map[string]any{
		"partition":   msg.Partition,
		"offset":      msg.Offset,
		"occurred_at": event.OccurredAt,
	}
	if event.FormTemplateID != "" {
		meta["form_template_id"] = event.FormTemplateID
	}
	if event.SourceID != "" {
		meta["source_id"] = event.SourceID
	}

	return bootstrap.AuditLog{
		Action:     strings.ToUpper(event.EventType),
		Message:    strings.ReplaceAll(event.EventType, "_", " "),
		RequestID:  event.RequestID,
		ActorID:    event.ActorID,
		TargetType: event.AggregateType,
		TargetID:   event.AggregateID,
		Meta:       meta,
	}
}
