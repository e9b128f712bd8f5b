package bootstrap

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type auditRow struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Action     string         `gorm:"column:action"`
	Message    string         `gorm:"column:message"`
	RequestID  *string        `gorm:"column:request_id"`
	ActorID    *uuid.UUID     `gorm:"column:actor_id;type:uuid"`
	TargetType *string        `gorm:"column:target_type"`
	TargetID   *uuid.UUID     `gorm:"column:target_id;type:uuid"`
	Meta       datatypes.JSON `gorm:"column:meta"`
	CreatedAt  time.Time      `gorm:"column:created_at"`
}

func (auditRow) TableName() string { return "audit_logs" }

// DBAuditLogger persists entries to audit_logs. Log only logs write
// failures; Write returns them.
type DBAuditLogger struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewDBAuditLogger(db *gorm.DB, logger ...*zap.Logger) *DBAuditLogger {
	l := zap.L()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &DBAuditLogger{db: db, logger: l.Named("audit.db")}
}

func (l *DBAuditLogger) Log(ctx context.Context, entry AuditLog) {
	if err := l.Write(ctx, entry); err != nil {
		l.logger.Error("write audit entry failed",
			zap.String("action", entry.Action),
			zap.String("target_id", entry.TargetID),
			zap.Error(err),
		)
	}
}

func (l *DBAuditLogger) Write(ctx context.Context, entry AuditLog) error {
	row := auditRow{
		ID:         uuid.New(),
		Action:     entry.Action,
		Message:    entry.Message,
		RequestID:  optional(entry.RequestID),
		ActorID:    optionalUUID(entry.ActorID),
		TargetType: optional(entry.TargetType),
		TargetID:   optionalUUID(entry.TargetID),
		CreatedAt:  time.Now().UTC(),
	}
	if len(entry.Meta) > 0 {
		meta, err := json.Marshal(entry.Meta)
		if err != nil {
			return err
		}
		row.Meta = datatypes.JSON(meta)
	}
	return l.db.WithContext(ctx).Create(&row).Error
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalUUID(s string) *uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}
