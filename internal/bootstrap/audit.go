package bootstrap

import "context"

// AuditLog is one entry of the audit trail.
type AuditLog struct {
	Action     string
	Message    string
	RequestID  string
	ActorID    string
	TargetType string
	TargetID   string
	Meta       map[string]any
}

type AuditLogger interface {
	Log(ctx context.Context, entry AuditLog)
}
