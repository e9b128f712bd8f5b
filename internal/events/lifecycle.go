package events

import (
	"encoding/json"
	"time"
)

const LifecycleTopic = "ems.records.lifecycle.v1"

const (
	AggregateFormTemplate = "form_template"
	AggregateEmployee     = "employee"
)

const (
	FormTemplateCreated    = "form_template_created"
	FormTemplateUpdated    = "form_template_updated"
	FormTemplateDuplicated = "form_template_duplicated"
	FormTemplateDeleted    = "form_template_deleted"
	EmployeeCreated        = "employee_created"
	EmployeeUpdated        = "employee_updated"
	EmployeeDeleted        = "employee_deleted"
)

// LifecycleEvent is the payload of every message on LifecycleTopic.
type LifecycleEvent struct {
	EventType      string    `json:"event_type"`
	RequestID      string    `json:"request_id,omitempty"`
	AggregateType  string    `json:"aggregate_type"`
	AggregateID    string    `json:"aggregate_id"`
	FormTemplateID string    `json:"form_template_id,omitempty"`
	SourceID       string    `json:"source_id,omitempty"`
	ActorID        string    `json:"actor_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func Decode(raw []byte) (LifecycleEvent, error) {
	var e LifecycleEvent
	err := json.Unmarshal(raw, &e)
	return e, err
}
