package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ems"

var (
	// HTTP

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Domain

	TemplateWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "form_template_writes_total",
			Help:      "Committed form template writes by operation",
		},
		[]string{"operation"},
	)

	RecordWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "employee_record_writes_total",
			Help:      "Committed employee record writes by operation",
		},
		[]string{"operation"},
	)

	// FieldViolations counts rejected field values per field type and rule.
	FieldViolations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_violations_total",
			Help:      "Rejected field values by field type and rule",
		},
		[]string{"field_type", "rule"},
	)

	TemplateCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "form_template_cache_lookups_total",
			Help:      "Template detail cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)

	// Messaging

	OutboxPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_published_total",
			Help:      "Outbox publish attempts by event type and result",
		},
		[]string{"event_type", "result"},
	)

	AuditEntries = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_entries_total",
			Help:      "Audit entries written from lifecycle events",
		},
	)
)
