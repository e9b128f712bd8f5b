package kafka_test

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"

	"github.com/Abhinav7558/employee-management-system/internal/events"
	"github.com/Abhinav7558/employee-management-system/internal/messaging/kafka"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLifecycleEvent(t *testing.T) {
	ev, err := kafka.NewLifecycleEvent(events.LifecycleEvent{
		EventType:     events.EmployeeCreated,
		RequestID:     "req-1",
		AggregateType: events.AggregateEmployee,
		AggregateID:   "emp-1",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, events.LifecycleTopic, ev.Topic)
	assert.Equal(t, kafka.OutboxStatusPending, ev.Status)
	assert.Equal(t, "req-1", ev.RequestID)
	assert.NoError(t, kafka.ValidateOutboxEvent(ev))

	decoded, err := events.Decode(ev.Payload)
	require.NoError(t, err)
	assert.Equal(t, "emp-1", decoded.AggregateID)
	assert.False(t, decoded.OccurredAt.IsZero())
}

func TestOutboxRepository_CreateWithTx(t *testing.T) {
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ev, err := kafka.NewLifecycleEvent(events.LifecycleEvent{
		EventType:     events.FormTemplateDeleted,
		AggregateType: events.AggregateFormTemplate,
		AggregateID:   "tpl-1",
	})
	require.NoError(t, err)

	sqlMock.ExpectBegin()
	sqlMock.ExpectExec(regexp.QuoteMeta("INSERT INTO outbox_events")).
		WithArgs(ev.ID, ev.RequestID, ev.AggregateType, ev.AggregateID, ev.EventType, ev.Topic, ev.Payload, ev.Status).
		WillReturnResult(driver.RowsAffected(1))
	sqlMock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)

	repo := kafka.NewOutboxRepository(db).WithTx(tx)
	require.NoError(t, repo.Create(context.Background(), ev))
	require.NoError(t, tx.Commit())

	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestOutboxRepository_CreateRejectsInvalid(t *testing.T) {
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	err = kafka.NewOutboxRepository(db).Create(context.Background(), kafka.OutboxEvent{ID: "x"})
	assert.EqualError(t, err, "outbox topic is required")
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}
