package bootstrap_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/Abhinav7558/employee-management-system/internal/bootstrap"
	"github.com/Abhinav7558/employee-management-system/internal/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestNewLogger(t *testing.T) {
	logger, err := bootstrap.NewLogger(config.LogConfig{Level: "debug", Format: "json"}, config.AppConfig{Env: "production"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))
	assert.Same(t, logger, zap.L())

	_, err = bootstrap.NewLogger(config.LogConfig{Level: "loud"}, config.AppConfig{})
	assert.Error(t, err)

	_, err = bootstrap.NewLogger(config.LogConfig{Level: "info", Format: "xml"}, config.AppConfig{})
	assert.Error(t, err)
}

func TestDBAuditLogger_Write(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "audit_logs"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = bootstrap.NewDBAuditLogger(db, zap.NewNop()).Write(context.Background(), bootstrap.AuditLog{
		Action:     "employee_created",
		TargetType: "employee",
		TargetID:   "5f0c3a4e-7b0e-4a8e-9b5e-0a4f6e9d2c11",
		Meta:       map[string]any{"form_template_id": "x"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
