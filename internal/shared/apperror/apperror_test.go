package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Abhinav7558/employee-management-system/internal/shared/apperror"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHTTP(t *testing.T) {
	t.Run("app error keeps status and details", func(t *testing.T) {
		err := apperror.Validation("Invalid input", []string{"a"})
		got := apperror.ToHTTP(fmt.Errorf("wrapped: %w", err))

		assert.Equal(t, http.StatusBadRequest, got.Status)
		assert.Equal(t, apperror.CodeInvalidInput, got.Code)
		assert.Equal(t, []string{"a"}, got.Details)
	})

	t.Run("unknown error hides message", func(t *testing.T) {
		got := apperror.ToHTTP(errors.New("pq: connection refused"))

		assert.Equal(t, http.StatusInternalServerError, got.Status)
		assert.Equal(t, "Internal server error", got.Message)
	})

	t.Run("operation failed exposes cause", func(t *testing.T) {
		got := apperror.ToHTTP(apperror.OperationFailed(errors.New("copy failed")))

		assert.Equal(t, http.StatusBadRequest, got.Status)
		assert.Equal(t, apperror.CodeOperationFailed, got.Code)
		assert.Equal(t, "copy failed", got.Message)
	})
}

func TestAppError_Is(t *testing.T) {
	withDetails := apperror.ErrNotFound.WithDetails("x")

	assert.ErrorIs(t, withDetails, apperror.ErrNotFound)
	assert.NotErrorIs(t, withDetails, apperror.ErrForbidden)
}

func TestMapValidationError(t *testing.T) {
	apperror.Init()

	type payload struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
	}

	err := binding.Validator.ValidateStruct(payload{Email: "nope"})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	mapped := apperror.MapValidationError(err)
	httpErr := apperror.ToHTTP(mapped)

	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	details, ok := httpErr.Details.([]apperror.FieldError)
	require.True(t, ok)
	require.Len(t, details, 2)
	assert.Equal(t, "username", details[0].Field)
	assert.Equal(t, "Username is required", details[0].Message)
	assert.Equal(t, "email", details[1].Field)
}
