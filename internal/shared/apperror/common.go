package apperror

import (
	"fmt"
	"net/http"
)

var (
	ErrNotFound = New(
		CodeNotFound,
		"Resource not found",
		http.StatusNotFound,
	)

	ErrForbidden = New(
		CodeForbidden,
		"You do not have permission to access this resource",
		http.StatusForbidden,
	)

	ErrInternal = New(
		CodeInternalError,
		"An unexpected error occurred",
		http.StatusInternalServerError,
	)

	ErrUnauthorized = New(
		CodeUnauthorized,
		"Authentication is required",
		http.StatusUnauthorized,
	)

	ErrInvalidInput = New(
		CodeInvalidInput,
		"The provided input is invalid",
		http.StatusBadRequest,
	)
)

func RequiredField(field string) *AppError {
	return New(CodeInvalidInput, fmt.Sprintf("%s is required", field), http.StatusBadRequest)
}

func InvalidField(field string) *AppError {
	return New(CodeInvalidInput, fmt.Sprintf("%s is invalid", field), http.StatusBadRequest)
}

// Validation builds a 400 carrying every collected field problem.
func Validation(message string, details any) *AppError {
	return ErrInvalidInput.WithDetails(details).withMessage(message)
}

// OperationFailed reports a failed multi-row write with the cause exposed to
// the caller.
func OperationFailed(err error) *AppError {
	return Wrap(err, CodeOperationFailed, err.Error(), http.StatusBadRequest)
}

func (e *AppError) withMessage(message string) *AppError {
	if message == "" {
		return e
	}
	cp := *e
	cp.Message = message
	return &cp
}
