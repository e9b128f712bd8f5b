package employeeerrors

import (
	"net/http"

	"github.com/Abhinav7558/employee-management-system/internal/shared/apperror"
)

var (
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"Employee not found",
		http.StatusNotFound,
	)
	ErrInvalidEmployee = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid employee record",
		http.StatusBadRequest,
	)
	ErrDuplicateFieldValue = apperror.New(
		apperror.CodeConflict,
		"A value for this field already exists on the employee",
		http.StatusConflict,
	)
	ErrStaleField = apperror.New(
		apperror.CodeInvalidInput,
		"A referenced form field no longer exists",
		http.StatusBadRequest,
	)
	ErrExportFailed = apperror.New(
		apperror.CodeInternalError,
		"Failed to generate export",
		http.StatusInternalServerError,
	)
)
