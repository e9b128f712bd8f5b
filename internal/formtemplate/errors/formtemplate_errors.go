package formtemplateerrors

import (
	"net/http"

	"github.com/Abhinav7558/employee-management-system/internal/shared/apperror"
)

var (
	ErrFormTemplateNotFound = apperror.New(
		apperror.CodeNotFound,
		"Form template not found",
		http.StatusNotFound,
	)
	ErrInvalidFormTemplate = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid form template",
		http.StatusBadRequest,
	)
	ErrUnknownCreator = apperror.New(
		apperror.CodeInvalidInput,
		"Creating user does not exist",
		http.StatusBadRequest,
	)
)
