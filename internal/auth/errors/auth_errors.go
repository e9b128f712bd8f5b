package autherrors

import (
	"net/http"

	"github.com/Abhinav7558/employee-management-system/internal/shared/apperror"
)

var (
	ErrInvalidCredentials = apperror.New(
		apperror.CodeUnauthorized,
		"Invalid username or password",
		http.StatusUnauthorized,
	)

	ErrIncorrectPassword = apperror.New(
		apperror.CodeInvalidInput,
		"Incorrect password",
		http.StatusBadRequest,
	)

	ErrWeakPassword = apperror.New(
		apperror.CodeInvalidInput,
		"Password does not meet the requirements",
		http.StatusBadRequest,
	)

	ErrUsernameTaken = apperror.New(
		apperror.CodeConflict,
		"A user with that username already exists",
		http.StatusConflict,
	)

	ErrEmailTaken = apperror.New(
		apperror.CodeConflict,
		"A user with that email already exists",
		http.StatusConflict,
	)

	ErrUserNotFound = apperror.New(
		apperror.CodeNotFound,
		"User not found",
		http.StatusNotFound,
	)

	ErrInvalidToken = apperror.New(
		apperror.CodeUnauthorized,
		"Invalid token",
		http.StatusUnauthorized,
	)

	ErrTokenExpired = apperror.New(
		apperror.CodeUnauthorized,
		"Token has expired",
		http.StatusUnauthorized,
	)

	ErrInvalidRefreshToken = apperror.New(
		apperror.CodeUnauthorized,
		"Invalid refresh token",
		http.StatusUnauthorized,
	)
)
