package service

import (
	"net/http"

	commonerrors "github.com/AlibekovAA/social-hub/internal/common/errors"
)

var (
	// ErrInvalidCredentials is returned for both an unknown identifier and a
	// wrong password.
	ErrInvalidCredentials = commonerrors.NewDomainError(
		"INVALID_CREDENTIALS",
		commonerrors.CategoryAuth,
		http.StatusUnauthorized,
		"incorrect username/email or password",
	)

	ErrInvalidUsername = commonerrors.NewDomainError(
		"INVALID_USERNAME",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"Username must be 3-32 characters of letters, digits, '_' or '-'.",
	)

	ErrInvalidEmail = commonerrors.NewDomainError(
		"INVALID_EMAIL",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"Please provide a valid email address.",
	)

	ErrInvalidName = commonerrors.NewDomainError(
		"INVALID_NAME",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"Name is too long.",
	)

	ErrInvalidPassword = commonerrors.NewDomainError(
		"INVALID_PASSWORD",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"Password must be 8-72 characters and contain a letter and a digit.",
	)

	ErrServiceUnavailable = commonerrors.NewDomainError(
		"SERVICE_UNAVAILABLE",
		commonerrors.CategoryExternal,
		http.StatusServiceUnavailable,
		"Service temporarily unavailable.",
	)
)
