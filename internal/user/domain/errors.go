package domain

import (
	"net/http"

	commonerrors "github.com/AlibekovAA/social-hub/internal/common/errors"
)

var (
	ErrUsernameTaken = commonerrors.NewDomainError(
		"USERNAME_TAKEN",
		commonerrors.CategoryConflict,
		http.StatusConflict,
		"Username is already taken.",
	)

	ErrEmailTaken = commonerrors.NewDomainError(
		"EMAIL_TAKEN",
		commonerrors.CategoryConflict,
		http.StatusConflict,
		"Email is already registered.",
	)

	ErrInvalidProfile = commonerrors.NewDomainError(
		"INVALID_PROFILE",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"Please provide a valid name, email and bio.",
	)

	ErrNoAdmin = commonerrors.NewDomainError(
		"NO_ADMIN",
		commonerrors.CategoryNotFound,
		http.StatusNotFound,
		"No admin account is configured.",
	)
)
