package http

import (
	"net/http"

	commonerrors "github.com/AlibekovAA/social-hub/internal/common/errors"
)

var (
	ErrLoginRequired = commonerrors.NewDomainError(
		"LOGIN_REQUIRED",
		commonerrors.CategoryAuth,
		http.StatusUnauthorized,
		"Please log in first.",
	)

	ErrAdminsOnly = commonerrors.NewDomainError(
		"ADMINS_ONLY",
		commonerrors.CategoryForbidden,
		http.StatusForbidden,
		"Access denied. Admins only.",
	)
)
