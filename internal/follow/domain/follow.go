package domain

import (
	"net/http"

	commonerrors "github.com/AlibekovAA/social-hub/internal/common/errors"
)

type Counts struct {
	Followers int64 `json:"followersCount"`
	Following int64 `json:"followingCount"`
}

var (
	ErrSelfFollow = commonerrors.NewDomainError(
		"SELF_FOLLOW",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"You cannot follow yourself.",
	)

	ErrNotDesignatedAdmin = commonerrors.NewDomainError(
		"NOT_DESIGNATED_ADMIN",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"Could not follow admin.",
	)
)
