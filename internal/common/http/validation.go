package http

import (
	"net/http"

	"github.com/google/uuid"

	commonerrors "github.com/AlibekovAA/social-hub/internal/common/errors"
)

func ValidateUUID(s string) error {
	if s == "" {
		return commonerrors.ErrInvalidID
	}
	if _, err := uuid.Parse(s); err != nil {
		return commonerrors.ErrInvalidID.WithCause(err)
	}
	return nil
}

// PathID returns the named path wildcard once it parses as a UUID.
func PathID(r *http.Request, name string) (string, error) {
	id := r.PathValue(name)
	if err := ValidateUUID(id); err != nil {
		return "", err
	}
	return id, nil
}
