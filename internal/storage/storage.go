// Package storage puts user uploads (profile pictures, post images, admin
// files) into object storage and serves them back under /media/.
package storage

import (
	"context"
	"io"
	"net/http"
	"path"
	"strings"

	commonerrors "github.com/AlibekovAA/social-hub/internal/common/errors"
)

const MediaPrefix = "/media/"

type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (Object, error)
	Delete(ctx context.Context, key string) error
}

var (
	ErrStorageDisabled = commonerrors.NewDomainError(
		"STORAGE_DISABLED",
		commonerrors.CategoryExternal,
		http.StatusServiceUnavailable,
		"File uploads are not available right now.",
	)

	ErrObjectNotFound = commonerrors.NewDomainError(
		"OBJECT_NOT_FOUND",
		commonerrors.CategoryNotFound,
		http.StatusNotFound,
		"File not found.",
	)

	ErrUnsupportedType = commonerrors.NewDomainError(
		"UNSUPPORTED_FILE_TYPE",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"That file type is not allowed.",
	)

	ErrTooLarge = commonerrors.NewDomainError(
		"FILE_TOO_LARGE",
		commonerrors.CategoryValidation,
		http.StatusRequestEntityTooLarge,
		"That file is too large.",
	)

	ErrEmptyUpload = commonerrors.NewDomainError(
		"EMPTY_UPLOAD",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"Please choose a file to upload.",
	)
)

// URLForKey is the public path an uploaded object is served from.
func URLForKey(key string) string {
	return MediaPrefix + key
}

// KeyFromURL reverses URLForKey; ok is false for URLs this service did not
// mint.
func KeyFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, MediaPrefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, MediaPrefix)
	if key == "" || path.Clean("/"+key) != "/"+key {
		return "", false
	}
	return key, true
}

// DisabledStore is used when no object storage is configured.
type DisabledStore struct{}

func (DisabledStore) Put(context.Context, string, io.Reader, int64, string) error {
	return ErrStorageDisabled
}

func (DisabledStore) Get(context.Context, string) (Object, error) {
	return Object{}, ErrObjectNotFound
}

func (DisabledStore) Delete(context.Context, string) error {
	return nil
}
