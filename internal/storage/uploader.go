package storage

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/AlibekovAA/social-hub/internal/common/crypto"
	"github.com/AlibekovAA/social-hub/internal/common/logger"
	"github.com/AlibekovAA/social-hub/internal/observability/metrics"
)

type Kind string

const (
	KindAvatar    Kind = "avatars"
	KindPostImage Kind = "posts"
	KindFile      Kind = "files"
)

func (k Kind) imagesOnly() bool {
	return k == KindAvatar || k == KindPostImage
}

type Stored struct {
	Key         string
	URL         string
	ContentType string
	Size        int64
}

type Uploader struct {
	store    ObjectStore
	ids      crypto.IDGenerator
	maxBytes int64
	log      *logger.Logger
}

func NewUploader(store ObjectStore, ids crypto.IDGenerator, maxBytes int64, log *logger.Logger) *Uploader {
	return &Uploader{store: store, ids: ids, maxBytes: maxBytes, log: log}
}

// Upload stores the multipart file under a fresh key. The content type is
// sniffed from the bytes, not taken from the client.
func (u *Uploader) Upload(ctx context.Context, kind Kind, fh *multipart.FileHeader) (Stored, error) {
	if fh == nil || fh.Size == 0 {
		return Stored{}, ErrEmptyUpload
	}
	if u.maxBytes > 0 && fh.Size > u.maxBytes {
		metrics.UploadsTotal.WithLabelValues("too_large").Inc()
		return Stored{}, ErrTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return Stored{}, err
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Stored{}, err
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	if kind.imagesOnly() && !strings.HasPrefix(contentType, "image/") {
		metrics.UploadsTotal.WithLabelValues("rejected_type").Inc()
		return Stored{}, ErrUnsupportedType
	}

	id, err := u.ids.NewID()
	if err != nil {
		return Stored{}, err
	}
	key := string(kind) + "/" + id + cleanExt(fh.Filename)

	if err := u.store.Put(ctx, key, io.MultiReader(bytes.NewReader(head), f), fh.Size, contentType); err != nil {
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		return Stored{}, err
	}

	metrics.UploadsTotal.WithLabelValues("stored").Inc()
	metrics.UploadBytes.Observe(float64(fh.Size))
	return Stored{Key: key, URL: URLForKey(key), ContentType: contentType, Size: fh.Size}, nil
}

// Remove deletes a previously uploaded object by its public URL. Failures are
// logged only; a stray object is harmless.
func (u *Uploader) Remove(ctx context.Context, url string) {
	key, ok := KeyFromURL(url)
	if !ok {
		return
	}
	if err := u.store.Delete(ctx, key); err != nil {
		u.log.WithFields(ctx, logger.Fields{
			"key":    key,
			"action": "object_delete_failed",
		}).Warnf("failed to delete object: %v", err)
	}
}

func cleanExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
