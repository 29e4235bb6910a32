package storage

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	commonhttp "github.com/AlibekovAA/social-hub/internal/common/http"
	"github.com/AlibekovAA/social-hub/internal/common/logger"
)

type Handler struct {
	store ObjectStore
	log   *logger.Logger
}

func NewHandler(store ObjectStore, log *logger.Logger) *Handler {
	return &Handler{store: store, log: log}
}

// ServeMedia streams an uploaded object. Mounted as GET /media/{key...}.
func (h *Handler) ServeMedia(w http.ResponseWriter, r *http.Request) {
	key, ok := KeyFromURL(MediaPrefix + r.PathValue("key"))
	if !ok {
		commonhttp.WriteError(w, http.StatusNotFound, "not found")
		return
	}

	obj, err := h.store.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			commonhttp.WriteError(w, http.StatusNotFound, "not found")
			return
		}
		h.log.WithFields(r.Context(), logger.Fields{
			"key":    key,
			"action": "media_get_failed",
		}).Errorf("failed to read object: %v", err)
		commonhttp.WriteError(w, http.StatusBadGateway, "storage unavailable")
		return
	}
	defer obj.Body.Close()

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, obj.Body)
}
