package http

import (
	"net/http"
	"strings"

	"github.com/AlibekovAA/social-hub/internal/common/constants"
)

// MaxRequestSizeMiddleware caps request bodies. Multipart bodies carry
// uploads and get the larger multipartMax.
func MaxRequestSizeMiddleware(maxBytes, multipartMax int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = constants.DefaultMaxRequestSize
	}
	if multipartMax < maxBytes {
		multipartMax = maxBytes
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit := maxBytes
			if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
				limit = multipartMax
			}

			if r.ContentLength > limit {
				WriteErrorEnvelope(w, http.StatusRequestEntityTooLarge, CodeBodyTooLarge, "request body too large", nil, getTraceIDFromContext(r.Context()))
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
