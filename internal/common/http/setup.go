package http

import (
	"net/http"

	"github.com/AlibekovAA/social-hub/internal/common/httpmetrics"
	"github.com/AlibekovAA/social-hub/internal/common/logger"
)

func BuildBaseHandler(log *logger.Logger, maxBodyBytes, maxUploadBytes int64, handler http.Handler) http.Handler {
	collector := httpmetrics.New()
	recovery := RecoveryMiddleware(log)
	traceID := TraceIDMiddleware
	maxRequestSize := MaxRequestSizeMiddleware(maxBodyBytes, maxUploadBytes)
	securityHeaders := SecurityHeadersMiddleware
	csp := ContentSecurityPolicyMiddleware("")

	return securityHeaders(csp(recovery(traceID(maxRequestSize(collector.Wrap(handler))))))
}

type Middleware func(http.Handler) http.Handler

// Chain applies mws so that the first one is outermost.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
