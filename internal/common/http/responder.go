package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/AlibekovAA/social-hub/internal/common/constants"
	commonerrors "github.com/AlibekovAA/social-hub/internal/common/errors"
	"github.com/AlibekovAA/social-hub/internal/common/httpmetrics"
	"github.com/AlibekovAA/social-hub/internal/common/logger"
	"github.com/AlibekovAA/social-hub/internal/observability/metrics"
)

// Responder turns handler outcomes into the two response shapes the site
// uses: a JSON page view model, or a 303 redirect carrying flashes.
type Responder struct {
	log   *logger.Logger
	flash *FlashCodec
}

func NewResponder(log *logger.Logger, flash *FlashCodec) *Responder {
	return &Responder{log: log, flash: flash}
}

func (rs *Responder) Page(w http.ResponseWriter, r *http.Request, data any) {
	flashes := rs.flash.Consume(w, r)
	WriteJSON(w, http.StatusOK, PageResponse{Flashes: flashes, Data: data})
}

func (rs *Responder) Redirect(w http.ResponseWriter, r *http.Request, target string, flashes ...Flash) {
	if err := rs.flash.Set(w, r, flashes...); err != nil {
		rs.log.WithFields(r.Context(), logger.Fields{
			"action": "flash_set_failed",
		}).Errorf("failed to set flash: %v", err)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Fail reports err to the user as an error flash and redirects to target.
// Unexpected errors are logged with their cause and shown generically.
func (rs *Responder) Fail(w http.ResponseWriter, r *http.Request, err error, target string) {
	domainErr := rs.record(r, err)
	rs.Redirect(w, r, target, FlashFor(domainErr))
}

// FailPage is Fail for pages with no safe place to redirect to: the error
// flash is returned inline with the error's status.
func (rs *Responder) FailPage(w http.ResponseWriter, r *http.Request, err error) {
	domainErr := rs.record(r, err)
	flashes := append(rs.flash.Consume(w, r), FlashFor(domainErr))
	WriteJSON(w, domainErr.HTTPStatus(), PageResponse{Flashes: flashes})
}

func (rs *Responder) record(r *http.Request, err error) commonerrors.DomainError {
	ctx := r.Context()
	traceID := getTraceIDFromContext(ctx)

	domainErr, ok := commonerrors.AsDomainError(err)
	if !ok {
		domainErr = commonerrors.ErrInternalError.WithCause(err)
	}
	if traceID != "" && domainErr.TraceID() == "" {
		domainErr = domainErr.WithTraceID(traceID)
	}

	status := domainErr.HTTPStatus()
	logFields := logger.Fields{
		"error_code": domainErr.Code(),
		"category":   string(domainErr.Category()),
		"status":     status,
		"action":     "domain_error",
	}

	if status >= http.StatusInternalServerError {
		rs.log.WithFields(ctx, logFields).Errorf("request failed: %v", err)
	} else if rs.log.ShouldLog(logger.DEBUG) {
		rs.log.WithFields(ctx, logFields).Debugf("domain error: %s", domainErr.Error())
	}

	metrics.DomainErrorsTotal.WithLabelValues(
		string(domainErr.Category()),
		domainErr.Code(),
		strconv.Itoa(status),
	).Inc()
	metrics.HTTPErrorsTotal.WithLabelValues(
		strconv.Itoa(status),
		httpmetrics.NormalizePath(r.URL.Path),
		r.Method,
	).Inc()

	return domainErr
}

func FlashFor(err commonerrors.DomainError) Flash {
	return Flash{
		Kind:     FlashError,
		Category: flashCategory(err.Category()),
		Message:  err.Message(),
	}
}

func flashCategory(c commonerrors.ErrorCategory) string {
	switch c {
	case commonerrors.CategoryAuth:
		return FlashCategoryAuth
	case commonerrors.CategoryForbidden:
		return FlashCategoryAuthz
	case commonerrors.CategoryValidation, commonerrors.CategoryConflict:
		return FlashCategoryValidation
	case commonerrors.CategoryNotFound:
		return FlashCategoryNotFound
	default:
		return FlashCategoryStore
	}
}

func getTraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	traceID, _ := ctx.Value(constants.TraceIDKey).(string)
	return traceID
}
