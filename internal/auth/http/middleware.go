package http

import (
	"context"
	"net/http"

	"github.com/AlibekovAA/social-hub/internal/auth/principal"
	commonhttp "github.com/AlibekovAA/social-hub/internal/common/http"
	"github.com/AlibekovAA/social-hub/internal/common/logger"
	"github.com/AlibekovAA/social-hub/internal/observability/metrics"
	userdomain "github.com/AlibekovAA/social-hub/internal/user/domain"
)

const (
	loginPath     = "/login"
	dashboardPath = "/user/dashboard"
)

type SessionResolver interface {
	Resolve(ctx context.Context, token string) (userdomain.User, bool, error)
}

// SessionMiddleware attaches the session's user to the request context.
// A cookie that no longer resolves is cleared. A store failure leaves the
// request anonymous but keeps the cookie.
func SessionMiddleware(sessions SessionResolver, log *logger.Logger) commonhttp.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, ok, err := sessions.Resolve(r.Context(), token)
			if err != nil {
				log.WithFields(r.Context(), logger.Fields{
					"action": "session_resolve_failed",
				}).Errorf("failed to resolve session: %v", err)
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				clearSessionCookie(w, r)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(principal.WithUser(r.Context(), user)))
		})
	}
}

type Gates struct {
	respond *commonhttp.Responder
}

func NewGates(respond *commonhttp.Responder) *Gates {
	return &Gates{respond: respond}
}

func (g *Gates) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := principal.FromContext(r.Context()); !ok {
			metrics.AccessDenied.WithLabelValues("authenticated").Inc()
			g.respond.Fail(w, r, ErrLoginRequired, loginPath)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole sends callers without the role to the dashboard, not the login
// page: they may well be logged in.
func (g *Gates) RequireRole(role userdomain.Role) commonhttp.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := principal.FromContext(r.Context())
			if !ok || !user.Role.Satisfies(role) {
				metrics.AccessDenied.WithLabelValues("role_" + string(role)).Inc()
				g.respond.Fail(w, r, ErrAdminsOnly, dashboardPath)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g *Gates) RequireAnonymous(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := principal.FromContext(r.Context()); ok {
			http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientKey buckets rate limits per user once the session is known, per
// client IP otherwise.
func ClientKey(r *http.Request) string {
	if user, ok := principal.FromContext(r.Context()); ok {
		return "user:" + string(user.ID)
	}
	return "ip:" + commonhttp.GetClientIP(r)
}
