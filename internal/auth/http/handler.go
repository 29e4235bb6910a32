package http

import (
	"context"
	"net/http"

	"github.com/AlibekovAA/social-hub/internal/auth/principal"
	"github.com/AlibekovAA/social-hub/internal/auth/service"
	"github.com/AlibekovAA/social-hub/internal/auth/session"
	commonhttp "github.com/AlibekovAA/social-hub/internal/common/http"
	"github.com/AlibekovAA/social-hub/internal/common/logger"
	userdomain "github.com/AlibekovAA/social-hub/internal/user/domain"
)

const registerPath = "/register"

type AuthService interface {
	Register(ctx context.Context, input service.RegisterInput) (userdomain.User, error)
	Login(ctx context.Context, input service.LoginInput) (session.Session, userdomain.User, error)
	Logout(ctx context.Context, token string) error
}

type pageTitle struct {
	Title string `json:"title"`
}

type Handler struct {
	auth    AuthService
	gates   *Gates
	respond *commonhttp.Responder
	log     *logger.Logger
}

func NewHandler(auth AuthService, gates *Gates, respond *commonhttp.Responder, log *logger.Logger) *Handler {
	return &Handler{auth: auth, gates: gates, respond: respond, log: log}
}

// Register mounts the auth routes. loginLimit and registerLimit throttle
// the credential POSTs. POST /login stays open to signed-in users so a
// re-login rotates their session.
func (h *Handler) Register(mux *http.ServeMux, loginLimit, registerLimit commonhttp.Middleware) {
	anon := h.gates.RequireAnonymous

	mux.HandleFunc("GET /{$}", h.root)
	mux.Handle("GET /login", anon(http.HandlerFunc(h.loginPage)))
	mux.Handle("POST /login", loginLimit(http.HandlerFunc(h.login)))
	mux.Handle("GET /register", anon(http.HandlerFunc(h.registerPage)))
	mux.Handle("POST /register", registerLimit(anon(http.HandlerFunc(h.register))))
	mux.HandleFunc("GET /logout", h.logout)
}

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	if _, ok := principal.FromContext(r.Context()); ok {
		http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	h.respond.Page(w, r, pageTitle{Title: "Login"})
}

func (h *Handler) registerPage(w http.ResponseWriter, r *http.Request) {
	h.respond.Page(w, r, pageTitle{Title: "Register"})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.respond.Fail(w, r, service.ErrInvalidCredentials.WithCause(err), loginPath)
		return
	}

	sess, _, err := h.auth.Login(r.Context(), service.LoginInput{
		Identifier:    r.PostFormValue("username"),
		Password:      r.PostFormValue("password"),
		PreviousToken: sessionToken(r),
	})
	if err != nil {
		h.respond.Fail(w, r, err, loginPath)
		return
	}

	setSessionCookie(w, r, sess)
	h.respond.Redirect(w, r, dashboardPath)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.respond.Fail(w, r, service.ErrInvalidUsername.WithCause(err), registerPath)
		return
	}

	_, err := h.auth.Register(r.Context(), service.RegisterInput{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
		Name:     r.PostFormValue("name"),
		Password: r.PostFormValue("password"),
	})
	if err != nil {
		h.respond.Fail(w, r, err, registerPath)
		return
	}

	h.respond.Redirect(w, r, loginPath, commonhttp.Success("Registration successful. Please log in."))
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	clearSessionCookie(w, r)

	if err := h.auth.Logout(r.Context(), token); err != nil {
		h.respond.Fail(w, r, err, loginPath)
		return
	}
	h.respond.Redirect(w, r, loginPath)
}
