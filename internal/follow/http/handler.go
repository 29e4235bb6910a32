package http

import (
	"context"
	"net/http"

	"github.com/AlibekovAA/social-hub/internal/auth/principal"
	commonhttp "github.com/AlibekovAA/social-hub/internal/common/http"
	"github.com/AlibekovAA/social-hub/internal/common/logger"
	userdomain "github.com/AlibekovAA/social-hub/internal/user/domain"
)

const dashboardPath = "/user/dashboard"

type FollowService interface {
	Toggle(ctx context.Context, followerID, targetID userdomain.ID) (bool, error)
	FollowAdmin(ctx context.Context, followerID, adminID userdomain.ID) error
}

type Handler struct {
	follows FollowService
	respond *commonhttp.Responder
	log     *logger.Logger
}

func NewHandler(follows FollowService, respond *commonhttp.Responder, log *logger.Logger) *Handler {
	return &Handler{follows: follows, respond: respond, log: log}
}

// Register mounts the follow routes behind authed.
func (h *Handler) Register(mux *http.ServeMux, authed commonhttp.Middleware) {
	mux.Handle("POST /user/follow/{id}", authed(http.HandlerFunc(h.toggle)))
	mux.Handle("POST /user/follow-admin/{adminId}", authed(http.HandlerFunc(h.followAdmin)))
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request) {
	targetID, err := commonhttp.PathID(r, "id")
	if err != nil {
		h.respond.Fail(w, r, err, dashboardPath)
		return
	}

	user := principal.MustFromContext(r.Context())
	following, err := h.follows.Toggle(r.Context(), user.ID, userdomain.ID(targetID))
	if err != nil {
		h.respond.Fail(w, r, err, dashboardPath)
		return
	}

	msg := "Unfollowed."
	if following {
		msg = "Followed."
	}
	h.respond.Redirect(w, r, "/user/profile/"+targetID, commonhttp.Success(msg))
}

func (h *Handler) followAdmin(w http.ResponseWriter, r *http.Request) {
	adminID, err := commonhttp.PathID(r, "adminId")
	if err != nil {
		h.respond.Fail(w, r, err, dashboardPath)
		return
	}

	user := principal.MustFromContext(r.Context())
	if err := h.follows.FollowAdmin(r.Context(), user.ID, userdomain.ID(adminID)); err != nil {
		h.respond.Fail(w, r, err, dashboardPath)
		return
	}

	h.respond.Redirect(w, r, dashboardPath, commonhttp.Success("You are now following admin!"))
}
