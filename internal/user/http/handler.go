package http

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/AlibekovAA/social-hub/internal/auth/principal"
	commonhttp "github.com/AlibekovAA/social-hub/internal/common/http"
	"github.com/AlibekovAA/social-hub/internal/common/logger"
	"github.com/AlibekovAA/social-hub/internal/user/domain"
	"github.com/AlibekovAA/social-hub/internal/user/service"
)

const (
	profilePath   = "/user/profile"
	dashboardPath = "/user/dashboard"
	pictureField  = "profilePic"
)

type ProfileService interface {
	Own(ctx context.Context, user domain.User) (service.OwnProfile, error)
	View(ctx context.Context, viewerID, targetID domain.ID) (service.ProfileView, error)
	Update(ctx context.Context, current domain.User, form service.ProfileForm, pic *multipart.FileHeader) (domain.User, error)
}

type Handler struct {
	profiles  ProfileService
	respond   *commonhttp.Responder
	log       *logger.Logger
	maxUpload int64
}

func NewHandler(profiles ProfileService, respond *commonhttp.Responder, log *logger.Logger, maxUpload int64) *Handler {
	return &Handler{profiles: profiles, respond: respond, log: log, maxUpload: maxUpload}
}

func (h *Handler) Register(mux *http.ServeMux, authed commonhttp.Middleware) {
	mux.Handle("GET /user/profile", authed(http.HandlerFunc(h.ownProfile)))
	mux.Handle("POST /user/profile/update", authed(http.HandlerFunc(h.updateProfile)))
	mux.Handle("GET /user/profile/{id}", authed(http.HandlerFunc(h.viewProfile)))
}

func (h *Handler) ownProfile(w http.ResponseWriter, r *http.Request) {
	user := principal.MustFromContext(r.Context())
	view, err := h.profiles.Own(r.Context(), user)
	if err != nil {
		h.respond.Fail(w, r, err, dashboardPath)
		return
	}
	h.respond.Page(w, r, view)
}

func (h *Handler) viewProfile(w http.ResponseWriter, r *http.Request) {
	targetID, err := commonhttp.PathID(r, "id")
	if err != nil {
		h.respond.Fail(w, r, err, dashboardPath)
		return
	}

	user := principal.MustFromContext(r.Context())
	view, err := h.profiles.View(r.Context(), user.ID, domain.ID(targetID))
	if err != nil {
		h.respond.Fail(w, r, err, dashboardPath)
		return
	}
	h.respond.Page(w, r, view)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	pic, err := h.parseForm(r)
	if err != nil {
		h.respond.Fail(w, r, domain.ErrInvalidProfile.WithCause(err), profilePath)
		return
	}

	user := principal.MustFromContext(r.Context())
	form := service.ProfileForm{
		Name:  r.FormValue("name"),
		Email: r.FormValue("email"),
		Bio:   r.FormValue("bio"),
	}
	if _, err := h.profiles.Update(r.Context(), user, form, pic); err != nil {
		h.respond.Fail(w, r, err, profilePath)
		return
	}

	h.respond.Redirect(w, r, profilePath, commonhttp.Success("Profile updated."))
}

// parseForm accepts both urlencoded and multipart bodies. The picture is
// optional.
func (h *Handler) parseForm(r *http.Request) (*multipart.FileHeader, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return nil, r.ParseForm()
	}
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		return nil, err
	}
	f, fh, err := r.FormFile(pictureField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	_ = f.Close()
	if fh.Size == 0 {
		return nil, nil
	}
	return fh, nil
}
