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
	"github.com/AlibekovAA/social-hub/internal/feed/domain"
	"github.com/AlibekovAA/social-hub/internal/feed/service"
	userdomain "github.com/AlibekovAA/social-hub/internal/user/domain"
)

const (
	adminDashboardPath = "/admin/dashboard"
	adminUploadPath    = "/admin/upload"
	newPostPath        = "/admin/posts/new"
)

type FeedService interface {
	Dashboard(ctx context.Context, viewer userdomain.User) (domain.Dashboard, error)
	AdminDashboard(ctx context.Context, admin userdomain.User) (domain.AdminDashboard, error)
	UploadFile(ctx context.Context, admin userdomain.User, form service.FileForm, fh *multipart.FileHeader) (domain.File, error)
	CreatePost(ctx context.Context, admin userdomain.User, content string, image *multipart.FileHeader) (domain.Post, error)
	OwnedPost(ctx context.Context, admin userdomain.User, id string) (domain.Post, error)
	UpdatePost(ctx context.Context, admin userdomain.User, id, content string, image *multipart.FileHeader) (domain.Post, error)
	DeletePost(ctx context.Context, admin userdomain.User, id string) error
	Stats(ctx context.Context) (domain.Stats, error)
}

type postPage struct {
	Post *domain.Post `json:"post"`
}

type Handler struct {
	feed      FeedService
	respond   *commonhttp.Responder
	log       *logger.Logger
	maxUpload int64
}

func NewHandler(feed FeedService, respond *commonhttp.Responder, log *logger.Logger, maxUpload int64) *Handler {
	return &Handler{feed: feed, respond: respond, log: log, maxUpload: maxUpload}
}

// Register mounts the member dashboard behind authed and the admin area
// behind admin. upload wraps the routes that accept files.
func (h *Handler) Register(mux *http.ServeMux, authed, admin, upload commonhttp.Middleware) {
	mux.Handle("GET /user/dashboard", authed(http.HandlerFunc(h.dashboard)))

	gated := func(next http.HandlerFunc) http.Handler {
		return authed(admin(next))
	}
	mux.Handle("GET /admin/dashboard", gated(h.adminDashboard))
	mux.Handle("GET /admin/upload", gated(h.uploadPage))
	mux.Handle("POST /admin/upload", upload(gated(h.upload)))
	mux.Handle("GET /admin/posts/new", gated(h.newPostPage))
	mux.Handle("POST /admin/posts", upload(gated(h.createPost)))
	mux.Handle("GET /admin/posts/edit/{id}", gated(h.editPostPage))
	mux.Handle("POST /admin/posts/update/{id}", upload(gated(h.updatePost)))
	mux.Handle("POST /admin/posts/delete/{id}", gated(h.deletePost))
	mux.Handle("GET /admin/stats", gated(h.stats))
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	user := principal.MustFromContext(r.Context())
	view, err := h.feed.Dashboard(r.Context(), user)
	if err != nil {
		h.respond.FailPage(w, r, err)
		return
	}
	h.respond.Page(w, r, view)
}

func (h *Handler) adminDashboard(w http.ResponseWriter, r *http.Request) {
	admin := principal.MustFromContext(r.Context())
	view, err := h.feed.AdminDashboard(r.Context(), admin)
	if err != nil {
		h.respond.FailPage(w, r, err)
		return
	}
	h.respond.Page(w, r, view)
}

func (h *Handler) uploadPage(w http.ResponseWriter, r *http.Request) {
	h.respond.Page(w, r, nil)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	fh, err := h.formFile(r, "file")
	if err != nil {
		h.respond.Fail(w, r, domain.ErrInvalidFile.WithCause(err), adminUploadPath)
		return
	}

	admin := principal.MustFromContext(r.Context())
	form := service.FileForm{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}
	if _, err := h.feed.UploadFile(r.Context(), admin, form, fh); err != nil {
		h.respond.Fail(w, r, err, adminUploadPath)
		return
	}
	h.respond.Redirect(w, r, adminDashboardPath, commonhttp.Success("File uploaded."))
}

func (h *Handler) newPostPage(w http.ResponseWriter, r *http.Request) {
	h.respond.Page(w, r, postPage{})
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	image, err := h.formFile(r, "image")
	if err != nil {
		h.respond.Fail(w, r, domain.ErrInvalidPost.WithCause(err), newPostPath)
		return
	}

	admin := principal.MustFromContext(r.Context())
	if _, err := h.feed.CreatePost(r.Context(), admin, r.FormValue("content"), image); err != nil {
		h.respond.Fail(w, r, err, newPostPath)
		return
	}
	h.respond.Redirect(w, r, adminDashboardPath, commonhttp.Success("Post created."))
}

func (h *Handler) editPostPage(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		h.respond.Fail(w, r, err, adminDashboardPath)
		return
	}

	admin := principal.MustFromContext(r.Context())
	post, err := h.feed.OwnedPost(r.Context(), admin, id)
	if err != nil {
		h.respond.Fail(w, r, err, adminDashboardPath)
		return
	}
	h.respond.Page(w, r, postPage{Post: &post})
}

func (h *Handler) updatePost(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		h.respond.Fail(w, r, err, adminDashboardPath)
		return
	}
	editPath := "/admin/posts/edit/" + id

	image, err := h.formFile(r, "image")
	if err != nil {
		h.respond.Fail(w, r, domain.ErrInvalidPost.WithCause(err), editPath)
		return
	}

	admin := principal.MustFromContext(r.Context())
	if _, err := h.feed.UpdatePost(r.Context(), admin, id, r.FormValue("content"), image); err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			h.respond.Fail(w, r, err, adminDashboardPath)
			return
		}
		h.respond.Fail(w, r, err, editPath)
		return
	}
	h.respond.Redirect(w, r, adminDashboardPath, commonhttp.Success("Post updated."))
}

func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		h.respond.Fail(w, r, err, adminDashboardPath)
		return
	}

	admin := principal.MustFromContext(r.Context())
	if err := h.feed.DeletePost(r.Context(), admin, id); err != nil {
		h.respond.Fail(w, r, err, adminDashboardPath)
		return
	}
	h.respond.Redirect(w, r, adminDashboardPath, commonhttp.Success("Post deleted."))
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.feed.Stats(r.Context())
	if err != nil {
		h.respond.Fail(w, r, err, adminDashboardPath)
		return
	}
	h.respond.Page(w, r, stats)
}

// postID treats a malformed id like a missing post.
func postID(r *http.Request) (string, error) {
	id := r.PathValue("id")
	if err := commonhttp.ValidateUUID(id); err != nil {
		return "", domain.ErrPostNotFound.WithCause(err)
	}
	return id, nil
}

// formFile parses a urlencoded or multipart body and returns the optional
// file under field.
func (h *Handler) formFile(r *http.Request, field string) (*multipart.FileHeader, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return nil, r.ParseForm()
	}
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		return nil, err
	}
	f, fh, err := r.FormFile(field)
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
