package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/AlibekovAA/social-hub/internal/auth/principal"
	commonerrors "github.com/AlibekovAA/social-hub/internal/common/errors"
	commonhttp "github.com/AlibekovAA/social-hub/internal/common/http"
	"github.com/AlibekovAA/social-hub/internal/common/logger"
	"github.com/AlibekovAA/social-hub/internal/messaging/domain"
	userdomain "github.com/AlibekovAA/social-hub/internal/user/domain"
)

const inboxPath = "/messages"

type MessagingService interface {
	Conversations(ctx context.Context, userID userdomain.ID) ([]domain.Conversation, error)
	OpenConversation(ctx context.Context, viewerID, peerID userdomain.ID) (domain.Thread, error)
	Send(ctx context.Context, sender userdomain.User, receiverID userdomain.ID, content string) (domain.Message, error)
}

type Notifications interface {
	Serve(w http.ResponseWriter, r *http.Request, user userdomain.User) error
}

type Handler struct {
	messages MessagingService
	notify   Notifications
	respond  *commonhttp.Responder
	log      *logger.Logger
}

func NewHandler(messages MessagingService, notify Notifications, respond *commonhttp.Responder, log *logger.Logger) *Handler {
	return &Handler{messages: messages, notify: notify, respond: respond, log: log}
}

type inboxPage struct {
	Conversations []domain.Conversation `json:"conversations"`
}

// Register mounts the inbox routes behind authed. send guards the POST.
func (h *Handler) Register(mux *http.ServeMux, authed, send commonhttp.Middleware) {
	mux.Handle("GET /messages", authed(http.HandlerFunc(h.inbox)))
	mux.Handle("GET /messages/ws", authed(http.HandlerFunc(h.websocket)))
	mux.Handle("GET /messages/{userId}", authed(http.HandlerFunc(h.conversation)))
	mux.Handle("POST /messages/send/{receiverId}", authed(send(http.HandlerFunc(h.send))))
}

func (h *Handler) inbox(w http.ResponseWriter, r *http.Request) {
	user := principal.MustFromContext(r.Context())
	convs, err := h.messages.Conversations(r.Context(), user.ID)
	if err != nil {
		h.respond.FailPage(w, r, err)
		return
	}
	h.respond.Page(w, r, inboxPage{Conversations: convs})
}

func (h *Handler) conversation(w http.ResponseWriter, r *http.Request) {
	peerID, err := commonhttp.PathID(r, "userId")
	if err != nil {
		h.respond.Fail(w, r, err, inboxPath)
		return
	}

	user := principal.MustFromContext(r.Context())
	thread, err := h.messages.OpenConversation(r.Context(), user.ID, userdomain.ID(peerID))
	if err != nil {
		h.respond.Fail(w, r, err, inboxPath)
		return
	}
	h.respond.Page(w, r, thread)
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	receiverID, err := commonhttp.PathID(r, "receiverId")
	if err != nil {
		h.respond.Fail(w, r, err, inboxPath)
		return
	}
	threadPath := inboxPath + "/" + receiverID

	if err := r.ParseForm(); err != nil {
		h.respond.Fail(w, r, domain.ErrEmptyMessage.WithCause(err), threadPath)
		return
	}

	user := principal.MustFromContext(r.Context())
	_, err = h.messages.Send(r.Context(), user, userdomain.ID(receiverID), r.PostFormValue("content"))
	switch {
	case err == nil:
		h.respond.Redirect(w, r, threadPath)
	case errors.Is(err, commonerrors.ErrUserNotFound), errors.Is(err, domain.ErrSelfMessage):
		h.respond.Fail(w, r, err, inboxPath)
	default:
		h.respond.Fail(w, r, err, threadPath)
	}
}

func (h *Handler) websocket(w http.ResponseWriter, r *http.Request) {
	user := principal.MustFromContext(r.Context())
	if err := h.notify.Serve(w, r, user); err != nil {
		// The upgrader has already written the error response.
		h.log.WithFields(r.Context(), logger.Fields{
			"user_id": user.ID,
			"action":  "ws_upgrade_failed",
		}).Warnf("websocket upgrade failed: %v", err)
	}
}
