package domain

import (
	"net/http"
	"time"

	commonerrors "github.com/AlibekovAA/social-hub/internal/common/errors"
	userdomain "github.com/AlibekovAA/social-hub/internal/user/domain"
)

// Message.Content is plain text everywhere outside the repository; the
// stored form is encoded.
type Message struct {
	ID         string        `json:"id"`
	SenderID   userdomain.ID `json:"senderId"`
	ReceiverID userdomain.ID `json:"receiverId"`
	Content    string        `json:"content"`
	CreatedAt  time.Time     `json:"createdAt"`
	IsRead     bool          `json:"isRead"`
}

// Conversation summarises the messages exchanged with one peer.
type Conversation struct {
	Peer        userdomain.Summary `json:"peer"`
	LastMessage string             `json:"lastMessage"`
	LastTime    time.Time          `json:"lastTime"`
	UnreadCount int64              `json:"unreadCount"`
}

type Thread struct {
	Peer     userdomain.Summary `json:"peer"`
	Messages []Message          `json:"messages"`
	// MarkedRead is how many incoming messages this view flipped to read.
	MarkedRead int64 `json:"markedRead"`
}

const NotificationNewMessage = "new_message"

// Notification tells a connected client that something arrived. It never
// carries message content.
type Notification struct {
	Type      string        `json:"type"`
	From      userdomain.ID `json:"from"`
	FromName  string        `json:"fromName"`
	MessageID string        `json:"messageId"`
	SentAt    time.Time     `json:"sentAt"`
}

var (
	ErrEmptyMessage = commonerrors.NewDomainError(
		"EMPTY_MESSAGE",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"Message cannot be empty.",
	)

	ErrInvalidMessageText = commonerrors.NewDomainError(
		"INVALID_MESSAGE_TEXT",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"Message contains invalid characters.",
	)

	ErrMessageTooLong = commonerrors.NewDomainError(
		"MESSAGE_TOO_LONG",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"Message is too long.",
	)

	ErrSelfMessage = commonerrors.NewDomainError(
		"SELF_MESSAGE",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"You cannot message yourself.",
	)
)
