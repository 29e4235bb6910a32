package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/AlibekovAA/social-hub/internal/common/constants"
	commonerrors "github.com/AlibekovAA/social-hub/internal/common/errors"
	"github.com/AlibekovAA/social-hub/internal/common/logger"
	"github.com/AlibekovAA/social-hub/internal/messaging/codec"
	"github.com/AlibekovAA/social-hub/internal/messaging/domain"
	"github.com/AlibekovAA/social-hub/internal/messaging/repository"
	"github.com/AlibekovAA/social-hub/internal/observability/metrics"
	userdomain "github.com/AlibekovAA/social-hub/internal/user/domain"
)

type UserFinder interface {
	FindByID(ctx context.Context, id userdomain.ID) (userdomain.User, error)
}

// Notifier pushes best-effort signals to connected clients.
type Notifier interface {
	Notify(userID userdomain.ID, n domain.Notification) bool
}

type Deps struct {
	Repo     repository.Repository
	Users    UserFinder
	Codec    codec.Obfuscator
	Notifier Notifier
	Log      *logger.Logger
	Timeout  time.Duration
}

type Service struct {
	repo     repository.Repository
	users    UserFinder
	codec    codec.Obfuscator
	notifier Notifier
	log      *logger.Logger
	timeout  time.Duration
}

func NewService(deps Deps) *Service {
	c := deps.Codec
	if c == nil {
		c = codec.NewBase64Obfuscator()
	}
	return &Service{
		repo:     deps.Repo,
		users:    deps.Users,
		codec:    c,
		notifier: deps.Notifier,
		log:      deps.Log,
		timeout:  deps.Timeout,
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Conversations lists one entry per peer, most recent first.
func (s *Service) Conversations(ctx context.Context, userID userdomain.ID) ([]domain.Conversation, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.repo.Conversations(ctx, userID)
	if err != nil {
		return nil, wrap(err)
	}

	out := make([]domain.Conversation, 0, len(rows))
	for _, row := range rows {
		text, err := s.decode(ctx, row.LastContent)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Conversation{
			Peer:        row.Peer,
			LastMessage: text,
			LastTime:    row.LastTime,
			UnreadCount: row.UnreadCount,
		})
	}
	sortConversations(out)
	return out, nil
}

// OpenConversation marks the peer's messages to the viewer as read and
// returns the whole exchange oldest first.
func (s *Service) OpenConversation(ctx context.Context, viewerID, peerID userdomain.ID) (domain.Thread, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	peer, err := s.users.FindByID(ctx, peerID)
	if err != nil {
		return domain.Thread{}, wrap(err)
	}

	marked, err := s.repo.MarkRead(ctx, peerID, viewerID)
	if err != nil {
		return domain.Thread{}, wrap(err)
	}
	if marked > 0 {
		metrics.MessagesMarkedRead.Add(float64(marked))
	}

	stored, err := s.repo.History(ctx, viewerID, peerID)
	if err != nil {
		return domain.Thread{}, wrap(err)
	}

	msgs := make([]domain.Message, 0, len(stored))
	for _, m := range stored {
		text, err := s.decode(ctx, m.Content)
		if err != nil {
			return domain.Thread{}, err
		}
		m.Content = text
		msgs = append(msgs, m)
	}

	return domain.Thread{Peer: peer.Summary(), Messages: msgs, MarkedRead: marked}, nil
}

// Send stores content as typed. Only the emptiness check looks at the
// trimmed form.
func (s *Service) Send(ctx context.Context, sender userdomain.User, receiverID userdomain.ID, content string) (domain.Message, error) {
	if strings.TrimSpace(content) == "" {
		metrics.MessagesRejectedTotal.WithLabelValues("empty").Inc()
		return domain.Message{}, domain.ErrEmptyMessage
	}
	// Stored bodies must decode back to exactly what was sent.
	if !utf8.ValidString(content) {
		metrics.MessagesRejectedTotal.WithLabelValues("invalid_utf8").Inc()
		return domain.Message{}, domain.ErrInvalidMessageText
	}
	if utf8.RuneCountInString(content) > constants.MaxMessageLength {
		metrics.MessagesRejectedTotal.WithLabelValues("too_long").Inc()
		return domain.Message{}, domain.ErrMessageTooLong
	}
	if sender.ID == receiverID {
		metrics.MessagesRejectedTotal.WithLabelValues("self").Inc()
		return domain.Message{}, domain.ErrSelfMessage
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.users.FindByID(ctx, receiverID); err != nil {
		if errors.Is(err, commonerrors.ErrUserNotFound) {
			metrics.MessagesRejectedTotal.WithLabelValues("unknown_receiver").Inc()
		}
		return domain.Message{}, wrap(err)
	}

	saved, err := s.repo.Create(ctx, domain.Message{
		SenderID:   sender.ID,
		ReceiverID: receiverID,
		Content:    s.codec.Encode(content),
	})
	if err != nil {
		return domain.Message{}, wrap(err)
	}
	saved.Content = content
	metrics.MessagesSentTotal.Inc()

	s.log.WithFields(ctx, logger.Fields{
		"action":      "message_sent",
		"message_id":  saved.ID,
		"sender_id":   sender.ID,
		"receiver_id": receiverID,
	}).Debug("message stored")

	if s.notifier != nil {
		name := sender.Name
		if name == "" {
			name = sender.Username
		}
		s.notifier.Notify(receiverID, domain.Notification{
			Type:      domain.NotificationNewMessage,
			From:      sender.ID,
			FromName:  name,
			MessageID: saved.ID,
			SentAt:    saved.CreatedAt,
		})
	}

	return saved, nil
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, wrap(err)
	}
	return n, nil
}

func (s *Service) decode(ctx context.Context, stored string) (string, error) {
	text, err := s.codec.Decode(stored)
	if err != nil {
		metrics.MessageDecodeFailures.Inc()
		s.log.WithFields(ctx, logger.Fields{
			"action": "decode_message",
		}).Errorf("stored message body is corrupt: %v", err)
		return "", commonerrors.Internal(err)
	}
	return text, nil
}

func sortConversations(cs []domain.Conversation) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		switch {
		case a.LastTime.IsZero() != b.LastTime.IsZero():
			return b.LastTime.IsZero()
		case !a.LastTime.Equal(b.LastTime):
			return a.LastTime.After(b.LastTime)
		default:
			return a.Peer.ID < b.Peer.ID
		}
	})
}

func wrap(err error) error {
	if _, ok := commonerrors.AsDomainError(err); ok {
		return err
	}
	return commonerrors.Internal(err)
}
