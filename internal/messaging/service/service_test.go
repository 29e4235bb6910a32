package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "github.com/AlibekovAA/social-hub/internal/common/errors"
	"github.com/AlibekovAA/social-hub/internal/common/logger"
	"github.com/AlibekovAA/social-hub/internal/messaging/codec"
	"github.com/AlibekovAA/social-hub/internal/messaging/domain"
	"github.com/AlibekovAA/social-hub/internal/messaging/repository"
	userdomain "github.com/AlibekovAA/social-hub/internal/user/domain"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

var (
	alice = userdomain.User{ID: "a", Username: "alice", Name: "Alice"}
	bob   = userdomain.User{ID: "b", Username: "bob"}
	carol = userdomain.User{ID: "c", Username: "carol", Name: "Carol"}
)

// memMessages keeps encoded bodies like the real table does.
type memMessages struct {
	rows      []domain.Message
	users     map[userdomain.ID]userdomain.User
	seq       int
	createErr error
	countErr  error
	countCtx  context.Context
}

func newMemMessages(users ...userdomain.User) *memMessages {
	m := &memMessages{users: map[userdomain.ID]userdomain.User{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memMessages) Conversations(ctx context.Context, userID userdomain.ID) ([]repository.ConversationRow, error) {
	latest := map[userdomain.ID]domain.Message{}
	unread := map[userdomain.ID]int64{}
	for _, msg := range m.rows {
		var peer userdomain.ID
		switch userID {
		case msg.SenderID:
			peer = msg.ReceiverID
		case msg.ReceiverID:
			peer = msg.SenderID
			if !msg.IsRead {
				unread[peer]++
			}
		default:
			continue
		}
		if cur, ok := latest[peer]; !ok || !msg.CreatedAt.Before(cur.CreatedAt) {
			latest[peer] = msg
		}
	}
	out := []repository.ConversationRow{}
	for peer, msg := range latest {
		out = append(out, repository.ConversationRow{
			Peer:        m.users[peer].Summary(),
			LastContent: msg.Content,
			LastTime:    msg.CreatedAt,
			UnreadCount: unread[peer],
		})
	}
	return out, nil
}

func (m *memMessages) MarkRead(ctx context.Context, senderID, receiverID userdomain.ID) (int64, error) {
	var n int64
	for i, msg := range m.rows {
		if msg.SenderID == senderID && msg.ReceiverID == receiverID && !msg.IsRead {
			m.rows[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (m *memMessages) History(ctx context.Context, a, b userdomain.ID) ([]domain.Message, error) {
	out := []domain.Message{}
	for _, msg := range m.rows {
		if (msg.SenderID == a && msg.ReceiverID == b) || (msg.SenderID == b && msg.ReceiverID == a) {
			out = append(out, msg)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memMessages) Create(ctx context.Context, msg domain.Message) (domain.Message, error) {
	if m.createErr != nil {
		return domain.Message{}, m.createErr
	}
	m.seq++
	msg.ID = fmt.Sprintf("m-%02d", m.seq)
	msg.CreatedAt = t0.Add(time.Duration(m.seq) * time.Minute)
	m.rows = append(m.rows, msg)
	return msg, nil
}

func (m *memMessages) Count(ctx context.Context) (int64, error) {
	m.countCtx = ctx
	if m.countErr != nil {
		return 0, m.countErr
	}
	return int64(len(m.rows)), nil
}

func (m *memMessages) FindByID(ctx context.Context, id userdomain.ID) (userdomain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return userdomain.User{}, commonerrors.ErrUserNotFound
	}
	return u, nil
}

type notifyRecorder struct {
	sent []domain.Notification
	to   []userdomain.ID
}

func (n *notifyRecorder) Notify(userID userdomain.ID, note domain.Notification) bool {
	n.to = append(n.to, userID)
	n.sent = append(n.sent, note)
	return true
}

func newTestService(store *memMessages, n Notifier) *Service {
	return NewService(Deps{
		Repo:     store,
		Users:    store,
		Codec:    codec.NewBase64Obfuscator(),
		Notifier: n,
		Log:      logger.Discard(),
	})
}

func TestSend_StoresEncodedRawText(t *testing.T) {
	store := newMemMessages(alice, bob)
	notes := &notifyRecorder{}
	svc := newTestService(store, notes)

	msg, err := svc.Send(context.Background(), alice, bob.ID, "  hi bob  ")
	require.NoError(t, err)

	assert.Equal(t, "  hi bob  ", msg.Content)
	require.Len(t, store.rows, 1)
	assert.Equal(t, codec.NewBase64Obfuscator().Encode("  hi bob  "), store.rows[0].Content)
	assert.False(t, store.rows[0].IsRead)

	require.Len(t, notes.sent, 1)
	assert.Equal(t, bob.ID, notes.to[0])
	assert.Equal(t, domain.NotificationNewMessage, notes.sent[0].Type)
	assert.Equal(t, "Alice", notes.sent[0].FromName)
	assert.Equal(t, msg.ID, notes.sent[0].MessageID)
}

func TestSend_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		receiver userdomain.ID
		content  string
		want     error
	}{
		{"empty", bob.ID, "", domain.ErrEmptyMessage},
		{"whitespace", bob.ID, " \n\t ", domain.ErrEmptyMessage},
		{"invalid utf-8", bob.ID, "hi \xff", domain.ErrInvalidMessageText},
		{"self", alice.ID, "hello me", domain.ErrSelfMessage},
		{"unknown receiver", "ghost", "hello?", commonerrors.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemMessages(alice, bob)
			notes := &notifyRecorder{}
			svc := newTestService(store, notes)

			_, err := svc.Send(context.Background(), alice, tt.receiver, tt.content)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Empty(t, store.rows)
			assert.Empty(t, notes.sent)
		})
	}
}

func TestSend_InvalidUTF8KeepsInboxReadable(t *testing.T) {
	store := newMemMessages(alice, bob)
	svc := newTestService(store, nil)

	_, err := svc.Send(context.Background(), alice, bob.ID, "hi \xff")
	de, ok := commonerrors.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, commonerrors.CategoryValidation, de.Category())

	_, err = svc.Send(context.Background(), alice, bob.ID, "hi again")
	require.NoError(t, err)

	convs, err := svc.Conversations(context.Background(), bob.ID)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, "hi again", convs[0].LastMessage)

	thread, err := svc.OpenConversation(context.Background(), bob.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, thread.Messages, 1)
}

func TestSend_EmptyMessageText(t *testing.T) {
	svc := newTestService(newMemMessages(alice, bob), nil)
	_, err := svc.Send(context.Background(), alice, bob.ID, "   ")
	de, ok := commonerrors.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "Message cannot be empty.", de.Message())
}

func TestSend_StoreFailureIsInternal(t *testing.T) {
	store := newMemMessages(alice, bob)
	store.createErr = errors.New("connection reset")
	svc := newTestService(store, nil)

	_, err := svc.Send(context.Background(), alice, bob.ID, "hi")
	assert.True(t, errors.Is(err, commonerrors.ErrDatabaseError), "got %v", err)
}

func TestOpenConversation_MarksOnlyIncomingRead(t *testing.T) {
	store := newMemMessages(alice, bob, carol)
	svc := newTestService(store, nil)
	ctx := context.Background()

	_, err := svc.Send(ctx, bob, alice.ID, "one")
	require.NoError(t, err)
	_, err = svc.Send(ctx, alice, bob.ID, "two")
	require.NoError(t, err)
	_, err = svc.Send(ctx, bob, alice.ID, "three")
	require.NoError(t, err)
	_, err = svc.Send(ctx, carol, alice.ID, "from carol")
	require.NoError(t, err)

	thread, err := svc.OpenConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	assert.Equal(t, bob.Summary(), thread.Peer)
	assert.Equal(t, int64(2), thread.MarkedRead)
	require.Len(t, thread.Messages, 3)
	assert.Equal(t, "one", thread.Messages[0].Content)
	assert.Equal(t, "two", thread.Messages[1].Content)
	assert.Equal(t, "three", thread.Messages[2].Content)

	for _, m := range store.rows {
		switch {
		case m.SenderID == bob.ID:
			assert.True(t, m.IsRead, "bob's messages to alice should be read")
		default:
			assert.False(t, m.IsRead, "message %s should stay unread", m.ID)
		}
	}

	again, err := svc.OpenConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), again.MarkedRead)
}

func TestOpenConversation_UnknownPeer(t *testing.T) {
	svc := newTestService(newMemMessages(alice), nil)
	_, err := svc.OpenConversation(context.Background(), alice.ID, "ghost")
	assert.True(t, errors.Is(err, commonerrors.ErrUserNotFound), "got %v", err)
}

func TestOpenConversation_NoMessages(t *testing.T) {
	svc := newTestService(newMemMessages(alice, bob), nil)
	thread, err := svc.OpenConversation(context.Background(), alice.ID, bob.ID)
	require.NoError(t, err)
	assert.NotNil(t, thread.Messages)
	assert.Empty(t, thread.Messages)
}

func TestConversations_OrderAndUnread(t *testing.T) {
	store := newMemMessages(alice, bob, carol)
	svc := newTestService(store, nil)
	ctx := context.Background()

	_, err := svc.Send(ctx, bob, alice.ID, "hey")
	require.NoError(t, err)
	_, err = svc.Send(ctx, carol, alice.ID, "hello")
	require.NoError(t, err)
	_, err = svc.Send(ctx, carol, alice.ID, "you there?")
	require.NoError(t, err)
	_, err = svc.Send(ctx, alice, bob.ID, "привет 👋")
	require.NoError(t, err)

	convs, err := svc.Conversations(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, convs, 2)

	assert.Equal(t, bob.ID, convs[0].Peer.ID)
	assert.Equal(t, "привет 👋", convs[0].LastMessage)
	assert.Equal(t, int64(1), convs[0].UnreadCount)

	assert.Equal(t, carol.ID, convs[1].Peer.ID)
	assert.Equal(t, "you there?", convs[1].LastMessage)
	assert.Equal(t, int64(2), convs[1].UnreadCount)

	none, err := svc.Conversations(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestConversations_CorruptRowIsInternal(t *testing.T) {
	store := newMemMessages(alice, bob)
	store.rows = append(store.rows, domain.Message{
		ID: "m-bad", SenderID: bob.ID, ReceiverID: alice.ID, Content: "%%%", CreatedAt: t0,
	})
	svc := newTestService(store, nil)

	_, err := svc.Conversations(context.Background(), alice.ID)
	assert.True(t, errors.Is(err, commonerrors.ErrDatabaseError), "got %v", err)
}

func TestSortConversations(t *testing.T) {
	cs := []domain.Conversation{
		{Peer: userdomain.Summary{ID: "z"}},
		{Peer: userdomain.Summary{ID: "b"}, LastTime: t0},
		{Peer: userdomain.Summary{ID: "a"}, LastTime: t0},
		{Peer: userdomain.Summary{ID: "y"}, LastTime: t0.Add(time.Hour)},
		{Peer: userdomain.Summary{ID: "m"}},
	}
	sortConversations(cs)

	var ids []userdomain.ID
	for _, c := range cs {
		ids = append(ids, c.Peer.ID)
	}
	assert.Equal(t, []userdomain.ID{"y", "a", "b", "m", "z"}, ids)
}

func TestCount_BoundedByTimeout(t *testing.T) {
	store := newMemMessages(alice, bob)
	svc := NewService(Deps{Repo: store, Users: store, Log: logger.Discard(), Timeout: time.Second})

	_, err := svc.Send(context.Background(), alice, bob.ID, "hi")
	require.NoError(t, err)

	n, err := svc.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, hasDeadline := store.countCtx.Deadline()
	assert.True(t, hasDeadline, "count should run under the request timeout")
}

func TestCount_StoreFailureIsInternal(t *testing.T) {
	store := newMemMessages()
	store.countErr = errors.New("connection reset")
	svc := newTestService(store, nil)

	_, err := svc.Count(context.Background())
	assert.True(t, errors.Is(err, commonerrors.ErrDatabaseError), "got %v", err)
}
