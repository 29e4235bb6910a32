package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaWS "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlibekovAA/social-hub/internal/common/constants"
	"github.com/AlibekovAA/social-hub/internal/common/logger"
	"github.com/AlibekovAA/social-hub/internal/messaging/domain"
	userdomain "github.com/AlibekovAA/social-hub/internal/user/domain"
)

func runHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.done
	})
	return hub, cancel
}

// detached clients have no connection; the tests read their send channel.
func detached(hub *Hub, id userdomain.ID) *Client {
	return newClient(hub, nil, id, logger.Discard())
}

func closed(ch chan []byte) bool {
	select {
	case _, ok := <-ch:
		return !ok
	case <-time.After(time.Second):
		return false
	}
}

func TestHub_NotifyDelivers(t *testing.T) {
	hub, _ := runHub(t)
	c := detached(hub, "u1")
	require.True(t, hub.Register(c))

	ok := hub.Notify("u1", domain.Notification{Type: domain.NotificationNewMessage, From: "u2", MessageID: "m1"})
	require.True(t, ok)

	var got domain.Notification
	require.NoError(t, json.Unmarshal(<-c.send, &got))
	assert.Equal(t, userdomain.ID("u2"), got.From)
	assert.Equal(t, "m1", got.MessageID)

	assert.False(t, hub.Notify("nobody", domain.Notification{}))
}

func TestHub_NotifyDropsWhenBufferFull(t *testing.T) {
	hub, _ := runHub(t)
	c := detached(hub, "u1")
	require.True(t, hub.Register(c))

	for i := 0; i < constants.WebSocketSendBufSize; i++ {
		require.True(t, hub.Notify("u1", domain.Notification{}))
	}
	assert.False(t, hub.Notify("u1", domain.Notification{}))
}

func TestHub_ReplaceAndStaleUnregister(t *testing.T) {
	hub, _ := runHub(t)
	first := detached(hub, "u1")
	second := detached(hub, "u1")

	require.True(t, hub.Register(first))
	require.True(t, hub.Register(second))
	assert.True(t, closed(first.send), "replaced client should be closed")

	hub.Unregister(first)
	assert.True(t, hub.IsOnline("u1"), "stale unregister must not drop the new client")

	hub.Unregister(second)
	assert.True(t, closed(second.send))
	assert.False(t, hub.IsOnline("u1"))
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub, cancel := runHub(t)
	c := detached(hub, "u1")
	require.True(t, hub.Register(c))

	cancel()
	assert.True(t, closed(c.send))
	<-hub.done
	assert.False(t, hub.Register(detached(hub, "u2")))
}

func TestHub_ServeOverWebSocket(t *testing.T) {
	hub, _ := runHub(t)
	user := userdomain.User{ID: "u1", Username: "alice"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, user)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := gorillaWS.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.IsOnline("u1") }, time.Second, 10*time.Millisecond)
	require.True(t, hub.Notify("u1", domain.Notification{Type: domain.NotificationNewMessage, From: "u2"}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"new_message"`)
	assert.NotContains(t, string(data), "content")

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return !hub.IsOnline("u1") }, 2*time.Second, 10*time.Millisecond)
}
