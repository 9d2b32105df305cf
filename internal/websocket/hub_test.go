package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serveHub поднимает сервер, который регистрирует каждое соединение за userID
func serveHub(t *testing.T, hub *Hub, userID uuid.UUID) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn, userID)
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHub_NotifyUserReachesEveryConnection(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	t.Cleanup(hub.Stop)

	userID := uuid.New()
	url := serveHub(t, hub, userID)
	first := dial(t, url)
	second := dial(t, url)

	require.Eventually(t, func() bool { return hub.ClientCount(userID) == 2 }, 2*time.Second, 10*time.Millisecond)

	hub.NotifyUser(uuid.New(), "token_refreshed")
	hub.NotifyUser(userID, "logged_out")

	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var ev Event
		require.NoError(t, conn.ReadJSON(&ev))
		assert.Equal(t, TypeSession, ev.Type)
		assert.Equal(t, "logged_out", ev.Event)
		assert.Equal(t, userID, ev.UserID)
	}
}

func TestHub_UnregisterOnClose(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	t.Cleanup(hub.Stop)

	userID := uuid.New()
	conn := dial(t, serveHub(t, hub, userID))
	require.Eventually(t, func() bool { return hub.ClientCount(userID) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	_ = conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount(userID) == 0 }, 2*time.Second, 10*time.Millisecond)

	// после отключения уведомление просто теряется
	hub.NotifyUser(userID, "logged_out")
}

func TestHub_StopClosesConnections(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	userID := uuid.New()
	conn := dial(t, serveHub(t, hub, userID))
	require.Eventually(t, func() bool { return hub.ClientCount(userID) == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Stop()
	assert.Zero(t, hub.ClientCount(userID))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
