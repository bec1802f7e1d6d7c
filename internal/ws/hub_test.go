package ws

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskboard-api/internal/events"
)

// socketFactory hands out connected websocket pairs backed by one test
// server: the server side is what the hub holds, the client side is what
// a browser would read from.
type socketFactory struct {
	t     *testing.T
	srv   *httptest.Server
	conns chan *websocket.Conn
}

func newSocketFactory(t *testing.T) *socketFactory {
	t.Helper()
	f := &socketFactory{t: t, conns: make(chan *websocket.Conn, 8)}

	upgrader := websocket.Upgrader{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		f.conns <- conn
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *socketFactory) pair() (serverSide, clientSide *websocket.Conn) {
	f.t.Helper()

	url := "ws" + strings.TrimPrefix(f.srv.URL, "http")
	client, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(f.t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	f.t.Cleanup(func() { _ = client.Close() })

	select {
	case server := <-f.conns:
		f.t.Cleanup(func() { _ = server.Close() })
		return server, client
	case <-time.After(2 * time.Second):
		f.t.Fatal("server side of socket pair never arrived")
		return nil, nil
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame map[string]any
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestPushToUserReachesEverySession(t *testing.T) {
	f := newSocketFactory(t)
	hub := NewHub(slog.Default())
	userID := uuid.New()

	serverA, clientA := f.pair()
	serverB, clientB := f.pair()
	hub.RegisterUser(userID, serverA)
	hub.RegisterUser(userID, serverB)

	sent := hub.PushToUser(context.Background(), userID, map[string]any{"type": "notification", "title": "Task assigned"})
	assert.Equal(t, 2, sent)

	for _, client := range []*websocket.Conn{clientA, clientB} {
		frame := readFrame(t, client)
		assert.Equal(t, "notification", frame["type"])
		assert.Equal(t, "Task assigned", frame["title"])
	}
}

func TestPushDropsClosedSession(t *testing.T) {
	f := newSocketFactory(t)
	hub := NewHub(slog.Default())
	userID := uuid.New()

	dead, deadClient := f.pair()
	live, liveClient := f.pair()
	hub.RegisterUser(userID, dead)
	hub.RegisterUser(userID, live)

	require.NoError(t, dead.Close())
	require.NoError(t, deadClient.Close())

	sent := hub.PushToUser(context.Background(), userID, map[string]any{"type": "notification"})
	assert.Equal(t, 1, sent)
	readFrame(t, liveClient)

	// The dead session is gone; the next push only sees the live one.
	sent = hub.PushToUser(context.Background(), userID, map[string]any{"type": "notification"})
	assert.Equal(t, 1, sent)
	readFrame(t, liveClient)
}

func TestPushToUnknownKeyIsANoOp(t *testing.T) {
	hub := NewHub(slog.Default())

	assert.Equal(t, 0, hub.PushToUser(context.Background(), uuid.New(), map[string]any{}))
	assert.Equal(t, 0, hub.PushToTask(context.Background(), uuid.New(), map[string]any{}))
}

func TestDeregisterStopsDelivery(t *testing.T) {
	f := newSocketFactory(t)
	hub := NewHub(slog.Default())
	taskID := uuid.New()

	server, _ := f.pair()
	hub.RegisterTask(taskID, server)
	assert.Equal(t, 1, hub.PushToTask(context.Background(), taskID, map[string]any{"type": "comment"}))

	hub.DeregisterTask(taskID, server)
	assert.Equal(t, 0, hub.PushToTask(context.Background(), taskID, map[string]any{"type": "comment"}))
}

func TestPushEventHandlerNotificationFrame(t *testing.T) {
	f := newSocketFactory(t)
	hub := NewHub(slog.Default())
	handler := NewPushEventHandler(hub, slog.Default())
	userID := uuid.New()

	server, client := f.pair()
	hub.RegisterUser(userID, server)

	notificationID := uuid.New()
	event, err := events.NewSideEffectEvent(events.TypeWSNotify, NotifyPush{
		UserID:         userID,
		NotificationID: notificationID,
		Title:          "Task closed",
		Message:        "Ship the sweeper was closed",
	})
	require.NoError(t, err)
	require.NoError(t, handler.HandleEvent(context.Background(), event))

	frame := readFrame(t, client)
	assert.Equal(t, "notification", frame["type"])
	assert.Equal(t, notificationID.String(), frame["notification_id"])
	assert.Equal(t, "Task closed", frame["title"])
	assert.Equal(t, "Ship the sweeper was closed", frame["message"])
}

func TestPushEventHandlerCommentFrame(t *testing.T) {
	f := newSocketFactory(t)
	hub := NewHub(slog.Default())
	handler := NewPushEventHandler(hub, slog.Default())
	taskID := uuid.New()

	server, client := f.pair()
	hub.RegisterTask(taskID, server)

	event, err := events.NewSideEffectEvent(events.TypeWSComment, CommentPush{
		TaskID:   taskID,
		AuthorID: uuid.New(),
		Text:     "Looks good to me",
	})
	require.NoError(t, err)
	require.NoError(t, handler.HandleEvent(context.Background(), event))

	frame := readFrame(t, client)
	assert.Equal(t, "comment", frame["type"])
	assert.Equal(t, taskID.String(), frame["task_id"])
	assert.Equal(t, "Looks good to me", frame["text"])
}

func TestPushEventHandlerIgnoresQueueEvents(t *testing.T) {
	hub := NewHub(slog.Default())
	handler := NewPushEventHandler(hub, slog.Default())

	event, err := events.NewSideEffectEvent(events.TypeEmailSend, map[string]string{"to": "a@example.com"})
	require.NoError(t, err)
	require.NoError(t, handler.HandleEvent(context.Background(), event))
}

// Missing sessions must never fail the emitting flow.
func TestPushEventHandlerWithoutSessions(t *testing.T) {
	hub := NewHub(slog.Default())
	handler := NewPushEventHandler(hub, slog.Default())

	event, err := events.NewSideEffectEvent(events.TypeWSNotify, NotifyPush{
		UserID: uuid.New(),
		Title:  "Task assigned",
	})
	require.NoError(t, err)
	require.NoError(t, handler.HandleEvent(context.Background(), event))
}
