package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// writeWait bounds how long a push may block on a slow client before the
// connection is dropped.
const writeWait = 10 * time.Second

// Hub tracks live websocket sessions on two channels: notification
// sessions keyed by user ID and comment sessions keyed by task ID. Pushes
// are best-effort; a disconnected or slow peer is dropped, never retried.
type Hub struct {
	mu sync.RWMutex

	// userConns holds notification sessions, one set per user
	userConns map[uuid.UUID]map[*websocket.Conn]struct{}

	// taskConns holds comment sessions, one set per task
	taskConns map[uuid.UUID]map[*websocket.Conn]struct{}

	logger *slog.Logger
}

// NewHub creates an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		userConns: make(map[uuid.UUID]map[*websocket.Conn]struct{}),
		taskConns: make(map[uuid.UUID]map[*websocket.Conn]struct{}),
		logger:    logger.With("component", "ws_hub"),
	}
}

// RegisterUser adds a notification session for the given user.
func (h *Hub) RegisterUser(userID uuid.UUID, conn *websocket.Conn) {
	h.register(h.userConns, userID, conn)
	h.logger.Debug("notification session registered", "user_id", userID)
}

// DeregisterUser removes a notification session. The connection is closed
// by the caller.
func (h *Hub) DeregisterUser(userID uuid.UUID, conn *websocket.Conn) {
	h.deregister(h.userConns, userID, conn)
	h.logger.Debug("notification session deregistered", "user_id", userID)
}

// RegisterTask adds a comment session for the given task.
func (h *Hub) RegisterTask(taskID uuid.UUID, conn *websocket.Conn) {
	h.register(h.taskConns, taskID, conn)
	h.logger.Debug("comment session registered", "task_id", taskID)
}

// DeregisterTask removes a comment session.
func (h *Hub) DeregisterTask(taskID uuid.UUID, conn *websocket.Conn) {
	h.deregister(h.taskConns, taskID, conn)
	h.logger.Debug("comment session deregistered", "task_id", taskID)
}

func (h *Hub) register(conns map[uuid.UUID]map[*websocket.Conn]struct{}, key uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := conns[key]
	if !ok {
		set = make(map[*websocket.Conn]struct{})
		conns[key] = set
	}
	set[conn] = struct{}{}
}

func (h *Hub) deregister(conns map[uuid.UUID]map[*websocket.Conn]struct{}, key uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := conns[key]
	if !ok {
		return
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(conns, key)
	}
}

// PushToUser sends a JSON frame to every notification session of the user.
// Returns the number of sessions the frame was written to; write failures
// drop the session silently.
func (h *Hub) PushToUser(ctx context.Context, userID uuid.UUID, payload any) int {
	return h.push(ctx, h.userConns, userID, payload)
}

// PushToTask sends a JSON frame to every comment session of the task.
func (h *Hub) PushToTask(ctx context.Context, taskID uuid.UUID, payload any) int {
	return h.push(ctx, h.taskConns, taskID, payload)
}

func (h *Hub) push(
	ctx context.Context,
	conns map[uuid.UUID]map[*websocket.Conn]struct{},
	key uuid.UUID,
	payload any,
) int {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to marshal push payload",
			"error", err,
			"key", key)
		return 0
	}

	h.mu.RLock()
	targets := make([]*websocket.Conn, 0, len(conns[key]))
	for conn := range conns[key] {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	sent := 0
	for _, conn := range targets {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			h.drop(conns, key, conn)
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debug("dropping unreachable session",
				"error", err,
				"key", key)
			h.drop(conns, key, conn)
			continue
		}
		sent++
	}

	return sent
}

func (h *Hub) drop(conns map[uuid.UUID]map[*websocket.Conn]struct{}, key uuid.UUID, conn *websocket.Conn) {
	h.deregister(conns, key, conn)
	_ = conn.Close()
}
