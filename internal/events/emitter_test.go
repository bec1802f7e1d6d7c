package events

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	events []*SideEffectEvent
	err    error
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *SideEffectEvent) error {
	h.events = append(h.events, event)
	return h.err
}

func TestEmitEventFansOutToAllHandlers(t *testing.T) {
	emitter := NewInMemoryEventEmitter(slog.Default())
	first := &recordingHandler{}
	second := &recordingHandler{}
	emitter.RegisterHandler(first)
	emitter.RegisterHandler(second)

	event, err := NewSideEffectEvent(TypeWSNotify, map[string]string{"title": "Task assigned"})
	require.NoError(t, err)

	require.NoError(t, emitter.EmitEvent(context.Background(), event))
	require.Len(t, first.events, 1)
	require.Len(t, second.events, 1)
	assert.Equal(t, event.ID, first.events[0].ID)
}

func TestEmitEventReturnsFirstErrorButReachesAllHandlers(t *testing.T) {
	emitter := NewInMemoryEventEmitter(slog.Default())
	failing := &recordingHandler{err: errors.New("queue full")}
	alsoFailing := &recordingHandler{err: errors.New("socket closed")}
	healthy := &recordingHandler{}
	emitter.RegisterHandler(failing)
	emitter.RegisterHandler(alsoFailing)
	emitter.RegisterHandler(healthy)

	event, err := NewSideEffectEvent(TypeEmailSend, map[string]string{"to": "lead@example.com"})
	require.NoError(t, err)

	err = emitter.EmitEvent(context.Background(), event)
	require.EqualError(t, err, "queue full")
	assert.Len(t, healthy.events, 1)
	assert.Len(t, alsoFailing.events, 1)
}

func TestEmitEventWithoutHandlersIsANoOp(t *testing.T) {
	emitter := NewInMemoryEventEmitter(slog.Default())

	event, err := NewSideEffectEvent(TypeFileAction, nil)
	require.NoError(t, err)
	require.NoError(t, emitter.EmitEvent(context.Background(), event))
}

func TestPayloadRoundTrip(t *testing.T) {
	type payload struct {
		Key    string `json:"key"`
		Action string `json:"action"`
	}

	event, err := NewSideEffectEvent(TypeFileAction, payload{Key: "tasks/a/notes.txt", Action: "remove"})
	require.NoError(t, err)
	assert.Equal(t, TypeFileAction, event.Type)
	assert.NotZero(t, event.ID)

	var decoded payload
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, "tasks/a/notes.txt", decoded.Key)
	assert.Equal(t, "remove", decoded.Action)
}
