package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeEntryIsRunning(t *testing.T) {
	entry, err := NewTimeEntry(uuid.New(), uuid.New(), "deep work")
	require.NoError(t, err)

	assert.True(t, entry.IsRunning())
	assert.Nil(t, entry.EndTime)
	assert.Equal(t, "deep work", entry.Note)
}

func TestNewTimeEntryValidation(t *testing.T) {
	_, err := NewTimeEntry(uuid.Nil, uuid.New(), "")
	require.ErrorIs(t, err, ErrTimeEntryUserIDEmpty)

	_, err = NewTimeEntry(uuid.New(), uuid.Nil, "")
	require.ErrorIs(t, err, ErrTimeEntryTaskIDEmpty)
}

func TestTimeEntryStop(t *testing.T) {
	entry, err := NewTimeEntry(uuid.New(), uuid.New(), "")
	require.NoError(t, err)

	at := entry.StartTime.Add(90 * time.Minute)
	require.NoError(t, entry.Stop(at))

	assert.False(t, entry.IsRunning())
	require.NotNil(t, entry.EndTime)
	assert.Equal(t, int64(5400), entry.Duration)

	// A stopped entry stays stopped.
	require.ErrorIs(t, entry.Stop(at.Add(time.Hour)), ErrTimeEntryAlreadyStopped)
	assert.Equal(t, int64(5400), entry.Duration)
}
