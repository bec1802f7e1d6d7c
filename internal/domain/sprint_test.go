package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSprintDefaults(t *testing.T) {
	start := time.Now().UTC()
	sprint, err := NewSprint("Sprint 1", "stabilization", uuid.New(), uuid.New(),
		start, start.Add(14*24*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, SprintStatusPlanned, sprint.Status)
	assert.NotZero(t, sprint.ID)
}

func TestNewSprintRequiresTitle(t *testing.T) {
	start := time.Now().UTC()
	_, err := NewSprint("", "", uuid.New(), uuid.New(), start, start.Add(time.Hour))
	require.ErrorIs(t, err, ErrSprintTitleEmpty)
}

func TestValidateSprintDates(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr bool
	}{
		{"valid range", now, now.Add(14 * 24 * time.Hour), false},
		{"start equals end", now, now, false},
		{"start slightly in the past", now.Add(-12 * time.Hour), now.Add(24 * time.Hour), false},
		{"end precedes start", now.Add(24 * time.Hour), now, true},
		{"start too far in the past", now.Add(-25 * time.Hour), now.Add(24 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSprintDates(tt.start, tt.end, now)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTimeRange)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSprintStatusIsValid(t *testing.T) {
	for _, status := range []SprintStatus{
		SprintStatusPlanned, SprintStatusActive, SprintStatusCompleted, SprintStatusOverdue,
	} {
		assert.True(t, status.IsValid(), "status %q", status)
	}
	assert.False(t, SprintStatus("paused").IsValid())
}
