package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// MemberTaskFacts is the raw per-member aggregate the productivity score
// is computed from. AvgCompletionHours is derived from the history
// ledger's "closed" entry, not from updated_at, so unrelated edits do not
// distort completion time.
type MemberTaskFacts struct {
	Total              int
	Closed             int
	Overdue            int
	Rejected           int
	AvgCompletionHours float64
}

// ActivityCounts holds the trailing/forward 7-day activity aggregates for
// a project. DueNext7Days counts every task not yet closed, rejected ones
// included, since a rejected task still carries its deadline.
type ActivityCounts struct {
	CreatedLast7Days   int
	UpdatedLast7Days   int
	CompletedLast7Days int
	DueNext7Days       int
}

// StatsStore defines the read-only aggregation interface over committed
// Task, TaskHistory and TimeEntry data. All methods tolerate empty result
// sets and return zeroed values rather than errors when a project or
// sprint simply has no tasks.
type StatsStore interface {
	// CountByStatus counts a project's tasks grouped by status, optionally
	// narrowed to a sprint.
	CountByStatus(ctx context.Context, projectID uuid.UUID, sprintID *uuid.UUID) (map[domain.TaskStatus]int, error)

	// CountByAssignee counts a project's tasks grouped by assignee member
	// ID. Tasks without an assignee are bucketed under uuid.Nil.
	CountByAssignee(ctx context.Context, projectID uuid.UUID, sprintID *uuid.UUID) (map[uuid.UUID]int, error)

	// CountByPriority counts a project's tasks grouped by priority.
	CountByPriority(ctx context.Context, projectID uuid.UUID, sprintID *uuid.UUID) (map[domain.TaskPriority]int, error)

	// Activity computes the trailing/forward 7-day windows around now.
	Activity(ctx context.Context, projectID uuid.UUID, now time.Time) (*ActivityCounts, error)

	// MemberFacts aggregates the assigned tasks of one member.
	MemberFacts(ctx context.Context, memberID uuid.UUID) (*MemberTaskFacts, error)
}
