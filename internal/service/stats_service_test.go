package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
)

func newStatsWorld(t *testing.T, stats *fakeStatsStore) (*StatsService, *domain.Project, *domain.ProjectMember, *fakeSprintStore) {
	t.Helper()

	project := &domain.Project{ID: uuid.New(), Title: "Orbit", CreatedAt: time.Now().UTC()}
	member := &domain.ProjectMember{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		ProjectID: project.ID,
		Role:      domain.RoleMember,
		BusyLevel: domain.BusyLevelFree,
	}

	sprints := newFakeSprintStore()
	svc, err := NewStatsService(
		stats, newFakeProjectStore(project), sprints,
		newFakeMemberStore(member), slog.Default())
	require.NoError(t, err)
	return svc, project, member, sprints
}

func TestStatusOverview(t *testing.T) {
	svc, project, _, _ := newStatsWorld(t, &fakeStatsStore{
		statusCounts: map[domain.TaskStatus]int{
			domain.TaskStatusOngoing: 3,
			domain.TaskStatusClosed:  5,
			domain.TaskStatusOverdue: 2,
		},
	})

	overview, err := svc.StatusOverview(context.Background(), project.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, overview.TotalWorkItems)
	assert.Equal(t, 5, overview.ByStatus[domain.TaskStatusClosed])
}

func TestStatusOverviewUnknownProject(t *testing.T) {
	svc, _, _, _ := newStatsWorld(t, &fakeStatsStore{})

	_, err := svc.StatusOverview(context.Background(), uuid.New(), nil)
	require.ErrorIs(t, err, store.ErrProjectNotFound)
}

func TestTeamWorkloadBucketsUnassigned(t *testing.T) {
	memberID := uuid.New()
	svc, project, _, _ := newStatsWorld(t, &fakeStatsStore{
		assigneeCounts: map[uuid.UUID]int{
			memberID: 6,
			uuid.Nil: 2,
		},
	})

	workload, err := svc.TeamWorkload(context.Background(), project.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 8, workload.Total)
	assert.Equal(t, 2, workload.UnassignedCount)
	assert.InDelta(t, 0.25, workload.UnassignedShare, 1e-9)
	require.Len(t, workload.Members, 1)
	assert.Equal(t, memberID, workload.Members[0].MemberID)
	assert.InDelta(t, 0.75, workload.Members[0].Share, 1e-9)
}

func TestSprintProgressBuckets(t *testing.T) {
	svc, project, member, sprints := newStatsWorld(t, &fakeStatsStore{
		statusCounts: map[domain.TaskStatus]int{
			domain.TaskStatusClosed:      4,
			domain.TaskStatusOngoing:     2,
			domain.TaskStatusUnderReview: 1,
			domain.TaskStatusRejected:    2,
			domain.TaskStatusOverdue:     1,
		},
	})

	sprint, err := domain.NewSprint(
		"Sprint 1", "", project.ID, member.ID,
		time.Now().UTC(), time.Now().UTC().Add(14*24*time.Hour))
	require.NoError(t, err)
	require.NoError(t, sprints.Create(context.Background(), sprint))

	progress, err := svc.SprintProgress(context.Background(), sprint.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, progress.Total)
	assert.Equal(t, 4, progress.Completed)
	assert.Equal(t, 3, progress.Active)
	assert.Equal(t, 3, progress.Blocked)
	assert.InDelta(t, 0.4, progress.CompletedPct, 1e-9)
}

func TestMemberProductivityScore(t *testing.T) {
	// 10 tasks, 6 closed with a 4h average, 1 overdue, 0 rejected:
	// round(0.6*60 + (1-4/8)*20 + (1-1/10)*20) = round(36+10+18) = 64.
	facts := &store.MemberTaskFacts{
		Total:              10,
		Closed:             6,
		Overdue:            1,
		Rejected:           0,
		AvgCompletionHours: 4,
	}
	stats := &fakeStatsStore{memberFacts: map[uuid.UUID]*store.MemberTaskFacts{}}
	svc, _, member, _ := newStatsWorld(t, stats)
	stats.memberFacts[member.ID] = facts

	report, err := svc.MemberProductivity(context.Background(), member.ID)
	require.NoError(t, err)
	assert.Equal(t, 64, report.Score)
	assert.InDelta(t, 0.6, report.CompletionRate, 1e-9)
	assert.Equal(t, 10, report.TotalTasks)
}

func TestMemberProductivityNoTasks(t *testing.T) {
	stats := &fakeStatsStore{memberFacts: map[uuid.UUID]*store.MemberTaskFacts{}}
	svc, _, member, _ := newStatsWorld(t, stats)

	_, err := svc.MemberProductivity(context.Background(), member.ID)
	require.ErrorIs(t, err, ErrNoProductivityData)
}

func TestMemberProductivityUnknownMember(t *testing.T) {
	svc, _, _, _ := newStatsWorld(t, &fakeStatsStore{})

	_, err := svc.MemberProductivity(context.Background(), uuid.New())
	require.ErrorIs(t, err, store.ErrMemberNotFound)
}

func TestPriorityBreakdownOrder(t *testing.T) {
	svc, project, _, _ := newStatsWorld(t, &fakeStatsStore{
		priorityCounts: map[domain.TaskPriority]int{
			domain.TaskPriorityHigh:   1,
			domain.TaskPriorityMiddle: 2,
			domain.TaskPriorityLow:    1,
		},
	})

	breakdown, err := svc.PriorityBreakdown(context.Background(), project.ID, nil)
	require.NoError(t, err)
	require.Len(t, breakdown.Priorities, 3)
	assert.Equal(t, domain.TaskPriorityHigh, breakdown.Priorities[0].Priority)
	assert.Equal(t, domain.TaskPriorityMiddle, breakdown.Priorities[1].Priority)
	assert.Equal(t, domain.TaskPriorityLow, breakdown.Priorities[2].Priority)
	assert.InDelta(t, 0.5, breakdown.Priorities[1].Share, 1e-9)
}

func TestRecentActivity(t *testing.T) {
	svc, project, _, _ := newStatsWorld(t, &fakeStatsStore{
		activity: &store.ActivityCounts{
			CreatedLast7Days:   4,
			UpdatedLast7Days:   7,
			CompletedLast7Days: 3,
			DueNext7Days:       2,
		},
	})

	activity, err := svc.RecentActivity(context.Background(), project.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, activity.CreatedLast7Days)
	assert.Equal(t, 2, activity.DueNext7Days)
}
