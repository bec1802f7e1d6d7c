package service

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// StatusOverview counts a project's tasks by status.
type StatusOverview struct {
	TotalWorkItems int                       `json:"total_work_items"`
	ByStatus       map[domain.TaskStatus]int `json:"by_status"`
}

// MemberLoad is one assignee's slice of the team workload.
type MemberLoad struct {
	MemberID uuid.UUID `json:"member_id"`
	Count    int       `json:"count"`
	Share    float64   `json:"share"`
}

// TeamWorkload breaks a project's tasks down by assignee. Tasks without an
// assignee are bucketed separately.
type TeamWorkload struct {
	Total           int          `json:"total"`
	Members         []MemberLoad `json:"members"`
	UnassignedCount int          `json:"unassigned_count"`
	UnassignedShare float64      `json:"unassigned_share"`
}

// SprintProgress summarizes one sprint: completed is closed, active is
// ongoing plus under review, blocked is rejected plus overdue.
type SprintProgress struct {
	SprintID     uuid.UUID `json:"sprint_id"`
	Total        int       `json:"total"`
	Completed    int       `json:"completed"`
	Active       int       `json:"active"`
	Blocked      int       `json:"blocked"`
	CompletedPct float64   `json:"completed_pct"`
	ActivePct    float64   `json:"active_pct"`
	BlockedPct   float64   `json:"blocked_pct"`
}

// PriorityShare is one priority level's slice of the breakdown.
type PriorityShare struct {
	Priority domain.TaskPriority `json:"priority"`
	Count    int                 `json:"count"`
	Share    float64             `json:"share"`
}

// PriorityBreakdown counts a project's tasks by priority.
type PriorityBreakdown struct {
	Total      int             `json:"total"`
	Priorities []PriorityShare `json:"priorities"`
}

// RecentActivity holds the trailing and forward 7-day activity windows.
type RecentActivity struct {
	CreatedLast7Days   int `json:"created_last_7_days"`
	UpdatedLast7Days   int `json:"updated_last_7_days"`
	CompletedLast7Days int `json:"completed_last_7_days"`
	DueNext7Days       int `json:"due_next_7_days"`
}

// ProductivityReport is one member's productivity aggregate and score.
type ProductivityReport struct {
	MemberID           uuid.UUID `json:"member_id"`
	TotalTasks         int       `json:"total_tasks"`
	ClosedTasks        int       `json:"closed_tasks"`
	OverdueTasks       int       `json:"overdue_tasks"`
	RejectedTasks      int       `json:"rejected_tasks"`
	CompletionRate     float64   `json:"completion_rate"`
	AvgCompletionHours float64   `json:"avg_completion_hours"`
	Score              int       `json:"score"`
}

// StatsService computes the read-side summaries over committed task,
// history and time entry rows. All operations are side-effect free and
// tolerate empty result sets; only a missing project, sprint or member is
// an error.
type StatsService struct {
	stats    store.StatsStore
	projects store.ProjectStore
	sprints  store.SprintStore
	members  store.MemberStore
	logger   *slog.Logger
}

// NewStatsService creates a new StatsService.
// It returns an error if any of the required dependencies are nil.
func NewStatsService(
	stats store.StatsStore,
	projects store.ProjectStore,
	sprints store.SprintStore,
	members store.MemberStore,
	logger *slog.Logger,
) (*StatsService, error) {
	if stats == nil {
		return nil, domain.NewValidationError("stats", "cannot be nil", domain.ErrValidation)
	}
	if projects == nil {
		return nil, domain.NewValidationError("projects", "cannot be nil", domain.ErrValidation)
	}
	if sprints == nil {
		return nil, domain.NewValidationError("sprints", "cannot be nil", domain.ErrValidation)
	}
	if members == nil {
		return nil, domain.NewValidationError("members", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &StatsService{
		stats:    stats,
		projects: projects,
		sprints:  sprints,
		members:  members,
		logger:   logger.With(slog.String("component", "stats_service")),
	}, nil
}

// StatusOverview counts a project's tasks by status, optionally narrowed
// to a sprint.
func (s *StatsService) StatusOverview(
	ctx context.Context,
	projectID uuid.UUID,
	sprintID *uuid.UUID,
) (*StatusOverview, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}

	counts, err := s.stats.CountByStatus(ctx, projectID, sprintID)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, count := range counts {
		total += count
	}

	return &StatusOverview{
		TotalWorkItems: total,
		ByStatus:       counts,
	}, nil
}

// TeamWorkload computes per-assignee task counts and shares.
func (s *StatsService) TeamWorkload(
	ctx context.Context,
	projectID uuid.UUID,
	sprintID *uuid.UUID,
) (*TeamWorkload, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}

	counts, err := s.stats.CountByAssignee(ctx, projectID, sprintID)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, count := range counts {
		total += count
	}

	workload := &TeamWorkload{
		Total:   total,
		Members: []MemberLoad{},
	}
	for memberID, count := range counts {
		if memberID == uuid.Nil {
			workload.UnassignedCount = count
			workload.UnassignedShare = share(count, total)
			continue
		}
		workload.Members = append(workload.Members, MemberLoad{
			MemberID: memberID,
			Count:    count,
			Share:    share(count, total),
		})
	}

	return workload, nil
}

// SprintProgress summarizes one sprint's completed, active and blocked
// counts and percentages.
func (s *StatsService) SprintProgress(ctx context.Context, sprintID uuid.UUID) (*SprintProgress, error) {
	sprint, err := s.sprints.GetByID(ctx, sprintID)
	if err != nil {
		return nil, err
	}

	counts, err := s.stats.CountByStatus(ctx, sprint.ProjectID, &sprintID)
	if err != nil {
		return nil, err
	}

	progress := &SprintProgress{SprintID: sprintID}
	for status, count := range counts {
		progress.Total += count
		switch status {
		case domain.TaskStatusClosed:
			progress.Completed += count
		case domain.TaskStatusOngoing, domain.TaskStatusUnderReview:
			progress.Active += count
		case domain.TaskStatusRejected, domain.TaskStatusOverdue:
			progress.Blocked += count
		}
	}
	progress.CompletedPct = share(progress.Completed, progress.Total)
	progress.ActivePct = share(progress.Active, progress.Total)
	progress.BlockedPct = share(progress.Blocked, progress.Total)

	return progress, nil
}

// PriorityBreakdown counts a project's tasks by priority level.
func (s *StatsService) PriorityBreakdown(
	ctx context.Context,
	projectID uuid.UUID,
	sprintID *uuid.UUID,
) (*PriorityBreakdown, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}

	counts, err := s.stats.CountByPriority(ctx, projectID, sprintID)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, count := range counts {
		total += count
	}

	breakdown := &PriorityBreakdown{
		Total:      total,
		Priorities: []PriorityShare{},
	}
	for _, priority := range []domain.TaskPriority{
		domain.TaskPriorityHigh, domain.TaskPriorityMiddle, domain.TaskPriorityLow,
	} {
		count, ok := counts[priority]
		if !ok {
			continue
		}
		breakdown.Priorities = append(breakdown.Priorities, PriorityShare{
			Priority: priority,
			Count:    count,
			Share:    share(count, total),
		})
	}

	return breakdown, nil
}

// RecentActivity computes the trailing and forward 7-day windows.
func (s *StatsService) RecentActivity(ctx context.Context, projectID uuid.UUID) (*RecentActivity, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}

	counts, err := s.stats.Activity(ctx, projectID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	return &RecentActivity{
		CreatedLast7Days:   counts.CreatedLast7Days,
		UpdatedLast7Days:   counts.UpdatedLast7Days,
		CompletedLast7Days: counts.CompletedLast7Days,
		DueNext7Days:       counts.DueNext7Days,
	}, nil
}

// MemberProductivity computes one member's productivity score:
//
//	round(completionRate*60 + (1 - avgHours/8)*20 + (1 - (overdue+rejected)/total)*20)
//
// A member with zero tasks has no score; ErrNoProductivityData signals the
// "no data" case so handlers can render it distinctly from a score of 0.
func (s *StatsService) MemberProductivity(ctx context.Context, memberID uuid.UUID) (*ProductivityReport, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.members.GetByID(ctx, memberID); err != nil {
		return nil, err
	}

	facts, err := s.stats.MemberFacts(ctx, memberID)
	if err != nil {
		return nil, err
	}

	if facts.Total == 0 {
		return nil, ErrNoProductivityData
	}

	rate := float64(facts.Closed) / float64(facts.Total)
	troubled := float64(facts.Overdue+facts.Rejected) / float64(facts.Total)
	score := math.Round(
		rate*60 +
			(1-facts.AvgCompletionHours/8)*20 +
			(1-troubled)*20,
	)

	log.Debug("computed productivity score",
		slog.String("member_id", memberID.String()),
		slog.Int("total_tasks", facts.Total),
		slog.Float64("score", score))

	return &ProductivityReport{
		MemberID:           memberID,
		TotalTasks:         facts.Total,
		ClosedTasks:        facts.Closed,
		OverdueTasks:       facts.Overdue,
		RejectedTasks:      facts.Rejected,
		CompletionRate:     rate,
		AvgCompletionHours: facts.AvgCompletionHours,
		Score:              int(score),
	}, nil
}

func share(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total)
}
