package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authorization errors
	case errors.Is(err, service.ErrPermissionDenied),
		errors.Is(err, service.ErrNotProjectMember),
		errors.Is(err, service.ErrNotAssigner):
		return http.StatusForbidden

	// Not found errors
	case store.IsNotFoundError(err):
		return http.StatusNotFound

	// Conflict errors
	case store.IsDuplicateError(err),
		errors.Is(err, service.ErrNoRunningTimer):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, domain.ErrInvalidTimeRange),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidPriority),
		errors.Is(err, domain.ErrDeadlineOutsideSprint),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	// Authorization errors
	case errors.Is(err, service.ErrNotAssigner):
		return "Only the task's assigner may do this"

	case errors.Is(err, service.ErrNotProjectMember):
		return "Member does not belong to this project"

	case errors.Is(err, service.ErrPermissionDenied):
		return "You do not have permission to do this"

	// Not found errors
	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, store.ErrSprintNotFound):
		return "Sprint not found"

	case errors.Is(err, store.ErrProjectNotFound):
		return "Project not found"

	case errors.Is(err, store.ErrMemberNotFound):
		return "Project member not found"

	case errors.Is(err, store.ErrNotificationNotFound):
		return "Notification not found"

	case store.IsNotFoundError(err):
		return "Resource not found"

	// Conflict errors
	case errors.Is(err, store.ErrActiveSprintExists):
		return "Project already has an active sprint"

	case errors.Is(err, store.ErrRunningTimerExists):
		return "A timer is already running"

	case errors.Is(err, service.ErrNoRunningTimer):
		return "No timer is running"

	// Bad request errors
	case errors.Is(err, service.ErrInvalidTransition):
		return "Status is not a valid transition target"

	case errors.Is(err, domain.ErrInvalidTimeRange):
		return "Invalid date range"

	case errors.Is(err, domain.ErrDeadlineOutsideSprint):
		return "Deadline must fall within the sprint window"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	// Default case for unknown errors
	default:
		return "An unexpected error occurred"
	}
}
