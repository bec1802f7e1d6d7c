// Package service provides the application-level lifecycle engines for
// tasks, sprints, timers and read-side statistics.
package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// These errors represent conditions that callers check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in service-specific error types
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrInvalidTransition indicates a status change to a target the caller
	// is not allowed to set. "ongoing" and "overdue" are system-only.
	// API layer should map this to HTTP 400 Bad Request.
	ErrInvalidTransition = errors.New("status is not a caller-settable target")

	// ErrNoRunningTimer indicates a stop request when the user has no
	// running time entry.
	// API layer should map this to HTTP 409 Conflict.
	ErrNoRunningTimer = errors.New("no running timer to stop")

	// ErrPermissionDenied indicates the acting member lacks the capability
	// the operation requires.
	// API layer should map this to HTTP 403 Forbidden.
	ErrPermissionDenied = errors.New("member lacks the required capability")

	// ErrNotProjectMember indicates the referenced member does not belong
	// to the task's project. Raised on creation and reassignment.
	// API layer should map this to HTTP 403 Forbidden.
	ErrNotProjectMember = errors.New("member does not belong to the project")

	// ErrNotAssigner indicates an operation reserved for the task's
	// original assigner was attempted by someone else.
	// API layer should map this to HTTP 403 Forbidden.
	ErrNotAssigner = errors.New("operation is restricted to the task's assigner")

	// ErrNoProductivityData indicates a productivity score was requested
	// for a member with zero assigned tasks. Not an error condition in the
	// HTTP sense; handlers render it as an explicit "no data" response.
	ErrNoProductivityData = errors.New("member has no tasks to score")
)
