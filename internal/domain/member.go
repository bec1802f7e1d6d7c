package domain

import (
	"errors"

	"github.com/google/uuid"
)

// Role identifies a project member's permission level. The numeric values
// match the role_id column of the existing store.
type Role int

// Defined roles.
const (
	RoleAdmin   Role = 1
	RoleManager Role = 2
	RoleMember  Role = 3
)

// IsValid reports whether the role is one of the defined roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleMember:
		return true
	}
	return false
}

// Name returns the human-readable role name.
func (r Role) Name() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleManager:
		return "manager"
	case RoleMember:
		return "member"
	}
	return "unknown"
}

// Capability is a named permission a role may grant. Services check
// capabilities rather than comparing role IDs, so the permission model
// lives in one place.
type Capability string

// Defined capabilities.
const (
	CapManageProject  Capability = "manage_project"
	CapManageSprints  Capability = "manage_sprints"
	CapAssignTasks    Capability = "assign_tasks"
	CapViewStatistics Capability = "view_statistics"
)

// roleCapabilities enumerates the capability set of each role.
var roleCapabilities = map[Role][]Capability{
	RoleAdmin:   {CapManageProject, CapManageSprints, CapAssignTasks, CapViewStatistics},
	RoleManager: {CapManageSprints, CapAssignTasks, CapViewStatistics},
	RoleMember:  {CapViewStatistics},
}

// Has reports whether the role grants the given capability.
func (r Role) Has(c Capability) bool {
	for _, cap := range roleCapabilities[r] {
		if cap == c {
			return true
		}
	}
	return false
}

// BusyLevel describes a member's self-reported workload.
type BusyLevel string

// Possible busy level values.
const (
	BusyLevelFree   BusyLevel = "free"
	BusyLevelLow    BusyLevel = "low"
	BusyLevelMedium BusyLevel = "medium"
	BusyLevelHigh   BusyLevel = "high"
)

// IsValid reports whether the busy level is one of the defined values.
func (b BusyLevel) IsValid() bool {
	switch b {
	case BusyLevelFree, BusyLevelLow, BusyLevelMedium, BusyLevelHigh:
		return true
	}
	return false
}

// ProjectMember-specific validation errors.
var (
	// ErrMemberIDEmpty is returned when a member ID is empty or nil.
	ErrMemberIDEmpty = errors.New("project member ID cannot be empty")

	// ErrMemberUserIDEmpty is returned when a member's user ID is empty or nil.
	ErrMemberUserIDEmpty = errors.New("project member user ID cannot be empty")

	// ErrMemberProjectIDEmpty is returned when a member's project ID is empty or nil.
	ErrMemberProjectIDEmpty = errors.New("project member project ID cannot be empty")

	// ErrInvalidRole is returned when a role ID is not one of the defined roles.
	ErrInvalidRole = errors.New("invalid role")

	// ErrInvalidBusyLevel is returned when a busy level is not valid.
	ErrInvalidBusyLevel = errors.New("invalid busy level")
)

// ProjectMember is the actor identity used throughout the lifecycle
// engines. Tasks are assigned between members, not users, because
// permissions and assignment are project-scoped.
type ProjectMember struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ProjectID uuid.UUID `json:"project_id"`
	Role      Role      `json:"role_id"`
	Position  string    `json:"position"`
	BusyLevel BusyLevel `json:"busy_level"`
}

// Validate checks if the ProjectMember has valid data.
func (m *ProjectMember) Validate() error {
	if m.ID == uuid.Nil {
		return ErrMemberIDEmpty
	}
	if m.UserID == uuid.Nil {
		return ErrMemberUserIDEmpty
	}
	if m.ProjectID == uuid.Nil {
		return ErrMemberProjectIDEmpty
	}
	if !m.Role.IsValid() {
		return ErrInvalidRole
	}
	if !m.BusyLevel.IsValid() {
		return ErrInvalidBusyLevel
	}
	return nil
}
