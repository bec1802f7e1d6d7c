package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Notification-specific validation errors.
var (
	// ErrNotificationIDEmpty is returned when a notification ID is empty or nil.
	ErrNotificationIDEmpty = errors.New("notification ID cannot be empty")

	// ErrNotificationUserIDEmpty is returned when a notification's receiver is empty or nil.
	ErrNotificationUserIDEmpty = errors.New("notification user ID cannot be empty")

	// ErrNotificationTitleEmpty is returned when a notification's title is empty.
	ErrNotificationTitleEmpty = errors.New("notification title cannot be empty")
)

// Notification is an in-app message addressed to a user. Rows are produced
// by lifecycle events inside the same transaction as the state change they
// describe, never directly by users.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	UserID    uuid.UUID `json:"user_id"`
	IsViewed  bool      `json:"is_viewed"`
	CreatedAt time.Time `json:"created_at"`
}

// NewNotification creates an unviewed notification addressed to the given user.
// Returns an error if validation fails.
func NewNotification(userID uuid.UUID, title, message string) (*Notification, error) {
	n := &Notification{
		ID:        uuid.New(),
		Title:     title,
		Message:   message,
		UserID:    userID,
		IsViewed:  false,
		CreatedAt: time.Now().UTC(),
	}

	if err := n.Validate(); err != nil {
		return nil, err
	}

	return n, nil
}

// Validate checks if the Notification has valid data.
func (n *Notification) Validate() error {
	if n.ID == uuid.Nil {
		return ErrNotificationIDEmpty
	}
	if n.UserID == uuid.Nil {
		return ErrNotificationUserIDEmpty
	}
	if n.Title == "" {
		return ErrNotificationTitleEmpty
	}
	return nil
}
