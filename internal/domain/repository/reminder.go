package repository

import (
	"context"

	"github.com/avilar/recordatorio-bot/internal/domain/entity"
)

// ReminderStore defines the interface for durable reminder data operations.
// Implementations are the single writer of durable state and must serialize
// their mutations; every mutating call persists before returning.
//
// Reminders are addressed by position within a user's list. Positions are
// stable only between mutations, so callers must validate an index against
// the current list immediately before using it.
type ReminderStore interface {
	// ListFor retrieves the reminders of a user in list order.
	ListFor(ctx context.Context, userID string) ([]entity.Reminder, error)
	// Users retrieves every user identifier that owns at least one reminder.
	Users(ctx context.Context) ([]string, error)
	// Append adds a reminder at the end of the user's list.
	Append(ctx context.Context, userID string, reminder entity.Reminder) error
	// UpdateAt applies mutate to the reminder at index.
	// Returns ErrInvalidIndex when index is out of range.
	UpdateAt(ctx context.Context, userID string, index int, mutate func(*entity.Reminder)) error
	// RemoveAt deletes the reminder at index, shifting later positions down.
	// Returns ErrInvalidIndex when index is out of range.
	RemoveAt(ctx context.Context, userID string, index int) error
}
