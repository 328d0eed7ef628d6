package sqlite

import (
	"context"
	"fmt"
	"sync"

	"github.com/avilar/recordatorio-bot/internal/domain/entity"
	"github.com/avilar/recordatorio-bot/internal/domain/repository"
	appErrors "github.com/avilar/recordatorio-bot/internal/pkg/errors"

	"gorm.io/gorm"
)

// reminderStore is the SQLite-backed ReminderStore. List order is the
// insertion order (auto-increment primary key). Index-addressed operations
// resolve the index against a fresh ordered read under the store mutex, so
// the read-modify-write sequence of one caller never interleaves with
// another's.
type reminderStore struct {
	db *gorm.DB
	mu sync.Mutex
}

// NewReminderStore creates a ReminderStore backed by the given connection.
func NewReminderStore(db *gorm.DB) repository.ReminderStore {
	return &reminderStore{db: db}
}

func (s *reminderStore) listLocked(ctx context.Context, userID string) ([]entity.Reminder, error) {
	var reminders []entity.Reminder
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id asc").Find(&reminders).Error; err != nil {
		return nil, fmt.Errorf("%w: find reminders for %s: %v", appErrors.ErrStoreOperation, userID, err)
	}
	return reminders, nil
}

// ListFor retrieves the reminders of a user in insertion order.
func (s *reminderStore) ListFor(ctx context.Context, userID string) ([]entity.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(ctx, userID)
}

// Users retrieves every user identifier that owns at least one reminder.
func (s *reminderStore) Users(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var users []string
	if err := s.db.WithContext(ctx).Model(&entity.Reminder{}).Distinct().Pluck("user_id", &users).Error; err != nil {
		return nil, fmt.Errorf("%w: pluck users: %v", appErrors.ErrStoreOperation, err)
	}
	return users, nil
}

// Append adds a reminder at the end of the user's list.
func (s *reminderStore) Append(ctx context.Context, userID string, reminder entity.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reminder.ID = 0
	reminder.UserID = userID
	if err := s.db.WithContext(ctx).Create(&reminder).Error; err != nil {
		return fmt.Errorf("%w: create reminder for %s: %v", appErrors.ErrStoreOperation, userID, err)
	}
	return nil
}

// UpdateAt applies mutate to the reminder at index.
func (s *reminderStore) UpdateAt(ctx context.Context, userID string, index int, mutate func(*entity.Reminder)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.listLocked(ctx, userID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(list) {
		return fmt.Errorf("%w: %d de %d", appErrors.ErrInvalidIndex, index, len(list))
	}

	reminder := list[index]
	mutate(&reminder)
	reminder.ID = list[index].ID
	reminder.UserID = userID
	if err := s.db.WithContext(ctx).Save(&reminder).Error; err != nil {
		return fmt.Errorf("%w: update reminder %d: %v", appErrors.ErrStoreOperation, reminder.ID, err)
	}
	return nil
}

// RemoveAt deletes the reminder at index.
func (s *reminderStore) RemoveAt(ctx context.Context, userID string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.listLocked(ctx, userID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(list) {
		return fmt.Errorf("%w: %d de %d", appErrors.ErrInvalidIndex, index, len(list))
	}

	if err := s.db.WithContext(ctx).Delete(&entity.Reminder{}, list[index].ID).Error; err != nil {
		return fmt.Errorf("%w: delete reminder %d: %v", appErrors.ErrStoreOperation, list[index].ID, err)
	}
	return nil
}
