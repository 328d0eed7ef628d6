package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/avilar/recordatorio-bot/internal/domain/entity"
	"github.com/avilar/recordatorio-bot/internal/domain/repository"
	appErrors "github.com/avilar/recordatorio-bot/internal/pkg/errors"
	"github.com/avilar/recordatorio-bot/internal/pkg/logger"
)

// reminderRecord is the on-disk shape of a reminder. The layout is a
// compatibility contract with the previous deployment's data file:
// one JSON object keyed by normalized user id, values are arrays of
// these records, "proxima" in epoch milliseconds.
type reminderRecord struct {
	Nombre    string    `json:"nombre"`
	Fecha     time.Time `json:"fecha"`
	Intervalo int       `json:"intervalo"`
	Proxima   int64     `json:"proxima"`
}

// Store is the default ReminderStore: an in-memory map persisted as a full
// JSON snapshot after every mutation. Writes go through a temp file in the
// same directory followed by a rename, so a crash mid-write leaves the
// previous snapshot intact.
type Store struct {
	path string
	log  logger.Logger

	mu        sync.Mutex
	reminders map[string][]entity.Reminder
}

// New opens (or starts) the snapshot at path. A missing file yields an
// empty store; an unreadable or corrupt file is logged and also yields an
// empty store, matching how the previous deployment recovered.
func New(path string, log logger.Logger) *Store {
	s := &Store{
		path:      path,
		log:       log,
		reminders: make(map[string][]entity.Reminder),
	}
	s.load()
	return s
}

var _ repository.ReminderStore = (*Store)(nil)

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn(fmt.Sprintf("Could not read snapshot %s, starting empty: %v", s.path, err))
		}
		return
	}

	var records map[string][]reminderRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.log.Warn(fmt.Sprintf("Corrupt snapshot %s, starting empty: %v", s.path, err))
		return
	}

	for userID, recs := range records {
		list := make([]entity.Reminder, 0, len(recs))
		for _, rec := range recs {
			list = append(list, entity.Reminder{
				UserID:    userID,
				Nombre:    rec.Nombre,
				Fecha:     rec.Fecha,
				Intervalo: rec.Intervalo,
				Proxima:   time.UnixMilli(rec.Proxima),
			})
		}
		s.reminders[userID] = list
	}
	s.log.Info(fmt.Sprintf("Loaded snapshot %s (%d users)", s.path, len(s.reminders)))
}

// persist rewrites the full snapshot. Callers must hold s.mu.
func (s *Store) persist() error {
	records := make(map[string][]reminderRecord, len(s.reminders))
	for userID, list := range s.reminders {
		recs := make([]reminderRecord, 0, len(list))
		for _, r := range list {
			recs = append(recs, reminderRecord{
				Nombre:    r.Nombre,
				Fecha:     r.Fecha,
				Intervalo: r.Intervalo,
				Proxima:   r.Proxima.UnixMilli(),
			})
		}
		records[userID] = recs
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrPersistSnapshot, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrPersistSnapshot, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", appErrors.ErrPersistSnapshot, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", appErrors.ErrPersistSnapshot, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", appErrors.ErrPersistSnapshot, err)
	}
	return nil
}

// ListFor retrieves the reminders of a user in list order.
func (s *Store) ListFor(ctx context.Context, userID string) ([]entity.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.reminders[userID]
	out := make([]entity.Reminder, len(list))
	copy(out, list)
	return out, nil
}

// Users retrieves every user identifier that owns at least one reminder.
func (s *Store) Users(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]string, 0, len(s.reminders))
	for userID, list := range s.reminders {
		if len(list) > 0 {
			users = append(users, userID)
		}
	}
	return users, nil
}

// Append adds a reminder at the end of the user's list and persists.
func (s *Store) Append(ctx context.Context, userID string, reminder entity.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reminder.UserID = userID
	s.reminders[userID] = append(s.reminders[userID], reminder)
	return s.persist()
}

// UpdateAt applies mutate to the reminder at index and persists.
func (s *Store) UpdateAt(ctx context.Context, userID string, index int, mutate func(*entity.Reminder)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.reminders[userID]
	if index < 0 || index >= len(list) {
		return fmt.Errorf("%w: %d de %d", appErrors.ErrInvalidIndex, index, len(list))
	}
	mutate(&list[index])
	list[index].UserID = userID
	return s.persist()
}

// RemoveAt deletes the reminder at index and persists. Later positions
// shift down by one.
func (s *Store) RemoveAt(ctx context.Context, userID string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.reminders[userID]
	if index < 0 || index >= len(list) {
		return fmt.Errorf("%w: %d de %d", appErrors.ErrInvalidIndex, index, len(list))
	}
	s.reminders[userID] = append(list[:index], list[index+1:]...)
	if len(s.reminders[userID]) == 0 {
		delete(s.reminders, userID)
	}
	return s.persist()
}
