package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	appErrors "github.com/avilar/recordatorio-bot/internal/pkg/errors"
	"github.com/avilar/recordatorio-bot/internal/pkg/logger"
)

// FileProvider serves the authorized-user set from a JSON array file
// (usuarios.json). Every query checks whether the file changed on disk and
// reloads it if so, so the core always sees the latest snapshot without a
// filesystem watcher. A malformed or unreadable file keeps the previous
// in-memory snapshot.
type FileProvider struct {
	path string
	log  logger.Logger

	mu      sync.Mutex
	users   map[string]struct{}
	modTime time.Time
	size    int64
}

// NewFileProvider creates a provider for the given file and performs the
// first load. A load failure at startup leaves the set empty; nobody is
// authorized until the file becomes readable.
func NewFileProvider(path string, log logger.Logger) *FileProvider {
	p := &FileProvider{
		path:  path,
		log:   log,
		users: make(map[string]struct{}),
	}
	if err := p.Reload(); err != nil {
		p.log.Warn(fmt.Sprintf("Initial load of %s failed: %v", path, err))
	}
	return p
}

// IsAllowed reports whether the normalized user id is in the latest
// authorized set.
func (p *FileProvider) IsAllowed(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.maybeReloadLocked(); err != nil {
		p.log.Error("Reloading authorized users failed, keeping previous set", err)
	}
	_, ok := p.users[userID]
	return ok
}

// Reload forces a fresh read of the backing file.
func (p *FileProvider) Reload() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reloadLocked()
}

func (p *FileProvider) maybeReloadLocked() error {
	info, err := os.Stat(p.path)
	if err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrAuthSourceLoad, err)
	}
	if info.ModTime().Equal(p.modTime) && info.Size() == p.size {
		return nil
	}
	return p.reloadLocked()
}

func (p *FileProvider) reloadLocked() error {
	info, err := os.Stat(p.path)
	if err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrAuthSourceLoad, err)
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrAuthSourceLoad, err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrAuthSourceLoad, err)
	}

	users := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		users[id] = struct{}{}
	}
	p.users = users
	p.modTime = info.ModTime()
	p.size = info.Size()
	p.log.Info(fmt.Sprintf("Authorized users reloaded from %s (%d entries)", p.path, len(users)))
	return nil
}
