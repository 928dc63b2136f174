// Package memory is the in-process session repository. Sessions live only
// as long as the server process.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RMahshie/audiogram/internal/repository"
	"github.com/RMahshie/audiogram/internal/session"
)

type sessionRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*session.Session
	now      func() time.Time
}

// NewSessionRepository creates an empty in-memory session repository
func NewSessionRepository() repository.SessionRepository {
	return newSessionRepository(time.Now)
}

func newSessionRepository(now func() time.Time) *sessionRepository {
	return &sessionRepository{
		sessions: make(map[uuid.UUID]*session.Session),
		now:      now,
	}
}

func (r *sessionRepository) Create(ctx context.Context, s *session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s.ID]; ok {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	s.Touch(r.now())
	r.sessions[s.ID] = s
	return nil
}

func (r *sessionRepository) Get(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repository.ErrSessionNotFound, id)
	}
	return s, nil
}

func (r *sessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", repository.ErrSessionNotFound, id)
	}
	delete(r.sessions, id)
	return nil
}

func (r *sessionRepository) Touch(ctx context.Context, id uuid.UUID) error {
	s, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	s.Touch(r.now())
	return nil
}

// PurgeExpired drops sessions idle for longer than olderThan and returns
// their IDs
func (r *sessionRepository) PurgeExpired(ctx context.Context, olderThan time.Duration) ([]uuid.UUID, error) {
	cutoff := r.now().Add(-olderThan)

	r.mu.Lock()
	defer r.mu.Unlock()

	var purged []uuid.UUID
	for id, s := range r.sessions {
		if err := ctx.Err(); err != nil {
			return purged, err
		}
		if s.LastSeen().Before(cutoff) {
			delete(r.sessions, id)
			purged = append(purged, id)
		}
	}
	return purged, nil
}

func (r *sessionRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions), nil
}
