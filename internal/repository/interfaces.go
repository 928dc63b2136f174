package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/RMahshie/audiogram/internal/session"
)

// ErrSessionNotFound is returned when no live session has the given ID
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository defines the interface for session lookup and lifetime
type SessionRepository interface {
	Create(ctx context.Context, s *session.Session) error
	Get(ctx context.Context, id uuid.UUID) (*session.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Touch(ctx context.Context, id uuid.UUID) error
	PurgeExpired(ctx context.Context, olderThan time.Duration) ([]uuid.UUID, error)
	Count(ctx context.Context) (int, error)
}
