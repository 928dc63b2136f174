package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/audiogram/internal/chart"
	"github.com/RMahshie/audiogram/internal/repository"
	"github.com/RMahshie/audiogram/internal/session"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func TestSessionRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()

	s := session.New(chart.Default())
	require.NoError(t, repo.Create(ctx, s))
	assert.Error(t, repo.Create(ctx, s))

	got, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, repo.Delete(ctx, s.ID))
	_, err = repo.Get(ctx, s.ID)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, s.ID), repository.ErrSessionNotFound)
	assert.ErrorIs(t, repo.Touch(ctx, uuid.New()), repository.ErrSessionNotFound)
}

func TestSessionRepository_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Now()}
	repo := newSessionRepository(clock.now)

	idle := session.New(chart.Default())
	active := session.New(chart.Default())
	require.NoError(t, repo.Create(ctx, idle))
	require.NoError(t, repo.Create(ctx, active))

	clock.t = clock.t.Add(2 * time.Hour)
	require.NoError(t, repo.Touch(ctx, active.ID))

	clock.t = clock.t.Add(30 * time.Minute)
	purged, err := repo.PurgeExpired(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{idle.ID}, purged)

	_, err = repo.Get(ctx, idle.ID)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
	_, err = repo.Get(ctx, active.ID)
	assert.NoError(t, err)
}

func TestSessionRepository_PurgeHonoursContext(t *testing.T) {
	repo := NewSessionRepository()
	require.NoError(t, repo.Create(context.Background(), session.New(chart.Default())))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := repo.PurgeExpired(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}
