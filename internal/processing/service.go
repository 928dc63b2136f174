package processing

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/audiogram/internal/export"
	"github.com/RMahshie/audiogram/internal/repository"
	"github.com/RMahshie/audiogram/internal/storage"
)

// ExportResult is a finished PNG export
type ExportResult struct {
	Filename    string
	Image       []byte
	DownloadURL string // empty unless the image was archived
}

type ExportService interface {
	Export(ctx context.Context, sessionID uuid.UUID) (*ExportResult, error)
	// Discard deletes every archived export of a session and returns how
	// many were removed
	Discard(ctx context.Context, sessionID uuid.UUID) (int, error)
}

type exportService struct {
	sessions repository.SessionRepository
	images   storage.ImageStore // nil disables archiving
	renderer *export.Renderer
	prefix   string
	slots    chan struct{} // nil means unlimited

	mu       sync.Mutex
	archived map[uuid.UUID][]string
}

// NewExportService creates the export pipeline. At most maxConcurrent
// exports render at once; zero or less means no limit.
func NewExportService(sessions repository.SessionRepository, images storage.ImageStore, renderer *export.Renderer, prefix string, maxConcurrent int) ExportService {
	s := &exportService{
		sessions: sessions,
		images:   images,
		renderer: renderer,
		prefix:   prefix,
		archived: make(map[uuid.UUID][]string),
	}
	if maxConcurrent > 0 {
		s.slots = make(chan struct{}, maxConcurrent)
	}
	return s
}

func (s *exportService) Export(ctx context.Context, sessionID uuid.UUID) (*ExportResult, error) {
	// Step 1: Load the session snapshot
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	state := sess.Snapshot()

	// Step 2: Wait for a render slot
	if s.slots != nil {
		select {
		case s.slots <- struct{}{}:
			defer func() { <-s.slots }()
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for export slot: %w", ctx.Err())
		}
	}

	// Step 3: Render, which refuses incomplete patient data
	img, err := s.renderer.Render(export.DocumentFromState(state))
	if err != nil {
		return nil, err
	}

	// Step 4: Encode fully in memory before anything is handed out
	data, err := export.EncodeBytes(img)
	if err != nil {
		return nil, err
	}

	result := &ExportResult{
		Filename: export.Filename(state.Patient, s.prefix),
		Image:    data,
	}

	// Step 5: Archive. The export already succeeded, so failures here are
	// only logged.
	if s.images != nil {
		key := fmt.Sprintf("exports/%s/%s", sessionID, result.Filename)
		if err := s.images.Upload(ctx, key, "image/png", data); err != nil {
			log.Warn().Err(err).Str("sessionID", sessionID.String()).Str("key", key).Msg("Failed to archive export")
		} else {
			s.remember(sessionID, key)
			if url, err := s.images.GenerateDownloadURL(ctx, key); err != nil {
				log.Warn().Err(err).Str("sessionID", sessionID.String()).Str("key", key).Msg("Failed to generate archive URL")
			} else {
				result.DownloadURL = url
			}
		}
	}

	log.Info().
		Str("sessionID", sessionID.String()).
		Str("filename", result.Filename).
		Int("bytes", len(data)).
		Bool("archived", result.DownloadURL != "").
		Msg("Export completed")

	return result, nil
}

func (s *exportService) remember(sessionID uuid.UUID, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.archived[sessionID], key) {
		s.archived[sessionID] = append(s.archived[sessionID], key)
	}
}

func (s *exportService) Discard(ctx context.Context, sessionID uuid.UUID) (int, error) {
	s.mu.Lock()
	keys := s.archived[sessionID]
	delete(s.archived, sessionID)
	s.mu.Unlock()

	if s.images == nil || len(keys) == 0 {
		return 0, nil
	}

	var (
		errs    []error
		removed int
	)
	for _, key := range keys {
		if err := s.images.DeleteFile(ctx, key); err != nil {
			// kept so a later discard can retry it
			s.remember(sessionID, key)
			errs = append(errs, err)
			continue
		}
		removed++
	}

	log.Info().
		Str("sessionID", sessionID.String()).
		Int("removed", removed).
		Int("failed", len(errs)).
		Msg("Archived exports discarded")

	return removed, errors.Join(errs...)
}
