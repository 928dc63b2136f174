package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/RMahshie/audiogram/internal/export"
	"github.com/RMahshie/audiogram/internal/processing"
	"github.com/RMahshie/audiogram/internal/repository"
	"github.com/RMahshie/audiogram/pkg/models"
)

// ExportHandler handles PNG export requests
type ExportHandler struct {
	exporter processing.ExportService
}

// NewExportHandler creates a new export handler
func NewExportHandler(exporter processing.ExportService) *ExportHandler {
	return &ExportHandler{exporter: exporter}
}

// Export renders the session's audiogram and returns it as a PNG download
func (h *ExportHandler) Export(ctx context.Context, req *models.SessionRequest) (*models.ExportResponse, error) {
	sessionID, err := ParseSessionID(req.ID)
	if err != nil {
		return nil, err
	}

	log.Info().Str("sessionID", req.ID).Msg("Export requested")
	result, err := h.exporter.Export(ctx, sessionID)
	if err != nil {
		var verr *export.ValidationError
		if !errors.Is(err, repository.ErrSessionNotFound) && !errors.As(err, &verr) {
			log.Error().Err(err).Str("sessionID", req.ID).Msg("Export failed")
		}
		return nil, apiError(err, "Failed to export PNG. Please try again.")
	}

	return &models.ExportResponse{
		ContentType:        "image/png",
		ContentDisposition: fmt.Sprintf("attachment; filename=%q", result.Filename),
		ArchiveURL:         result.DownloadURL,
		Body:               result.Image,
	}, nil
}
