package handlers

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/RMahshie/audiogram/internal/audiogram"
	"github.com/RMahshie/audiogram/internal/export"
	"github.com/RMahshie/audiogram/internal/repository"
	"github.com/RMahshie/audiogram/internal/session"
)

// ParseSessionID parses a path session ID.
func ParseSessionID(id string) (uuid.UUID, error) {
	sessionID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, huma.Error400BadRequest("Invalid session ID", err)
	}
	return sessionID, nil
}

// apiError maps domain errors onto HTTP errors.
func apiError(err error, fallback string) error {
	var verr *export.ValidationError
	switch {
	case errors.Is(err, repository.ErrSessionNotFound):
		return huma.Error404NotFound("Session not found", err)
	case errors.As(err, &verr):
		details := make([]error, 0, len(verr.Messages))
		for _, m := range verr.Messages {
			details = append(details, &huma.ErrorDetail{Message: m, Location: "body.patient"})
		}
		return huma.Error422UnprocessableEntity("Patient data incomplete", details...)
	case errors.Is(err, audiogram.ErrUnknownEar),
		errors.Is(err, audiogram.ErrUnknownConduction),
		errors.Is(err, audiogram.ErrUnknownFrequency),
		errors.Is(err, audiogram.ErrUnknownTheme),
		errors.Is(err, audiogram.ErrUnknownPatientField),
		errors.Is(err, session.ErrUnknownEvent),
		errors.Is(err, session.ErrPartialTarget):
		return huma.Error400BadRequest(err.Error(), err)
	}
	return huma.Error500InternalServerError(fallback, err)
}
