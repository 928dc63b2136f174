package handlers

import (
	"bytes"
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/audiogram/internal/audiogram"
	"github.com/RMahshie/audiogram/internal/chart"
	"github.com/RMahshie/audiogram/internal/processing"
	"github.com/RMahshie/audiogram/internal/repository"
	"github.com/RMahshie/audiogram/internal/session"
	"github.com/RMahshie/audiogram/pkg/models"
)

// SessionHandler handles session and chart HTTP requests
type SessionHandler struct {
	repo     repository.SessionRepository
	geom     chart.Geometry
	archives processing.ExportService // optional, discards archived exports
}

// NewSessionHandler creates a new session handler. archives may be nil.
func NewSessionHandler(repo repository.SessionRepository, geom chart.Geometry, archives processing.ExportService) *SessionHandler {
	return &SessionHandler{repo: repo, geom: geom, archives: archives}
}

// session resolves and touches the addressed session
func (h *SessionHandler) session(ctx context.Context, id string) (*session.Session, error) {
	sessionID, err := ParseSessionID(id)
	if err != nil {
		return nil, err
	}
	s, err := h.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, apiError(err, "Failed to load session")
	}
	if err := h.repo.Touch(ctx, sessionID); err != nil {
		log.Warn().Err(err).Str("sessionID", id).Msg("Failed to touch session")
	}
	return s, nil
}

func stateResponse(s *session.Session, st audiogram.State) *models.SessionResponse {
	return &models.SessionResponse{Body: StateBody(s, st)}
}

// GetGeometry returns the chart geometry and axis ticks
func (h *SessionHandler) GetGeometry(ctx context.Context, req *struct{}) (*models.GetGeometryResponse, error) {
	resp := &models.GetGeometryResponse{}
	resp.Body.Geometry = models.Geometry{
		Width:        h.geom.Width,
		Height:       h.geom.Height,
		MarginLeft:   h.geom.MarginLeft,
		MarginRight:  h.geom.MarginRight,
		MarginTop:    h.geom.MarginTop,
		MarginBottom: h.geom.MarginBottom,
	}
	resp.Body.Frequencies = chart.Frequencies()
	resp.Body.MinDb = chart.MinDb
	resp.Body.MaxDb = chart.MaxDb
	resp.Body.SnapIncrement = chart.SnapIncrement
	resp.Body.YTicks = ticks(h.geom.YTicks())
	resp.Body.XTicks = ticks(h.geom.XTicks())
	return resp, nil
}

// CreateSession starts a new audiogram session
func (h *SessionHandler) CreateSession(ctx context.Context, req *struct{}) (*models.SessionResponse, error) {
	s := session.New(h.geom)
	if err := h.repo.Create(ctx, s); err != nil {
		return nil, huma.Error500InternalServerError("Failed to create session", err)
	}
	log.Info().Str("sessionID", s.ID.String()).Msg("Session created")
	return stateResponse(s, s.Snapshot()), nil
}

// GetSession returns a session's state
func (h *SessionHandler) GetSession(ctx context.Context, req *models.SessionRequest) (*models.SessionResponse, error) {
	s, err := h.session(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return stateResponse(s, s.Snapshot()), nil
}

// DeleteSession discards a session
func (h *SessionHandler) DeleteSession(ctx context.Context, req *models.SessionRequest) (*models.DeleteSessionResponse, error) {
	sessionID, err := ParseSessionID(req.ID)
	if err != nil {
		return nil, err
	}
	if err := h.repo.Delete(ctx, sessionID); err != nil {
		return nil, apiError(err, "Failed to delete session")
	}
	if h.archives != nil {
		// the session is already gone, so a failed discard is only logged
		if _, err := h.archives.Discard(ctx, sessionID); err != nil {
			log.Warn().Err(err).Str("sessionID", req.ID).Msg("Failed to discard archived exports")
		}
	}
	log.Info().Str("sessionID", req.ID).Msg("Session deleted")
	return &models.DeleteSessionResponse{}, nil
}

// UpdateThreshold sets one threshold directly
func (h *SessionHandler) UpdateThreshold(ctx context.Context, req *models.UpdateThresholdRequest) (*models.SessionResponse, error) {
	s, err := h.session(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	ear, err := audiogram.ParseEar(req.Body.Ear)
	if err != nil {
		return nil, apiError(err, "")
	}
	c, err := audiogram.ParseConduction(req.Body.Conduction)
	if err != nil {
		return nil, apiError(err, "")
	}
	st, err := s.UpdateThreshold(ear, c, req.Body.Frequency, req.Body.Value)
	if err != nil {
		return nil, apiError(err, "Failed to update threshold")
	}
	db, _ := st.Ear(ear).Get(c).Get(req.Body.Frequency)
	log.Info().
		Str("sessionID", req.ID).
		Str("ear", string(ear)).
		Str("conduction", string(c)).
		Int("frequency", req.Body.Frequency).
		Int("value", db).
		Msg("Threshold updated")
	return stateResponse(s, st), nil
}

// SetEditingMode switches the conduction an ear's chart edits
func (h *SessionHandler) SetEditingMode(ctx context.Context, req *models.SetEditingRequest) (*models.SessionResponse, error) {
	s, err := h.session(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	ear, err := audiogram.ParseEar(req.Body.Ear)
	if err != nil {
		return nil, apiError(err, "")
	}
	c, err := audiogram.ParseConduction(req.Body.Conduction)
	if err != nil {
		return nil, apiError(err, "")
	}
	st, err := s.SetEditingMode(ear, c)
	if err != nil {
		return nil, apiError(err, "Failed to set editing mode")
	}
	return stateResponse(s, st), nil
}

// Reset restores default thresholds and selectors
func (h *SessionHandler) Reset(ctx context.Context, req *models.ResetRequest) (*models.SessionResponse, error) {
	s, err := h.session(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	clearPatient := req.Body != nil && req.Body.ClearPatient
	st := s.Reset(clearPatient)
	log.Info().Str("sessionID", req.ID).Bool("clearPatient", clearPatient).Msg("Session reset")
	return stateResponse(s, st), nil
}

// UpdatePatient sets the given patient fields
func (h *SessionHandler) UpdatePatient(ctx context.Context, req *models.UpdatePatientRequest) (*models.SessionResponse, error) {
	s, err := h.session(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	fields := map[string]string{}
	if req.Body.Name != nil {
		fields[audiogram.FieldName] = *req.Body.Name
	}
	if req.Body.ExamDate != nil {
		fields[audiogram.FieldExamDate] = *req.Body.ExamDate
	}
	if req.Body.BirthDate != nil {
		fields[audiogram.FieldBirthDate] = *req.Body.BirthDate
	}
	st, err := s.UpdatePatient(fields)
	if err != nil {
		return nil, apiError(err, "Failed to update patient")
	}
	return stateResponse(s, st), nil
}

// SetTheme sets or toggles the display theme
func (h *SessionHandler) SetTheme(ctx context.Context, req *models.SetThemeRequest) (*models.SessionResponse, error) {
	s, err := h.session(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if req.Body.Theme == "toggle" {
		return stateResponse(s, s.ToggleTheme()), nil
	}
	theme, err := audiogram.ParseTheme(req.Body.Theme)
	if err != nil {
		return nil, apiError(err, "")
	}
	st, err := s.SetTheme(theme)
	if err != nil {
		return nil, apiError(err, "Failed to set theme")
	}
	return stateResponse(s, st), nil
}

// ValidatePatient lists the missing required patient fields
func (h *SessionHandler) ValidatePatient(ctx context.Context, req *models.SessionRequest) (*models.ValidatePatientResponse, error) {
	s, err := h.session(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	resp := &models.ValidatePatientResponse{}
	resp.Body.Errors = s.ValidatePatient()
	if resp.Body.Errors == nil {
		resp.Body.Errors = []string{}
	}
	resp.Body.Valid = len(resp.Body.Errors) == 0
	return resp, nil
}

// PointerEvent applies one pointer event to an ear's chart
func (h *SessionHandler) PointerEvent(ctx context.Context, req *models.PointerEventRequest) (*models.PointerEventResponse, error) {
	s, err := h.session(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	ear, err := audiogram.ParseEar(req.Ear)
	if err != nil {
		return nil, apiError(err, "")
	}
	res, err := s.Pointer(ear, PointerEvent(req.Body))
	if err != nil {
		return nil, apiError(err, "Failed to apply pointer event")
	}
	return &models.PointerEventResponse{Body: PointerBody(res)}, nil
}

// ChartSVG renders an ear's chart as SVG
func (h *SessionHandler) ChartSVG(ctx context.Context, req *models.ChartRequest) (*models.ChartSVGResponse, error) {
	s, err := h.session(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	ear, err := audiogram.ParseEar(req.Ear)
	if err != nil {
		return nil, apiError(err, "")
	}
	var buf bytes.Buffer
	if err := s.RenderSVG(&buf, ear); err != nil {
		return nil, apiError(err, "Failed to render chart")
	}
	return &models.ChartSVGResponse{ContentType: "image/svg+xml", Body: buf.Bytes()}, nil
}

// Health returns service health and the live session count
func (h *SessionHandler) Health(ctx context.Context, req *struct{}) (*models.HealthResponse, error) {
	resp := &models.HealthResponse{}
	resp.Body.Status = "healthy"
	resp.Body.Version = "1.0.0"
	resp.Body.Time = time.Now()
	n, err := h.repo.Count(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to count sessions")
	}
	resp.Body.Sessions = n
	return resp, nil
}
