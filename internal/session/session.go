// Package session ties one audiogram store to the two ear charts that edit
// it. A Session is the unit the HTTP and websocket layers address.
package session

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RMahshie/audiogram/internal/audiogram"
	"github.com/RMahshie/audiogram/internal/chart"
	"github.com/RMahshie/audiogram/internal/interact"
)

var (
	// ErrUnknownEvent is returned for pointer events of an unrecognized type.
	ErrUnknownEvent = errors.New("unknown pointer event")
	// ErrPartialTarget is returned for a down event naming only one of
	// frequency and conduction.
	ErrPartialTarget = errors.New("pointer target needs both frequency and conduction")
)

// EventType names a pointer event.
type EventType string

const (
	EventDown  EventType = "down"
	EventMove  EventType = "move"
	EventUp    EventType = "up"
	EventLeave EventType = "leave"
	EventClick EventType = "click"
)

// PointerEvent is one pointer input on an ear's chart. X and Y are canvas
// coordinates unless ViewWidth and ViewHeight give the size of the rendered
// box they were measured in. A down event naming Frequency and Conduction
// targets that marker directly instead of hit-testing; naming only one of
// them is an error.
type PointerEvent struct {
	Type       EventType `json:"type"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	ViewWidth  float64   `json:"view_width,omitempty"`
	ViewHeight float64   `json:"view_height,omitempty"`
	Frequency  int       `json:"frequency,omitempty"`
	Conduction string    `json:"conduction,omitempty"`
}

// PointerResult is the chart state after a pointer event.
type PointerResult struct {
	Ear        audiogram.Ear
	Phase      interact.Phase
	Applied    bool
	Target     *interact.Target
	Tooltip    interact.Tooltip
	Editing    audiogram.Conduction
	Thresholds audiogram.EarData
}

// Session is one user's audiogram: the threshold store plus a gesture
// controller per ear. All methods are safe for concurrent use; calls are
// applied one at a time in the order they acquire the session.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	mu       sync.Mutex
	geom     chart.Geometry
	store    *audiogram.Store
	charts   map[audiogram.Ear]*interact.Controller
	lastSeen time.Time
}

// New returns a session in the start state with charts drawn on geom.
func New(geom chart.Geometry) *Session {
	now := time.Now()
	store := audiogram.NewStore()
	s := &Session{
		ID:        uuid.New(),
		CreatedAt: now,
		geom:      geom,
		store:     store,
		charts:    make(map[audiogram.Ear]*interact.Controller, len(audiogram.Ears)),
		lastSeen:  now,
	}
	for _, ear := range audiogram.Ears {
		s.charts[ear] = interact.NewController(ear, geom, store)
	}
	return s
}

// Geometry returns the canvas geometry of the session's charts.
func (s *Session) Geometry() chart.Geometry {
	return s.geom
}

// Touch records activity at t.
func (s *Session) Touch(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.After(s.lastSeen) {
		s.lastSeen = t
	}
}

// LastSeen returns the time of the latest recorded activity.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Snapshot returns the current state.
func (s *Session) Snapshot() audiogram.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Snapshot()
}

// UpdateThreshold writes one threshold directly.
func (s *Session) UpdateThreshold(ear audiogram.Ear, c audiogram.Conduction, freq int, raw float64) (audiogram.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.UpdateThreshold(ear, c, freq, raw); err != nil {
		return audiogram.State{}, err
	}
	return s.store.Snapshot(), nil
}

// SetEditingMode switches which conduction an ear's chart edits.
func (s *Session) SetEditingMode(ear audiogram.Ear, c audiogram.Conduction) (audiogram.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.SetEditingMode(ear, c); err != nil {
		return audiogram.State{}, err
	}
	return s.store.Snapshot(), nil
}

// Reset restores the default thresholds and selectors. In-flight drags are
// ended. Patient metadata is kept unless clearPatient is set.
func (s *Session) Reset(clearPatient bool) audiogram.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.charts {
		c.EndDrag()
	}
	s.store.ResetAll()
	if clearPatient {
		s.store.ClearPatient()
	}
	return s.store.Snapshot()
}

// UpdatePatient sets the given patient fields, keyed by field name.
func (s *Session) UpdatePatient(fields map[string]string) (audiogram.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// all or nothing
	next := s.store.Snapshot()
	for name, value := range fields {
		var err error
		if next, err = next.WithPatientField(name, value); err != nil {
			return audiogram.State{}, err
		}
	}
	s.store.SetPatient(next.Patient)
	return s.store.Snapshot(), nil
}

// SetTheme changes the display theme.
func (s *Session) SetTheme(theme audiogram.Theme) (audiogram.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.SetTheme(theme); err != nil {
		return audiogram.State{}, err
	}
	return s.store.Snapshot(), nil
}

// ToggleTheme flips the display theme.
func (s *Session) ToggleTheme() audiogram.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.ToggleTheme()
	return s.store.Snapshot()
}

// ValidatePatient lists the missing required patient fields.
func (s *Session) ValidatePatient() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.ValidatePatient()
}

// Pointer applies one pointer event to ear's chart.
func (s *Session) Pointer(ear audiogram.Ear, ev PointerEvent) (PointerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.charts[ear]
	if !ok {
		return PointerResult{}, fmt.Errorf("%w: %q", audiogram.ErrUnknownEar, ear)
	}

	x, y := s.geom.FromViewport(ev.X, ev.Y, ev.ViewWidth, ev.ViewHeight)

	var (
		applied bool
		err     error
	)
	switch ev.Type {
	case EventDown:
		switch {
		case ev.Frequency != 0 && ev.Conduction != "":
			cond, perr := audiogram.ParseConduction(ev.Conduction)
			if perr != nil {
				return PointerResult{}, perr
			}
			applied = c.PointerDown(ev.Frequency, cond)
		case ev.Frequency != 0 || ev.Conduction != "":
			return PointerResult{}, fmt.Errorf("%w: frequency=%d conduction=%q", ErrPartialTarget, ev.Frequency, ev.Conduction)
		default:
			applied = c.PointerDownAt(x, y)
		}
	case EventMove:
		applied, err = c.PointerMove(x, y)
	case EventUp:
		applied = c.PointerUp()
	case EventLeave:
		applied = c.PointerLeave()
	case EventClick:
		applied, err = c.Click(x, y)
	default:
		return PointerResult{}, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
	if err != nil {
		return PointerResult{}, err
	}
	return s.result(c, applied), nil
}

func (s *Session) result(c *interact.Controller, applied bool) PointerResult {
	r := PointerResult{
		Ear:        c.Ear(),
		Phase:      c.Phase(),
		Applied:    applied,
		Tooltip:    c.Tooltip(),
		Editing:    s.store.EditingMode(c.Ear()),
		Thresholds: s.store.Ear(c.Ear()),
	}
	if t, ok := c.Target(); ok {
		r.Target = &t
	}
	return r
}

// RenderSVG writes ear's chart as SVG.
func (s *Session) RenderSVG(w io.Writer, ear audiogram.Ear) error {
	s.mu.Lock()
	state := s.store.Snapshot()
	s.mu.Unlock()

	if ear != audiogram.Right && ear != audiogram.Left {
		return fmt.Errorf("%w: %q", audiogram.ErrUnknownEar, ear)
	}
	return interact.RenderSVG(w, interact.SVGOptions{
		Ear:      ear,
		Data:     state.Ear(ear),
		Editing:  state.Editing.For(ear),
		Theme:    state.Theme,
		Geometry: s.geom,
	})
}
