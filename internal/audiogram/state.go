// Package audiogram holds the per-session audiogram state: thresholds for
// both ears and both conduction modes, the per-ear editing selectors, the
// patient metadata and the display theme.
package audiogram

import (
	"errors"
	"fmt"
	"strings"

	"github.com/RMahshie/audiogram/internal/chart"
)

var (
	ErrUnknownEar          = errors.New("unknown ear")
	ErrUnknownConduction   = errors.New("unknown conduction")
	ErrUnknownFrequency    = errors.New("unknown frequency")
	ErrUnknownTheme        = errors.New("unknown theme")
	ErrUnknownPatientField = errors.New("unknown patient field")
)

// Ear selects one of the two charts.
type Ear string

const (
	Right Ear = "right"
	Left  Ear = "left"
)

// Ears lists both ears in display order.
var Ears = []Ear{Right, Left}

// ParseEar validates an ear name.
func ParseEar(s string) (Ear, error) {
	switch Ear(s) {
	case Right, Left:
		return Ear(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEar, s)
}

// Conduction is the test mode a threshold was measured with.
type Conduction string

const (
	Air  Conduction = "air"
	Bone Conduction = "bone"
)

// ParseConduction validates a conduction name.
func ParseConduction(s string) (Conduction, error) {
	switch Conduction(s) {
	case Air, Bone:
		return Conduction(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownConduction, s)
}

// Theme is the display theme. It belongs to the session, not to the
// audiogram, and survives a reset.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// ParseTheme validates a theme name.
func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case Light, Dark:
		return Theme(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTheme, s)
}

const (
	DefaultAir  = 10
	DefaultBone = 5
)

// Thresholds holds one dB HL value per audiometric frequency, indexed in
// x-axis order. Being an array, it always has exactly one slot per
// frequency and copies by value.
type Thresholds [chart.NumFrequencies]int

func uniform(db int) Thresholds {
	var t Thresholds
	for i := range t {
		t[i] = db
	}
	return t
}

// Get returns the threshold stored for freq.
func (t Thresholds) Get(freq int) (int, bool) {
	idx := chart.FrequencyIndex(freq)
	if idx < 0 {
		return 0, false
	}
	return t[idx], true
}

// With returns a copy of t holding db at freq.
func (t Thresholds) With(freq, db int) (Thresholds, error) {
	idx := chart.FrequencyIndex(freq)
	if idx < 0 {
		return t, fmt.Errorf("%w: %d Hz", ErrUnknownFrequency, freq)
	}
	t[idx] = db
	return t, nil
}

// Map returns the thresholds keyed by frequency.
func (t Thresholds) Map() map[int]int {
	out := make(map[int]int, len(t))
	for i, db := range t {
		out[chart.FrequencyAt(i)] = db
	}
	return out
}

// EarData is the pair of threshold maps plotted on one ear's chart.
type EarData struct {
	Air  Thresholds
	Bone Thresholds
}

// DefaultEarData returns air at 10 dB and bone at 5 dB for every frequency.
func DefaultEarData() EarData {
	return EarData{Air: uniform(DefaultAir), Bone: uniform(DefaultBone)}
}

// Get returns the thresholds for one conduction mode.
func (e EarData) Get(c Conduction) Thresholds {
	if c == Bone {
		return e.Bone
	}
	return e.Air
}

func (e EarData) with(c Conduction, t Thresholds) EarData {
	if c == Bone {
		e.Bone = t
	} else {
		e.Air = t
	}
	return e
}

// Editing holds which conduction each ear's chart currently edits.
type Editing struct {
	Right Conduction
	Left  Conduction
}

// DefaultEditing edits air conduction on both ears.
func DefaultEditing() Editing {
	return Editing{Right: Air, Left: Air}
}

// For returns the selector of one ear.
func (e Editing) For(ear Ear) Conduction {
	if ear == Left {
		return e.Left
	}
	return e.Right
}

func (e Editing) with(ear Ear, c Conduction) Editing {
	if ear == Left {
		e.Left = c
	} else {
		e.Right = c
	}
	return e
}

// Patient is the free-text metadata printed on the exported image.
type Patient struct {
	Name      string
	ExamDate  string
	BirthDate string
}

// Patient field names accepted by WithPatientField.
const (
	FieldName      = "name"
	FieldExamDate  = "examDate"
	FieldBirthDate = "birthDate"
)

// Validate lists one message per blank required field.
func (p Patient) Validate() []string {
	var errs []string
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, "Patient Name is required")
	}
	if strings.TrimSpace(p.ExamDate) == "" {
		errs = append(errs, "Date of Examination is required")
	}
	if strings.TrimSpace(p.BirthDate) == "" {
		errs = append(errs, "Birth Date is required")
	}
	return errs
}

// State is an immutable snapshot of one session. Every With* method returns
// a new State and leaves the receiver untouched.
type State struct {
	Right   EarData
	Left    EarData
	Editing Editing
	Patient Patient
	Theme   Theme
}

// NewState returns the session start state.
func NewState() State {
	return State{
		Right:   DefaultEarData(),
		Left:    DefaultEarData(),
		Editing: DefaultEditing(),
		Theme:   Light,
	}
}

// Ear returns the data plotted on one ear's chart.
func (s State) Ear(ear Ear) EarData {
	if ear == Left {
		return s.Left
	}
	return s.Right
}

func (s State) withEar(ear Ear, d EarData) State {
	if ear == Left {
		s.Left = d
	} else {
		s.Right = d
	}
	return s
}

// WithThreshold stores raw, snapped to 5 dB and clamped to [-10, 120], at
// (ear, c, freq).
func (s State) WithThreshold(ear Ear, c Conduction, freq int, raw float64) (State, error) {
	if _, err := ParseEar(string(ear)); err != nil {
		return s, err
	}
	if _, err := ParseConduction(string(c)); err != nil {
		return s, err
	}
	d := s.Ear(ear)
	t, err := d.Get(c).With(freq, chart.Quantize(raw))
	if err != nil {
		return s, err
	}
	return s.withEar(ear, d.with(c, t)), nil
}

// WithEditingMode points ear's selector at c.
func (s State) WithEditingMode(ear Ear, c Conduction) (State, error) {
	if _, err := ParseEar(string(ear)); err != nil {
		return s, err
	}
	if _, err := ParseConduction(string(c)); err != nil {
		return s, err
	}
	s.Editing = s.Editing.with(ear, c)
	return s, nil
}

// WithPatientField sets one patient field by name.
func (s State) WithPatientField(field, value string) (State, error) {
	switch field {
	case FieldName:
		s.Patient.Name = value
	case FieldExamDate:
		s.Patient.ExamDate = value
	case FieldBirthDate:
		s.Patient.BirthDate = value
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownPatientField, field)
	}
	return s, nil
}

// WithTheme sets the display theme.
func (s State) WithTheme(theme Theme) (State, error) {
	if _, err := ParseTheme(string(theme)); err != nil {
		return s, err
	}
	s.Theme = theme
	return s, nil
}

// Reset restores default thresholds and selectors. Patient metadata and
// theme are not audiogram data and carry over.
func (s State) Reset() State {
	fresh := NewState()
	fresh.Patient = s.Patient
	fresh.Theme = s.Theme
	return fresh
}
