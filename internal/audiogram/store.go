package audiogram

// Store owns the current State of one session. It is not safe for
// concurrent use; callers serialize access (see internal/session), which
// keeps updates in delivery order and snapshots whole.
type Store struct {
	state State
}

// NewStore returns a store holding the session start state.
func NewStore() *Store {
	return &Store{state: NewState()}
}

// Snapshot returns the current state. The value is a copy; mutating it
// does not affect the store.
func (s *Store) Snapshot() State {
	return s.state
}

// Ear returns the current data of one ear.
func (s *Store) Ear(ear Ear) EarData {
	return s.state.Ear(ear)
}

// EditingMode returns the conduction ear's chart currently edits.
func (s *Store) EditingMode(ear Ear) Conduction {
	return s.state.Editing.For(ear)
}

// UpdateThreshold writes raw, snapped and clamped, at (ear, c, freq).
func (s *Store) UpdateThreshold(ear Ear, c Conduction, freq int, raw float64) error {
	next, err := s.state.WithThreshold(ear, c, freq, raw)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

// SetEditingMode changes the selector of one ear.
func (s *Store) SetEditingMode(ear Ear, c Conduction) error {
	next, err := s.state.WithEditingMode(ear, c)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

// ResetAll restores default thresholds and selectors for both ears.
func (s *Store) ResetAll() {
	s.state = s.state.Reset()
}

// UpdatePatient sets one patient field by name.
func (s *Store) UpdatePatient(field, value string) error {
	next, err := s.state.WithPatientField(field, value)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

// SetPatient replaces the patient metadata.
func (s *Store) SetPatient(p Patient) {
	s.state.Patient = p
}

// ClearPatient blanks the patient metadata.
func (s *Store) ClearPatient() {
	s.state.Patient = Patient{}
}

// ValidatePatient lists the missing required patient fields.
func (s *Store) ValidatePatient() []string {
	return s.state.Patient.Validate()
}

// SetTheme changes the display theme.
func (s *Store) SetTheme(theme Theme) error {
	next, err := s.state.WithTheme(theme)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

// ToggleTheme flips between light and dark and returns the new theme.
func (s *Store) ToggleTheme() Theme {
	if s.state.Theme == Dark {
		s.state.Theme = Light
	} else {
		s.state.Theme = Dark
	}
	return s.state.Theme
}
