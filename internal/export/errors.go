package export

import (
	"errors"
	"strings"
)

var (
	// ErrMissingTarget means the canvas to draw on could not be set up.
	ErrMissingTarget = errors.New("export target missing")
	// ErrCanvasTooLarge means the requested scale exceeds MaxScale.
	ErrCanvasTooLarge = errors.New("export canvas too large")
	// ErrEncode means the finished image could not be encoded.
	ErrEncode = errors.New("image encoding failed")
)

// ValidationError lists the patient fields that block an export.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "patient data incomplete: " + strings.Join(e.Messages, "; ")
}

// ValidatePatient returns a *ValidationError when messages is not empty.
func ValidatePatient(messages []string) error {
	if len(messages) == 0 {
		return nil
	}
	return &ValidationError{Messages: messages}
}
