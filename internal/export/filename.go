package export

import (
	"fmt"
	"regexp"

	"github.com/RMahshie/audiogram/internal/audiogram"
)

// Filename prefixes. DefaultPrefix is what existing downloads use.
const (
	DefaultPrefix   = "audio"
	AudiogramPrefix = "audiogram"
)

var (
	nonWord     = regexp.MustCompile(`[^\w\-]`)
	hyphenRuns  = regexp.MustCompile(`-+`)
	unknownPart = "unknown"
)

// Sanitize replaces every character outside [A-Za-z0-9_-] with a hyphen and
// collapses hyphen runs.
func Sanitize(s string) string {
	return hyphenRuns.ReplaceAllString(nonWord.ReplaceAllString(s, "-"), "-")
}

// Filename builds "<prefix>_<examDate>_<name>_<birthDate>.png". Empty
// parts become "unknown".
func Filename(p audiogram.Patient, prefix string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return fmt.Sprintf("%s_%s_%s_%s.png", prefix, part(p.ExamDate), part(p.Name), part(p.BirthDate))
}

func part(s string) string {
	if v := Sanitize(s); v != "" {
		return v
	}
	return unknownPart
}
