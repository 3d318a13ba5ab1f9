// Package detector wraps the lingua-go language detector. The validation
// pass uses it as a cheap local check that a translation is actually written
// in its target language, without spending a completion call.
package detector

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"
)

// minLength is the minimum rune count for a reliable detection. Amenity
// phrases are short, so anything below this passes without a verdict.
const minLength = 12

// Detector is expensive to build; construct once and share.
type Detector struct {
	detector lingua.LanguageDetector
}

func New() *Detector {
	det := lingua.NewLanguageDetectorBuilder().
		FromAllLanguages().
		Build()

	return &Detector{detector: det}
}

// DetectISO returns the ISO 639-1 code of the detected language. The second
// return is false when the text is empty, too short, or ambiguous.
func (d *Detector) DetectISO(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" || len([]rune(text)) < minLength {
		return "", false
	}
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}

// Mismatch reports whether text is confidently detected as a language other
// than code. Undetectable or short texts never count as a mismatch.
func (d *Detector) Mismatch(text, code string) (string, bool) {
	detected, ok := d.DetectISO(text)
	if !ok {
		return "", false
	}
	if strings.EqualFold(detected, code) {
		return detected, false
	}
	return detected, true
}
