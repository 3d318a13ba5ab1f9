// Package catalog holds the in-memory amenity catalogue: the records being
// translated, the set of target languages, and a built-in fallback sample
// used when the remote amenity source is unreachable.
package catalog

import "strings"

// FailedSentinel marks a translation slot whose batch exhausted all retry
// attempts. Sentinel slots count as missing, so a later run retries them.
const FailedSentinel = "[TRANSLATION FAILED]"

// Record is a single amenity phrase and its translations, keyed by language
// code. EnglishText is immutable after load; Translations is mutated in place
// by the translation and revision passes.
type Record struct {
	ID           int               `json:"id"`
	EnglishText  string            `json:"english_text"`
	Category     string            `json:"category,omitempty"`
	Priority     int               `json:"priority,omitempty"`
	Translations map[string]string `json:"translations"`
}

// NewRecord creates a Record with an initialised translations map.
func NewRecord(id int, englishText string) *Record {
	return &Record{
		ID:           id,
		EnglishText:  englishText,
		Translations: make(map[string]string),
	}
}

// Translation returns the current translation for code and whether it is
// usable. Empty, whitespace-only and failure-sentinel values report false.
func (r *Record) Translation(code string) (string, bool) {
	t, ok := r.Translations[code]
	if !ok {
		return "", false
	}
	if strings.TrimSpace(t) == "" || IsFailed(t) {
		return t, false
	}
	return t, true
}

// SetTranslation stores text as the current translation for code,
// initialising the map if the record came from a decoder with a nil map.
func (r *Record) SetTranslation(code, text string) {
	if r.Translations == nil {
		r.Translations = make(map[string]string)
	}
	r.Translations[code] = text
}

// MissingFor reports whether the record still needs a translation for code.
func (r *Record) MissingFor(code string) bool {
	_, ok := r.Translation(code)
	return !ok
}

// IsFailed reports whether text is the failure sentinel written after
// exhausted retries.
func IsFailed(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), FailedSentinel)
}

// Missing returns the subset of records lacking a usable translation for code.
func Missing(records []*Record, code string) []*Record {
	var out []*Record
	for _, r := range records {
		if r.MissingFor(code) {
			out = append(out, r)
		}
	}
	return out
}

// Translated returns the subset of records holding a usable translation
// for code.
func Translated(records []*Record, code string) []*Record {
	var out []*Record
	for _, r := range records {
		if !r.MissingFor(code) {
			out = append(out, r)
		}
	}
	return out
}
