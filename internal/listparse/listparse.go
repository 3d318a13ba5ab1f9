// Package listparse turns loosely formatted completion output into
// structured values. Model output format is not contractually guaranteed,
// so the parsers here degrade to placeholders instead of failing.
package listparse

import (
	"fmt"
	"strings"
	"unicode"
)

// placeholderPrefix starts every pad value emitted by Parse.
const placeholderPrefix = "[MISSING TRANSLATION"

// Placeholder returns the pad value for the k-th slot (1-based).
func Placeholder(k int) string {
	return fmt.Sprintf("%s %d]", placeholderPrefix, k)
}

// IsPlaceholder reports whether s is a pad value produced by Parse.
func IsPlaceholder(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), placeholderPrefix)
}

// Parse extracts exactly n items from a numbered-list response. Blank lines
// are skipped; a leading "<integer>." or "<integer>)" marker and one layer
// of surrounding quotes are stripped from each usable line. A line that
// strips down to nothing (a bare "2." marker) yields a placeholder, never an
// empty item. When fewer than n usable lines exist the tail is padded with
// distinct placeholders, so the result always has length n and Parse never
// fails.
func Parse(raw string, n int) []string {
	out := make([]string, 0, n)

	for _, line := range strings.Split(raw, "\n") {
		if len(out) == n {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		item := stripQuotes(stripMarker(line))
		if item == "" {
			item = Placeholder(len(out) + 1)
		}
		out = append(out, item)
	}

	for k := len(out) + 1; k <= n; k++ {
		out = append(out, Placeholder(k))
	}

	return out
}

// stripMarker removes a leading "12." or "12)" enumeration marker.
func stripMarker(line string) string {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(line) {
		return line
	}
	if line[i] != '.' && line[i] != ')' {
		return line
	}
	return strings.TrimSpace(line[i+1:])
}

// stripQuotes removes one layer of matching surrounding quotes.
func stripQuotes(s string) string {
	runes := []rune(s)
	n := len(runes)
	if n < 2 {
		return s
	}
	first, last := runes[0], runes[n-1]
	if (first == '"' && last == '"') ||
		(first == '\'' && last == '\'') ||
		(first == '«' && last == '»') ||
		(first == '“' && last == '”') ||
		(first == '‘' && last == '’') {
		return strings.TrimSpace(string(runes[1 : n-1]))
	}
	return s
}

// Field scans raw for a "Label: value" line and returns the trimmed value,
// or "" when the label is absent. Matching is case-insensitive and tolerates
// markdown emphasis around the label.
func Field(raw, label string) string {
	want := strings.ToLower(label)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "*-• \t")
		line = strings.TrimRight(line, "*")

		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(strings.Trim(line[:idx], "*_")))
		if key == want {
			return strings.TrimSpace(strings.Trim(strings.TrimSpace(line[idx+1:]), "*_"))
		}
	}
	return ""
}

// FirstNumber extracts the first decimal number from s, for lenient parsing
// of "Score: 8.5/10" style values. The second return is false when s holds
// no digits.
func FirstNumber(s string) (float64, bool) {
	start := -1
	for i, r := range s {
		if unicode.IsDigit(r) {
			start = i
			break
		}
	}
	if start < 0 {
		return 0, false
	}

	end := start
	seenDot := false
	for end < len(s) {
		c := s[end]
		if c >= '0' && c <= '9' {
			end++
			continue
		}
		if c == '.' && !seenDot && end+1 < len(s) && s[end+1] >= '0' && s[end+1] <= '9' {
			seenDot = true
			end++
			continue
		}
		break
	}

	var v float64
	if _, err := fmt.Sscanf(s[start:end], "%f", &v); err != nil {
		return 0, false
	}
	return v, true
}
