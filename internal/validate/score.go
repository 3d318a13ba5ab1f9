package validate

import "strings"

// assessment ladder: maps wording classes in a free-text per-criterion
// assessment to a numeric estimate, so the breakdown needs no second
// completion call. Order matters: stronger wording is checked first.
var assessmentLadder = []struct {
	keywords []string
	score    float64
}{
	{[]string{"excellent", "perfect"}, 9.5},
	{[]string{"very good", "good"}, 8.0},
	{[]string{"acceptable", "adequate"}, 6.5},
	{[]string{"poor", "bad"}, 3.0},
	{[]string{"failed", "error"}, 0},
}

// neutralAssessmentScore is returned when no ladder keyword matches.
const neutralAssessmentScore = 5.0

// AssessmentScore converts a free-text criterion assessment to a numeric
// estimate via a fixed keyword ladder. Unrecognised wording gets a neutral
// default rather than failing.
func AssessmentScore(text string) float64 {
	lower := strings.ToLower(text)
	for _, rung := range assessmentLadder {
		for _, kw := range rung.keywords {
			if strings.Contains(lower, kw) {
				return rung.score
			}
		}
	}
	return neutralAssessmentScore
}
