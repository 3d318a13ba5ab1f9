package validate

// Level is the categorical quality of a language derived from its average
// sample score.
type Level string

const (
	LevelExcellent        Level = "EXCELLENT"
	LevelGood             Level = "GOOD"
	LevelAcceptable       Level = "ACCEPTABLE"
	LevelNeedsImprovement Level = "NEEDS_IMPROVEMENT"
)

// LevelFor maps an average score to its quality level. Boundaries are
// inclusive.
func LevelFor(score float64) Level {
	switch {
	case score >= 9.0:
		return LevelExcellent
	case score >= 7.5:
		return LevelGood
	case score >= 6.0:
		return LevelAcceptable
	default:
		return LevelNeedsImprovement
	}
}
