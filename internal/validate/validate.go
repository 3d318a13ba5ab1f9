// Package validate implements the quality-validation pass: it samples
// translated records for a language, asks the completion client to score
// each translation pair against weighted criteria, and aggregates the
// reviews into a per-language quality report.
package validate

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/valpere/amentran/internal/catalog"
	"github.com/valpere/amentran/internal/completion"
	"github.com/valpere/amentran/internal/detector"
	"github.com/valpere/amentran/internal/listparse"
)

const (
	DefaultSampleSize  = 5
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 500

	// neutralScore stands in for a missing or unparseable overall score.
	neutralScore = 5.0

	// noAssessment stands in for a missing per-criterion label.
	noAssessment = "Not assessed"
)

// Review is the scored assessment of one sampled translation pair.
type Review struct {
	RecordID       int     `json:"record_id"`
	EnglishText    string  `json:"english_text"`
	TranslatedText string  `json:"translated_text"`
	Score          float64 `json:"score"`
	Accuracy       string  `json:"accuracy"`
	Cultural       string  `json:"cultural"`
	Natural        string  `json:"natural"`
	Technical      string  `json:"technical"`
	Issues         string  `json:"issues"`
	Recommendation string  `json:"recommendation"`
}

// Breakdown holds the per-criterion score estimates averaged over the sample.
type Breakdown struct {
	Accuracy  float64 `json:"accuracy"`
	Cultural  float64 `json:"cultural"`
	Natural   float64 `json:"natural"`
	Technical float64 `json:"technical"`
}

// Report is one validation pass over one language. Scores are estimates
// from the sample, not a full sweep.
type Report struct {
	Code            string    `json:"code"`
	SampleSize      int       `json:"sample_size"`
	TotalTranslated int       `json:"total_translated"`
	AverageScore    float64   `json:"average_score"`
	Level           Level     `json:"level"`
	Breakdown       Breakdown `json:"breakdown"`
	Reviews         []Review  `json:"reviews"`
}

type Config struct {
	SampleSize  int
	Temperature float64
	MaxTokens   int
	// Seed fixes the sampling order; 0 seeds from the clock.
	Seed int64
}

func (c *Config) applyDefaults() {
	if c.SampleSize <= 0 {
		c.SampleSize = DefaultSampleSize
	}
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
}

type Validator struct {
	client  completion.Client
	cfg     Config
	det     *detector.Detector
	limiter *rate.Limiter
	rng     *rand.Rand
	log     zerolog.Logger
}

// New creates a Validator. det may be nil to skip the local wrong-language
// check.
func New(client completion.Client, cfg Config, det *detector.Detector, limiter *rate.Limiter, log zerolog.Logger) *Validator {
	cfg.applyDefaults()
	return &Validator{
		client:  client,
		cfg:     cfg,
		det:     det,
		limiter: limiter,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		log:     log,
	}
}

// ValidateLanguage scores a random sample of lang's translations and
// aggregates the reviews. A language with no usable translations gets a
// zero-score report. A failed scoring call degrades that record to a
// neutral review instead of aborting the pass.
func (v *Validator) ValidateLanguage(ctx context.Context, records []*catalog.Record, lang catalog.Language) (*Report, error) {
	translated := catalog.Translated(records, lang.Code)
	report := &Report{Code: lang.Code, TotalTranslated: len(translated)}

	if len(translated) == 0 {
		report.Level = LevelFor(0)
		v.log.Warn().Str("lang", lang.Code).Msg("no translations to validate")
		return report, nil
	}

	sample := v.sample(translated)
	report.SampleSize = len(sample)

	var sumScore float64
	var sumBreakdown Breakdown

	for _, r := range sample {
		if v.limiter != nil {
			if err := v.limiter.Wait(ctx); err != nil {
				return report, err
			}
		}

		text, _ := r.Translation(lang.Code)
		review := v.scorePair(ctx, r, text, lang)
		report.Reviews = append(report.Reviews, review)

		sumScore += review.Score
		sumBreakdown.Accuracy += AssessmentScore(review.Accuracy)
		sumBreakdown.Cultural += AssessmentScore(review.Cultural)
		sumBreakdown.Natural += AssessmentScore(review.Natural)
		sumBreakdown.Technical += AssessmentScore(review.Technical)
	}

	n := float64(len(sample))
	report.AverageScore = sumScore / n
	report.Breakdown = Breakdown{
		Accuracy:  sumBreakdown.Accuracy / n,
		Cultural:  sumBreakdown.Cultural / n,
		Natural:   sumBreakdown.Natural / n,
		Technical: sumBreakdown.Technical / n,
	}
	report.Level = LevelFor(report.AverageScore)

	v.log.Info().Str("lang", lang.Code).
		Int("sample", report.SampleSize).
		Float64("avg", report.AverageScore).
		Str("level", string(report.Level)).
		Msg("validation pass complete")

	return report, nil
}

// sample draws min(SampleSize, len(translated)) records without replacement.
func (v *Validator) sample(translated []*catalog.Record) []*catalog.Record {
	n := v.cfg.SampleSize
	if n > len(translated) {
		n = len(translated)
	}
	perm := v.rng.Perm(len(translated))
	out := make([]*catalog.Record, 0, n)
	for _, idx := range perm[:n] {
		out = append(out, translated[idx])
	}
	return out
}

// scorePair issues one scoring completion for a single translation pair and
// parses the labeled response. Any failure degrades to a neutral review.
func (v *Validator) scorePair(ctx context.Context, r *catalog.Record, text string, lang catalog.Language) Review {
	review := Review{
		RecordID:       r.ID,
		EnglishText:    r.EnglishText,
		TranslatedText: text,
		Score:          neutralScore,
		Accuracy:       noAssessment,
		Cultural:       noAssessment,
		Natural:        noAssessment,
		Technical:      noAssessment,
		Issues:         "None",
		Recommendation: "None",
	}

	result, err := v.client.Complete(ctx, completion.Request{
		Prompt:      buildScorePrompt(r.EnglishText, text, lang),
		Temperature: v.cfg.Temperature,
		MaxTokens:   v.cfg.MaxTokens,
	})
	if err != nil {
		v.log.Warn().Err(err).Str("lang", lang.Code).Int("record", r.ID).
			Msg("scoring call failed, recording neutral review")
		review.Issues = fmt.Sprintf("scoring failed: %v", err)
		return review
	}

	parseReview(result.Text, &review)

	if v.det != nil {
		if detected, bad := v.det.Mismatch(text, lang.Code); bad {
			review.Issues = appendIssue(review.Issues,
				fmt.Sprintf("text detected as %q, expected %q", detected, lang.Code))
		}
	}

	return review
}

// parseReview fills review from the labeled fields in raw. Missing labels
// keep their neutral defaults.
func parseReview(raw string, review *Review) {
	if s := listparse.Field(raw, "Score"); s != "" {
		if n, ok := listparse.FirstNumber(s); ok {
			review.Score = clampScore(n)
		}
	}
	if s := listparse.Field(raw, "Accuracy"); s != "" {
		review.Accuracy = s
	}
	if s := listparse.Field(raw, "Cultural"); s != "" {
		review.Cultural = s
	}
	if s := listparse.Field(raw, "Natural"); s != "" {
		review.Natural = s
	}
	if s := listparse.Field(raw, "Technical"); s != "" {
		review.Technical = s
	}
	if s := listparse.Field(raw, "Issues"); s != "" {
		review.Issues = s
	}
	if s := listparse.Field(raw, "Recommendation"); s != "" {
		review.Recommendation = s
	}
}

func clampScore(n float64) float64 {
	if n < 0 {
		return 0
	}
	if n > 10 {
		return 10
	}
	return n
}

// NoIssues reports whether an issues field carries no actionable content.
func NoIssues(issues string) bool {
	s := strings.ToLower(strings.TrimSpace(issues))
	switch s {
	case "", "none", "none.", "n/a", "no issues", "no issues found":
		return true
	}
	return false
}

func appendIssue(existing, issue string) string {
	if NoIssues(existing) {
		return issue
	}
	return existing + "; " + issue
}

func buildScorePrompt(english, translated string, lang catalog.Language) string {
	var sb strings.Builder

	sb.WriteString("You are a professional translation reviewer for hospitality content.\n")
	fmt.Fprintf(&sb, "Rate the following hotel amenity translation from English to %s.\n\n", lang.Name)
	fmt.Fprintf(&sb, "English: \"%s\"\n", english)
	fmt.Fprintf(&sb, "Translation: \"%s\"\n\n", translated)
	sb.WriteString("Weigh the criteria as follows: accuracy 30%, cultural appropriateness 25%, natural flow 25%, technical correctness 20%.\n\n")
	sb.WriteString("Respond using exactly this format:\n")
	sb.WriteString("Score: <overall score from 0 to 10>\n")
	sb.WriteString("Accuracy: <short assessment>\n")
	sb.WriteString("Cultural: <short assessment>\n")
	sb.WriteString("Natural: <short assessment>\n")
	sb.WriteString("Technical: <short assessment>\n")
	sb.WriteString("Issues: <issues found, or \"None\">\n")
	sb.WriteString("Recommendation: <keep, revise, or retranslate>\n")

	return sb.String()
}
