// Package revise implements the quality feedback loop. When a language's
// average validation score falls below the threshold, the whole language is
// retranslated with a corrective prompt built from the reviewers' issues,
// then re-validated. The revision is kept only if the score recovers;
// otherwise the pre-revision translations are restored verbatim, so the
// reported status always matches the stored data.
package revise

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/valpere/amentran/internal/catalog"
	"github.com/valpere/amentran/internal/completion"
	"github.com/valpere/amentran/internal/listparse"
	"github.com/valpere/amentran/internal/translate"
	"github.com/valpere/amentran/internal/validate"
)

// DefaultThreshold is the minimum average score a language must reach to
// avoid retranslation. The trigger is strict: exactly the threshold passes.
const DefaultThreshold = 8.5

// Status is the terminal state of one language's pass through the loop.
type Status string

const (
	// StatusAcceptable: first validation met the threshold; nothing done.
	StatusAcceptable Status = "acceptable"
	// StatusImproved: retranslation lifted the language over the threshold.
	StatusImproved Status = "improved"
	// StatusKeptOriginal: retranslation failed to recover; the pre-revision
	// translations were restored.
	StatusKeptOriginal Status = "kept_original"
)

// Outcome reports what the loop did for one language.
type Outcome struct {
	Code          string  `json:"code"`
	Status        Status  `json:"status"`
	OriginalScore float64 `json:"original_score"`
	FinalScore    float64 `json:"final_score"`
	// Retranslated is true when the corrective pass actually rewrote at
	// least one slot; a pass whose every batch fell back to snapshot text
	// reports false.
	Retranslated bool             `json:"retranslated"`
	Report       *validate.Report `json:"report"`
}

type Config struct {
	Threshold   float64
	BatchSize   int
	MaxAttempts int
	RetryDelay  time.Duration
	Temperature float64
	MaxTokens   int
}

func (c *Config) applyDefaults() {
	if c.Threshold <= 0 {
		c.Threshold = DefaultThreshold
	}
	if c.BatchSize <= 0 {
		c.BatchSize = translate.DefaultBatchSize
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = translate.DefaultMaxAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = translate.DefaultRetryDelay
	}
	if c.Temperature <= 0 {
		c.Temperature = translate.DefaultTemperature
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = translate.DefaultMaxTokens
	}
}

type Controller struct {
	client    completion.Client
	validator *validate.Validator
	cfg       Config
	limiter   *rate.Limiter
	log       zerolog.Logger
}

func New(client completion.Client, validator *validate.Validator, cfg Config, limiter *rate.Limiter, log zerolog.Logger) *Controller {
	cfg.applyDefaults()
	return &Controller{client: client, validator: validator, cfg: cfg, limiter: limiter, log: log}
}

// ReviseLanguage runs the feedback loop once for lang, starting from the
// report of the first validation pass. At most one retranslation attempt is
// made per call.
func (c *Controller) ReviseLanguage(ctx context.Context, records []*catalog.Record, lang catalog.Language, report *validate.Report) (*Outcome, error) {
	out := &Outcome{
		Code:          lang.Code,
		OriginalScore: report.AverageScore,
		FinalScore:    report.AverageScore,
		Report:        report,
	}

	if report.AverageScore >= c.cfg.Threshold {
		out.Status = StatusAcceptable
		return out, nil
	}

	issues := collectIssues(report, c.cfg.Threshold)
	c.log.Info().Str("lang", lang.Code).
		Float64("score", report.AverageScore).
		Int("issues", len(issues)).
		Msg("score below threshold, retranslating language")

	snapshot := snapshotTranslations(records, lang.Code)
	if len(snapshot) == 0 {
		// Nothing translated at all; a corrective pass has nothing to fix.
		out.Status = StatusKeptOriginal
		return out, nil
	}

	rewritten, err := c.retranslate(ctx, records, lang, issues, snapshot)
	if err != nil {
		restoreTranslations(records, lang.Code, snapshot)
		return out, err
	}
	out.Retranslated = rewritten > 0

	final, err := c.validator.ValidateLanguage(ctx, records, lang)
	if err != nil {
		restoreTranslations(records, lang.Code, snapshot)
		return out, err
	}

	out.FinalScore = final.AverageScore
	out.Report = final

	if final.AverageScore >= c.cfg.Threshold {
		out.Status = StatusImproved
		c.log.Info().Str("lang", lang.Code).
			Float64("from", out.OriginalScore).
			Float64("to", out.FinalScore).
			Msg("retranslation improved quality, keeping revision")
		return out, nil
	}

	// The revision did not recover: put the pre-revision text back so the
	// stored data matches the reported status.
	restoreTranslations(records, lang.Code, snapshot)
	out.Status = StatusKeptOriginal
	c.log.Warn().Str("lang", lang.Code).
		Float64("from", out.OriginalScore).
		Float64("to", out.FinalScore).
		Msg("retranslation did not recover, restored original translations")

	return out, nil
}

// retranslate redoes every currently-translated record for lang with a
// corrective prompt and returns how many slots were actually rewritten. A
// slot whose corrective batch fails or parses to a placeholder falls back to
// its snapshot text, so a transport failure cannot erase existing data.
func (c *Controller) retranslate(ctx context.Context, records []*catalog.Record, lang catalog.Language, issues []string, snapshot map[int]string) (int, error) {
	targets := catalog.Translated(records, lang.Code)
	rewritten := 0

	for _, batch := range translate.Partition(targets, c.cfg.BatchSize) {
		req := completion.Request{
			Prompt:      buildCorrectivePrompt(lang, batch, issues),
			Temperature: c.cfg.Temperature,
			MaxTokens:   c.cfg.MaxTokens,
		}

		result, err := translate.CompleteWithRetry(ctx, c.client, req, c.cfg.MaxAttempts, c.cfg.RetryDelay, c.limiter, c.log)
		if err != nil {
			if ctx.Err() != nil {
				return rewritten, ctx.Err()
			}
			c.log.Warn().Err(err).Str("lang", lang.Code).
				Msg("corrective batch failed, keeping snapshot text for its slots")
			for _, r := range batch {
				r.SetTranslation(lang.Code, snapshot[r.ID])
			}
			continue
		}

		lines := listparse.Parse(result.Text, len(batch))
		for i, r := range batch {
			if listparse.IsPlaceholder(lines[i]) {
				r.SetTranslation(lang.Code, snapshot[r.ID])
				continue
			}
			r.SetTranslation(lang.Code, lines[i])
			rewritten++
		}
	}

	return rewritten, nil
}

// collectIssues gathers issue texts from reviews scoring below threshold,
// skipping no-issue sentinels and duplicates.
func collectIssues(report *validate.Report, threshold float64) []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range report.Reviews {
		if r.Score >= threshold {
			continue
		}
		if validate.NoIssues(r.Issues) {
			continue
		}
		if seen[r.Issues] {
			continue
		}
		seen[r.Issues] = true
		out = append(out, r.Issues)
	}
	return out
}

func snapshotTranslations(records []*catalog.Record, code string) map[int]string {
	snap := make(map[int]string)
	for _, r := range records {
		if t, ok := r.Translation(code); ok {
			snap[r.ID] = t
		}
	}
	return snap
}

func restoreTranslations(records []*catalog.Record, code string, snap map[int]string) {
	for _, r := range records {
		if t, ok := snap[r.ID]; ok {
			r.SetTranslation(code, t)
		}
	}
}

func buildCorrectivePrompt(lang catalog.Language, batch []*catalog.Record, issues []string) string {
	var sb strings.Builder

	sb.WriteString("You are a professional translator specialising in hospitality content.\n")
	fmt.Fprintf(&sb, "The following hotel amenity translations from English to %s were rated below our quality bar.\n", lang.Name)
	sb.WriteString("Produce improved translations that fix the reviewer issues listed below.\n\n")

	if len(issues) > 0 {
		sb.WriteString("Reviewer issues:\n")
		for _, issue := range issues {
			fmt.Fprintf(&sb, "- %s\n", issue)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Phrases (English → current translation):\n")
	for i, r := range batch {
		current, _ := r.Translation(lang.Code)
		fmt.Fprintf(&sb, "%d. %s → %s\n", i+1, r.EnglishText, current)
	}

	sb.WriteString("\nRules:\n")
	sb.WriteString("- Keep each translation short, in the register of a hotel amenity list.\n")
	sb.WriteString("- Preserve brand names and established technical terms such as WiFi.\n")
	sb.WriteString("- Respond with a numbered list only, one improved translation per line, no explanations.\n")

	return sb.String()
}
