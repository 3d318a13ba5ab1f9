// Package orchestrator sequences the full pipeline across all target
// languages: translate, validate, and conditionally revise, one language at
// a time, folding per-language outcomes into a run summary. An error in one
// language is recorded and the run moves on to the next.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/valpere/amentran/internal/catalog"
	"github.com/valpere/amentran/internal/revise"
	"github.com/valpere/amentran/internal/translate"
	"github.com/valpere/amentran/internal/validate"
)

// LanguageOutcome is the realised result for one language in one run.
type LanguageOutcome struct {
	Code          string         `json:"code"`
	Name          string         `json:"name"`
	Status        revise.Status  `json:"status"`
	Translated    int            `json:"translated"`
	Failed        int            `json:"failed"`
	OriginalScore float64        `json:"original_score"`
	FinalScore    float64        `json:"final_score"`
	Level         validate.Level `json:"level"`
	Err           string         `json:"error,omitempty"`

	// Report is the language's final quality report (the re-validation one
	// when a revision happened).
	Report *validate.Report `json:"report,omitempty"`
}

// StatusError marks a language whose pass failed outright.
const StatusError revise.Status = "error"

// Summary aggregates a whole run.
type Summary struct {
	RunID           string            `json:"run_id"`
	StartedAt       time.Time         `json:"started_at"`
	FinishedAt      time.Time         `json:"finished_at"`
	Records         int               `json:"records"`
	Languages       []LanguageOutcome `json:"languages"`
	TotalTranslated int               `json:"total_translated"`
	TotalFailed     int               `json:"total_failed"`
	LevelCounts     map[string]int    `json:"level_counts"`
	OverallAverage  float64           `json:"overall_average"`
}

type Runner struct {
	translator *translate.Translator
	validator  *validate.Validator
	controller *revise.Controller
	limiter    *rate.Limiter
	log        zerolog.Logger
}

func New(translator *translate.Translator, validator *validate.Validator, controller *revise.Controller, limiter *rate.Limiter, log zerolog.Logger) *Runner {
	return &Runner{
		translator: translator,
		validator:  validator,
		controller: controller,
		limiter:    limiter,
		log:        log,
	}
}

// Run processes every language sequentially and returns the run summary.
// It only stops early when ctx is canceled; any other per-language failure
// is recorded as an error outcome for that language.
func (r *Runner) Run(ctx context.Context, records []*catalog.Record, languages []catalog.Language) *Summary {
	summary := &Summary{
		RunID:       uuid.New().String(),
		StartedAt:   time.Now(),
		Records:     len(records),
		LevelCounts: make(map[string]int),
	}

	r.log.Info().Str("run_id", summary.RunID).
		Int("records", len(records)).
		Int("languages", len(languages)).
		Msg("starting translation run")

	var scoreSum float64
	var scored int

	for _, lang := range languages {
		if ctx.Err() != nil {
			break
		}
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				break
			}
		}

		outcome := r.processLanguage(ctx, records, lang)
		summary.Languages = append(summary.Languages, outcome)
		summary.TotalTranslated += outcome.Translated
		summary.TotalFailed += outcome.Failed

		if outcome.Status != StatusError {
			summary.LevelCounts[string(outcome.Level)]++
			scoreSum += outcome.FinalScore
			scored++
		}
	}

	if scored > 0 {
		summary.OverallAverage = scoreSum / float64(scored)
	}
	summary.FinishedAt = time.Now()

	r.log.Info().Str("run_id", summary.RunID).
		Int("translated", summary.TotalTranslated).
		Int("failed", summary.TotalFailed).
		Float64("overall_avg", summary.OverallAverage).
		Msg("run finished")

	return summary
}

// processLanguage runs translate → validate → revise for one language. Any
// failure or panic becomes an error outcome so the run continues.
func (r *Runner) processLanguage(ctx context.Context, records []*catalog.Record, lang catalog.Language) (outcome LanguageOutcome) {
	outcome = LanguageOutcome{Code: lang.Code, Name: lang.Name}

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Str("lang", lang.Code).Interface("panic", rec).
				Msg("language pass panicked")
			outcome.Status = StatusError
			outcome.Err = fmt.Sprintf("panic: %v", rec)
		}
	}()

	trRes, err := r.translator.TranslateLanguage(ctx, records, lang)
	if err != nil {
		outcome.Status = StatusError
		outcome.Err = err.Error()
		return outcome
	}
	outcome.Translated = trRes.Translated
	outcome.Failed = trRes.Failed

	report, err := r.validator.ValidateLanguage(ctx, records, lang)
	if err != nil {
		outcome.Status = StatusError
		outcome.Err = err.Error()
		return outcome
	}

	revOut, err := r.controller.ReviseLanguage(ctx, records, lang, report)
	if err != nil {
		outcome.Status = StatusError
		outcome.Err = err.Error()
		return outcome
	}

	outcome.Status = revOut.Status
	outcome.OriginalScore = revOut.OriginalScore
	outcome.FinalScore = revOut.FinalScore
	outcome.Level = revOut.Report.Level
	outcome.Report = revOut.Report

	return outcome
}
