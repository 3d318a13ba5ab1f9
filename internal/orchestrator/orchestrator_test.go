package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/valpere/amentran/internal/catalog"
	"github.com/valpere/amentran/internal/completion"
	"github.com/valpere/amentran/internal/revise"
	"github.com/valpere/amentran/internal/translate"
	"github.com/valpere/amentran/internal/validate"
)

// scriptedClient routes prompts by kind: translation batches, scoring
// prompts, and corrective batches, with per-kind scripts.
type scriptedClient struct {
	translateText  string
	scores         []float64
	correctiveText string

	scoreCalls      atomic.Int32
	correctiveCalls atomic.Int32
	translateCalls  atomic.Int32
}

func (s *scriptedClient) Name() string { return "scripted" }

func (s *scriptedClient) Complete(ctx context.Context, req completion.Request) (*completion.Result, error) {
	switch {
	case strings.Contains(req.Prompt, "Rate the following"):
		idx := int(s.scoreCalls.Add(1)) - 1
		if idx >= len(s.scores) {
			idx = len(s.scores) - 1
		}
		return &completion.Result{
			Text: fmt.Sprintf("Score: %g\nAccuracy: good\nCultural: good\nNatural: good\nTechnical: good\nIssues: too literal\nRecommendation: keep", s.scores[idx]),
		}, nil
	case strings.Contains(req.Prompt, "rated below our quality bar"):
		s.correctiveCalls.Add(1)
		return &completion.Result{Text: s.correctiveText}, nil
	default:
		s.translateCalls.Add(1)
		return &completion.Result{Text: s.translateText}, nil
	}
}

func (s *scriptedClient) IsAvailable(ctx context.Context) error { return nil }

func newRunner(client completion.Client) *Runner {
	log := zerolog.Nop()
	trCfg := translate.Config{MaxAttempts: 3, RetryDelay: time.Millisecond}
	validator := validate.New(client, validate.Config{SampleSize: 5, Seed: 1}, nil, nil, log)
	controller := revise.New(client, validator, revise.Config{Threshold: 8.5, MaxAttempts: 3, RetryDelay: time.Millisecond}, nil, log)
	return New(translate.New(client, trCfg, nil, log), validator, controller, nil, log)
}

var spanishOnly = []catalog.Language{{Code: "es", Name: "Spanish"}}

func TestRun_AcceptableFirstPass(t *testing.T) {
	records := []*catalog.Record{catalog.NewRecord(1, "Free WiFi")}
	client := &scriptedClient{
		translateText: "1. WiFi gratuito",
		scores:        []float64{9},
	}

	summary := newRunner(client).Run(context.Background(), records, spanishOnly)

	if len(summary.Languages) != 1 {
		t.Fatalf("expected 1 language outcome, got %d", len(summary.Languages))
	}
	out := summary.Languages[0]

	if records[0].Translations["es"] != "WiFi gratuito" {
		t.Errorf("expected 'WiFi gratuito', got %q", records[0].Translations["es"])
	}
	if out.Status != revise.StatusAcceptable {
		t.Errorf("expected acceptable, got %s", out.Status)
	}
	if client.correctiveCalls.Load() != 0 {
		t.Error("no retranslation call expected for an acceptable language")
	}
	if summary.TotalTranslated != 1 || summary.TotalFailed != 0 {
		t.Errorf("unexpected totals: %+v", summary)
	}
	if summary.LevelCounts[string(validate.LevelExcellent)] != 1 {
		t.Errorf("expected one EXCELLENT language, got %v", summary.LevelCounts)
	}
	if summary.RunID == "" {
		t.Error("expected a run ID")
	}
}

func TestRun_RetranslationImproves(t *testing.T) {
	records := []*catalog.Record{catalog.NewRecord(1, "Free WiFi")}
	client := &scriptedClient{
		translateText:  "1. WiFi gratuito",
		scores:         []float64{5, 9},
		correctiveText: "1. WiFi gratis mejorado",
	}

	summary := newRunner(client).Run(context.Background(), records, spanishOnly)
	out := summary.Languages[0]

	if got := client.correctiveCalls.Load(); got != 1 {
		t.Errorf("expected exactly one retranslation call, got %d", got)
	}
	if out.Status != revise.StatusImproved {
		t.Errorf("expected improved, got %s", out.Status)
	}
	if records[0].Translations["es"] != "WiFi gratis mejorado" {
		t.Errorf("expected retranslated text stored, got %q", records[0].Translations["es"])
	}
	if out.OriginalScore != 5 || out.FinalScore != 9 {
		t.Errorf("unexpected scores: %+v", out)
	}
}

func TestRun_RetranslationFailsKeepsOriginal(t *testing.T) {
	records := []*catalog.Record{catalog.NewRecord(1, "Free WiFi")}
	client := &scriptedClient{
		translateText:  "1. WiFi gratuito",
		scores:         []float64{5, 5},
		correctiveText: "1. peor texto",
	}

	summary := newRunner(client).Run(context.Background(), records, spanishOnly)
	out := summary.Languages[0]

	if out.Status != revise.StatusKeptOriginal {
		t.Errorf("expected kept_original, got %s", out.Status)
	}
	if records[0].Translations["es"] != "WiFi gratuito" {
		t.Errorf("expected first-pass text restored, got %q", records[0].Translations["es"])
	}
}

func TestRun_MultipleLanguages(t *testing.T) {
	records := []*catalog.Record{
		catalog.NewRecord(1, "Free WiFi"),
		catalog.NewRecord(2, "Swimming pool"),
	}
	client := &scriptedClient{
		translateText: "1. uno\n2. dos",
		scores:        []float64{9},
	}

	languages := []catalog.Language{
		{Code: "es", Name: "Spanish"},
		{Code: "fr", Name: "French"},
	}

	summary := newRunner(client).Run(context.Background(), records, languages)

	if len(summary.Languages) != 2 {
		t.Fatalf("expected 2 language outcomes, got %d", len(summary.Languages))
	}
	if summary.TotalTranslated != 4 {
		t.Errorf("expected 4 translations, got %d", summary.TotalTranslated)
	}
	for _, lang := range languages {
		for _, r := range records {
			if r.MissingFor(lang.Code) {
				t.Errorf("record %d missing %s translation", r.ID, lang.Code)
			}
		}
	}
}

// panicClient panics for one language's prompts to exercise the per-language
// error isolation.
type panicClient struct {
	inner   *scriptedClient
	panicOn string
}

func (p *panicClient) Name() string { return "panicky" }

func (p *panicClient) Complete(ctx context.Context, req completion.Request) (*completion.Result, error) {
	if strings.Contains(req.Prompt, p.panicOn) {
		panic("boom")
	}
	return p.inner.Complete(ctx, req)
}

func (p *panicClient) IsAvailable(ctx context.Context) error { return nil }

func TestRun_LanguageErrorDoesNotAbortRun(t *testing.T) {
	records := []*catalog.Record{catalog.NewRecord(1, "Free WiFi")}
	client := &panicClient{
		inner: &scriptedClient{
			translateText: "1. ok",
			scores:        []float64{9},
		},
		panicOn: "to Spanish",
	}

	languages := []catalog.Language{
		{Code: "es", Name: "Spanish"},
		{Code: "fr", Name: "French"},
	}

	summary := newRunner(client).Run(context.Background(), records, languages)

	if len(summary.Languages) != 2 {
		t.Fatalf("expected both languages in summary, got %d", len(summary.Languages))
	}
	if summary.Languages[0].Status != StatusError {
		t.Errorf("expected error status for es, got %s", summary.Languages[0].Status)
	}
	if summary.Languages[0].Err == "" {
		t.Error("expected error detail for es")
	}
	if summary.Languages[1].Status != revise.StatusAcceptable {
		t.Errorf("expected fr to succeed, got %s", summary.Languages[1].Status)
	}
	if records[0].MissingFor("fr") {
		t.Error("fr translation must still be written")
	}
}

func TestRun_ContextCancelStopsBetweenLanguages(t *testing.T) {
	records := []*catalog.Record{catalog.NewRecord(1, "Free WiFi")}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &scriptedClient{translateText: "1. ok", scores: []float64{9}}
	summary := newRunner(client).Run(ctx, records, spanishOnly)

	if len(summary.Languages) != 0 {
		t.Errorf("expected no language processed after cancel, got %d", len(summary.Languages))
	}
}
