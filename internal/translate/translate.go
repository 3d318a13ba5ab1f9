// Package translate implements the batched translation pass: it groups the
// records still missing a translation for a language into bounded batches,
// sends each batch through the completion client with bounded retry, and
// merges parsed results back into the record set.
package translate

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
)

const (
	DefaultBatchSize   = 20
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = time.Second
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 1500

	// maxBackoff caps the exponential retry delay.
	maxBackoff = 10 * time.Second
)

type Config struct {
	BatchSize   int
	MaxAttempts int
	RetryDelay  time.Duration
	Temperature float64
	MaxTokens   int
}

func (c *Config) applyDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
}

// LanguageResult summarises one translation pass over a language.
type LanguageResult struct {
	Code            string
	Requested       int
	Translated      int
	Failed          int
	Batches         int
	AlreadyComplete bool
}

type Translator struct {
	client  completion.Client
	cfg     Config
	limiter *rate.Limiter
	log     zerolog.Logger
}

func New(client completion.Client, cfg Config, limiter *rate.Limiter, log zerolog.Logger) *Translator {
	cfg.applyDefaults()
	return &Translator{client: client, cfg: cfg, limiter: limiter, log: log}
}

// TranslateLanguage fills in the missing translations for lang. It only
// touches records whose slot is absent, blank, or holds the failure
// sentinel, so re-running it never overwrites an existing translation.
// A batch that exhausts all retries marks its records with the failure
// sentinel instead of aborting the language.
func (t *Translator) TranslateLanguage(ctx context.Context, records []*catalog.Record, lang catalog.Language) (*LanguageResult, error) {
	missing := catalog.Missing(records, lang.Code)
	res := &LanguageResult{Code: lang.Code, Requested: len(missing)}

	if len(missing) == 0 {
		res.AlreadyComplete = true
		t.log.Debug().Str("lang", lang.Code).Msg("language already complete")
		return res, nil
	}

	batches := Partition(missing, t.cfg.BatchSize)
	res.Batches = len(batches)

	for bi, batch := range batches {
		req := completion.Request{
			Prompt:      buildBatchPrompt(lang, batch),
			Temperature: t.cfg.Temperature,
			MaxTokens:   t.cfg.MaxTokens,
		}

		result, err := CompleteWithRetry(ctx, t.client, req, t.cfg.MaxAttempts, t.cfg.RetryDelay, t.limiter, t.log)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			t.log.Warn().Err(err).Str("lang", lang.Code).Int("batch", bi+1).
				Msg("batch failed after retries, marking sentinel")
			for _, r := range batch {
				r.SetTranslation(lang.Code, catalog.FailedSentinel)
				res.Failed++
			}
			continue
		}

		lines := listparse.Parse(result.Text, len(batch))
		for i, r := range batch {
			if listparse.IsPlaceholder(lines[i]) {
				// Leave the slot untouched: still missing for future runs.
				res.Failed++
				continue
			}
			r.SetTranslation(lang.Code, lines[i])
			res.Translated++
		}
	}

	t.log.Info().Str("lang", lang.Code).
		Int("requested", res.Requested).
		Int("translated", res.Translated).
		Int("failed", res.Failed).
		Msg("translation pass complete")

	return res, nil
}

// Partition splits records into batches of at most size elements. The batch
// bound keeps prompts short enough for a single completion.
func Partition(records []*catalog.Record, size int) [][]*catalog.Record {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out [][]*catalog.Record
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		out = append(out, records[start:end])
	}
	return out
}

// CompleteWithRetry sends req through client with up to maxAttempts tries,
// exponential backoff between them, and optional rate-limiter pacing before
// each attempt. The last error is returned after exhaustion.
func CompleteWithRetry(ctx context.Context, client completion.Client, req completion.Request, maxAttempts int, baseDelay time.Duration, limiter *rate.Limiter, log zerolog.Logger) (*completion.Result, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		result, err := client.Complete(ctx, req)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt < maxAttempts-1 {
			d := Backoff(baseDelay, attempt)
			log.Debug().Err(err).Int("attempt", attempt+1).Dur("backoff", d).
				Msg("completion failed, retrying")
			if !sleepCtx(ctx, d) {
				return nil, ctx.Err()
			}
		}
	}

	return nil, fmt.Errorf("all %d attempts failed: %w", maxAttempts, lastErr)
}

// Backoff returns base·2^attempt capped at maxBackoff.
func Backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = DefaultRetryDelay
	}
	d := base << attempt
	if d > maxBackoff || d <= 0 {
		return maxBackoff
	}
	return d
}

// sleepCtx waits for d or returns false if ctx is done first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func buildBatchPrompt(lang catalog.Language, batch []*catalog.Record) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are a professional translator specialising in hospitality content.\n")
	fmt.Fprintf(&sb, "Translate the following hotel amenity phrases from English to %s.\n\n", lang.Name)
	sb.WriteString("Rules:\n")
	sb.WriteString("- Keep each translation short, in the register of a hotel amenity list.\n")
	sb.WriteString("- Preserve brand names and established technical terms such as WiFi.\n")
	sb.WriteString("- Respond with a numbered list only, one translation per line, no explanations.\n\n")
	sb.WriteString("Phrases:\n")
	for i, r := range batch {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, r.EnglishText)
	}

	return sb.String()
}
