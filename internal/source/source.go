// Package source fetches the amenity catalogue from the remote amenities
// API. The provider is best-effort: callers fall back to the built-in
// sample set when it is unreachable.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/valpere/amentran/internal/catalog"
)

// ErrUnavailable wraps any failure to reach or read the amenities API.
var ErrUnavailable = errors.New("amenity source unavailable")

// maxAttempts bounds retries for 429 and transient 5xx responses.
const maxAttempts = 4

type Client struct {
	base string
	key  string
	hc   *http.Client
	rl   *rate.Limiter
}

func New(base, key string, rps int) *Client {
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		key:  key,
		hc:   &http.Client{Timeout: 20 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// amenityPayload is the wire shape of one catalogue entry.
type amenityPayload struct {
	ID                   int               `json:"id"`
	Name                 string            `json:"name"`
	Category             string            `json:"category"`
	Priority             int               `json:"priority"`
	ExistingTranslations map[string]string `json:"existing_translations"`
}

// Fetch returns the ordered amenity catalogue. Retries on 429 and transient
// 5xx, honoring Retry-After when provided; every other failure wraps
// ErrUnavailable.
func (c *Client) Fetch(ctx context.Context) ([]*catalog.Record, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	var payload []amenityPayload
	if err := c.get(ctx, c.base+"/amenities", &payload); err != nil {
		return nil, err
	}

	out := make([]*catalog.Record, 0, len(payload))
	for _, p := range payload {
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		r := catalog.NewRecord(p.ID, p.Name)
		r.Category = p.Category
		r.Priority = p.Priority
		for code, text := range p.ExistingTranslations {
			if strings.TrimSpace(text) != "" {
				r.SetTranslation(code, text)
			}
		}
		out = append(out, r)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, url string, out any) error {
	var lastErr error

	for i := 0; i < maxAttempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if c.key != "" {
			req.Header.Set("X-API-Key", c.key)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "amentran/1.0")

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
			if i < maxAttempts-1 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			return lastErr
		}

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("%w: decoding payload: %v", ErrUnavailable, err)
			}
			return nil

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("%w: remote %d", ErrUnavailable, resp.StatusCode)
			if i < maxAttempts-1 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

func backoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * 500 * time.Millisecond
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

// retryAfter parses a Retry-After header in seconds or HTTP-date form.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// LoadOrSample fetches the catalogue from c, falling back to the built-in
// sample set when c is nil or unreachable.
func LoadOrSample(ctx context.Context, c *Client, log zerolog.Logger) []*catalog.Record {
	if c == nil {
		log.Info().Msg("no amenity source configured, using built-in sample")
		return catalog.SampleRecords()
	}

	records, err := c.Fetch(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("amenity source unreachable, using built-in sample")
		return catalog.SampleRecords()
	}
	if len(records) == 0 {
		log.Warn().Msg("amenity source returned no records, using built-in sample")
		return catalog.SampleRecords()
	}

	log.Info().Int("records", len(records)).Msg("loaded amenity catalogue")
	return records
}
