// Package completion abstracts the text-completion capability used by the
// translation and validation passes. A Client takes a prompt with sampling
// parameters and returns generated text; it performs no retry and no
// caching: callers own their retry policy, and every call (including a
// failed one that reached the remote service) consumes quota.
package completion

import (
	"context"
	"errors"
	"time"
)

// Error kinds. Providers wrap these so callers can branch with errors.Is
// instead of inspecting response shapes.
var (
	// ErrUnavailable covers network failures and timeouts: the request may
	// never have reached the service.
	ErrUnavailable = errors.New("completion service unavailable")

	// ErrModel covers non-2xx responses and empty or undecodable payloads:
	// the service answered, but not with usable text.
	ErrModel = errors.New("completion model error")
)

// Request carries one prompt and its sampling parameters.
type Request struct {
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Result is the generated text plus call metadata.
type Result struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	Latency          time.Duration
}

// Client is implemented by each completion provider.
type Client interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Result, error)
	IsAvailable(ctx context.Context) error
}
