package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
)

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/amenities" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("X-API-Key"); got != "test-key" {
			t.Errorf("expected API key header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": 1, "name": "Free WiFi", "category": "connectivity", "priority": 1,
			 "existing_translations": {"es": "WiFi gratuito", "fr": "  "}},
			{"id": 2, "name": "Swimming pool", "category": "leisure", "priority": 2},
			{"id": 3, "name": "   "}
		]`))
	}))
	defer server.Close()

	c := New(server.URL, "test-key", 10)
	records, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records (blank name skipped), got %d", len(records))
	}
	if records[0].EnglishText != "Free WiFi" || records[0].Category != "connectivity" {
		t.Errorf("unexpected record: %+v", records[0])
	}
	if got, ok := records[0].Translation("es"); !ok || got != "WiFi gratuito" {
		t.Errorf("expected existing es translation, got %q", got)
	}
	if !records[0].MissingFor("fr") {
		t.Error("blank existing translation must count as missing")
	}
}

func TestFetch_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[{"id": 1, "name": "Free WiFi"}]`))
	}))
	defer server.Close()

	c := New(server.URL, "", 10)
	records, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 record, got %d", len(records))
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestFetch_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(server.URL, "", 10)
	_, err := c.Fetch(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if calls.Load() != maxAttempts {
		t.Errorf("expected %d attempts, got %d", maxAttempts, calls.Load())
	}
}

func TestFetch_NonRetryableStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := New(server.URL, "", 10)
	_, err := c.Fetch(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("401 must not be retried, got %d attempts", calls.Load())
	}
}

func TestLoadOrSample_NilClient(t *testing.T) {
	records := LoadOrSample(context.Background(), nil, zerolog.Nop())
	if len(records) != 10 {
		t.Errorf("expected the 10-record sample, got %d", len(records))
	}
}

func TestLoadOrSample_FallbackOnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	c := New(server.URL, "", 10)
	records := LoadOrSample(context.Background(), c, zerolog.Nop())
	if len(records) != 10 {
		t.Errorf("expected sample fallback, got %d records", len(records))
	}
}
