package completion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func openRouterBody(content string) string {
	resp := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
		"usage": map[string]int{"prompt_tokens": 12, "completion_tokens": 7},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func TestOpenRouterComplete(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(openRouterBody("1. WiFi gratis")))
	}))
	defer server.Close()

	client := NewOpenRouterClient("test-key", server.URL, []string{"test/model"})
	result, err := client.Complete(context.Background(), Request{
		Prompt:      "Translate the following hotel amenity phrases",
		Temperature: 0.3,
		MaxTokens:   1500,
	})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotPath != "/chat/completions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody["model"] != "test/model" {
		t.Errorf("model = %v", gotBody["model"])
	}
	if result.Text != "1. WiFi gratis" {
		t.Errorf("Text = %q", result.Text)
	}
	if result.Model != "test/model" {
		t.Errorf("Model = %q", result.Model)
	}
	if result.PromptTokens != 12 || result.CompletionTokens != 7 {
		t.Errorf("usage = %d/%d", result.PromptTokens, result.CompletionTokens)
	}
}

func TestOpenRouterCleansThinkingBlocks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(openRouterBody("<think>working it out</think>1. WiFi gratis")))
	}))
	defer server.Close()

	client := NewOpenRouterClient("test-key", server.URL, []string{"test/model"})
	result, err := client.Complete(context.Background(), Request{Prompt: "x"})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if result.Text != "1. WiFi gratis" {
		t.Errorf("thinking block not stripped: %q", result.Text)
	}
}

func TestOpenRouterErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name: "non-200 is a model error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			want: ErrModel,
		},
		{
			name: "empty choices is a model error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"choices":[]}`))
			},
			want: ErrModel,
		},
		{
			name: "blank content is a model error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(openRouterBody("   ")))
			},
			want: ErrModel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewOpenRouterClient("test-key", server.URL, []string{"test/model"})
			_, err := client.Complete(context.Background(), Request{Prompt: "x"})
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestOpenRouterUnreachableIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewOpenRouterClient("test-key", server.URL, []string{"test/model"})
	_, err := client.Complete(context.Background(), Request{Prompt: "x"})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestOpenRouterMissingKey(t *testing.T) {
	client := NewOpenRouterClient("", "http://localhost:1", []string{"m"})
	if _, err := client.Complete(context.Background(), Request{Prompt: "x"}); !errors.Is(err, ErrModel) {
		t.Errorf("Complete without key = %v, want ErrModel", err)
	}
	if err := client.IsAvailable(context.Background()); err == nil {
		t.Error("IsAvailable without key should fail")
	}
}

func TestOllamaComplete(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]string{"response": "1. WiFi gratuit"})
	}))
	defer server.Close()

	client := NewOllamaClient("llama3.1:8b", server.URL)
	result, err := client.Complete(context.Background(), Request{Prompt: "x", Temperature: 0.2, MaxTokens: 500})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}

	if gotPath != "/api/generate" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody["stream"] != false {
		t.Errorf("stream = %v, want false", gotBody["stream"])
	}
	opts, _ := gotBody["options"].(map[string]interface{})
	if opts["num_predict"] != float64(500) {
		t.Errorf("num_predict = %v", opts["num_predict"])
	}
	if result.Text != "1. WiFi gratuit" {
		t.Errorf("Text = %q", result.Text)
	}
	if result.Model != "llama3.1:8b" {
		t.Errorf("Model = %q", result.Model)
	}
}

func TestOllamaErrorMapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewOllamaClient("llama3.1:8b", server.URL)
	if _, err := client.Complete(context.Background(), Request{Prompt: "x"}); !errors.Is(err, ErrModel) {
		t.Errorf("error = %v, want ErrModel", err)
	}

	server.Close()
	if _, err := client.Complete(context.Background(), Request{Prompt: "x"}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("error after close = %v, want ErrUnavailable", err)
	}
}

func TestOllamaIsAvailable(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	client := NewOllamaClient("llama3.1:8b", server.URL)
	if err := client.IsAvailable(context.Background()); err != nil {
		t.Fatalf("IsAvailable() error: %v", err)
	}
	if gotPath != "/api/tags" {
		t.Errorf("path = %q", gotPath)
	}

	server.Close()
	if err := client.IsAvailable(context.Background()); err == nil {
		t.Error("IsAvailable against closed server should fail")
	}
}
