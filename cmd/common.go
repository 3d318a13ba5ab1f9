/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/valpere/amentran/internal/completion"
)

var defaultOpenRouterModels = []string{
	"google/gemini-2.5-flash-preview:free",
	"qwen/qwen2.5-72b-instruct:free",
	"mistralai/mistral-nemo:free",
	"meta-llama/llama-3.1-8b-instruct:free",
}

// appConfig is the fully resolved configuration for a pipeline run.
// Every value comes from a flag or an AMENTRAN_* environment variable;
// nothing downstream reads the environment.
type appConfig struct {
	Provider         string
	OpenRouterKey    string
	OpenRouterURL    string
	OpenRouterModels []string
	OllamaURL        string
	OllamaModel      string

	SourceURL string
	SourceKey string

	Languages   []string
	BatchSize   int
	SampleSize  int
	Threshold   float64
	MaxAttempts int
	RetryDelay  time.Duration
	RatePerMin  int
	Seed        int64

	DBPath string
	OutDir string

	Env      string
	LogLevel string
}

// loadConfig resolves the command's flags against AMENTRAN_* environment
// variables. Flags win; env fills in everything left at its default.
func loadConfig(cmd *cobra.Command) (*appConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("AMENTRAN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	cfg := &appConfig{
		Provider:         v.GetString("provider"),
		OpenRouterKey:    v.GetString("openrouter-key"),
		OpenRouterURL:    v.GetString("openrouter-url"),
		OpenRouterModels: v.GetStringSlice("openrouter-models"),
		OllamaURL:        v.GetString("ollama-url"),
		OllamaModel:      v.GetString("ollama-model"),
		SourceURL:        v.GetString("source-url"),
		SourceKey:        v.GetString("source-key"),
		Languages:        v.GetStringSlice("languages"),
		BatchSize:        v.GetInt("batch-size"),
		SampleSize:       v.GetInt("sample-size"),
		Threshold:        v.GetFloat64("threshold"),
		MaxAttempts:      v.GetInt("max-attempts"),
		RetryDelay:       v.GetDuration("retry-delay"),
		RatePerMin:       v.GetInt("rate"),
		Seed:             v.GetInt64("seed"),
		DBPath:           v.GetString("db"),
		OutDir:           v.GetString("out"),
		Env:              v.GetString("env"),
		LogLevel:         v.GetString("log-level"),
	}
	if len(cfg.OpenRouterModels) == 0 {
		cfg.OpenRouterModels = defaultOpenRouterModels
	}
	return cfg, nil
}

// buildClient constructs the completion backend named by cfg.Provider.
// A missing OpenRouter key is a configuration error, caught here before
// any work starts.
func buildClient(cfg *appConfig) (completion.Client, error) {
	switch cfg.Provider {
	case "openrouter":
		if cfg.OpenRouterKey == "" {
			return nil, fmt.Errorf("openrouter requires an API key (--openrouter-key or AMENTRAN_OPENROUTER_KEY)")
		}
		return completion.NewOpenRouterClient(cfg.OpenRouterKey, cfg.OpenRouterURL, cfg.OpenRouterModels), nil
	case "ollama":
		return completion.NewOllamaClient(cfg.OllamaModel, cfg.OllamaURL), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s (want openrouter or ollama)", cfg.Provider)
	}
}

// buildLimiter paces outbound completion calls. Zero or negative disables
// pacing.
func buildLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}
