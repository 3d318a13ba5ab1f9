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
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/valpere/amentran/internal/catalog"
	"github.com/valpere/amentran/internal/detector"
	"github.com/valpere/amentran/internal/logging"
	"github.com/valpere/amentran/internal/orchestrator"
	"github.com/valpere/amentran/internal/revise"
	"github.com/valpere/amentran/internal/source"
	"github.com/valpere/amentran/internal/store"
	"github.com/valpere/amentran/internal/translate"
	"github.com/valpere/amentran/internal/validate"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Translate, validate, and revise the amenity catalogue",
	Long: `Runs the full pipeline: loads amenity records (from the database, the
remote amenity source, or the built-in sample), translates the missing slots
for every target language in batches, scores each language on a random
sample, and retranslates languages scoring below the threshold with a
corrective prompt.

Results are persisted to sqlite and exported as JSON and CSV.

All flags can also be set through AMENTRAN_* environment variables,
e.g. AMENTRAN_OPENROUTER_KEY.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		log := logging.New(cfg.Env, cfg.LogLevel)

		client, err := buildClient(cfg)
		if err != nil {
			return err
		}

		languages, unknown := catalog.SelectLanguages(cfg.Languages)
		if len(unknown) > 0 {
			return fmt.Errorf("unknown language codes: %v (see \"amentran languages\")", unknown)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := client.IsAvailable(ctx); err != nil {
			return fmt.Errorf("completion backend %s unavailable: %w", client.Name(), err)
		}

		db, err := store.New(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		records, err := db.LoadRecords(ctx)
		if err != nil {
			return fmt.Errorf("failed to load records: %w", err)
		}
		if len(records) == 0 {
			var src *source.Client
			if cfg.SourceURL != "" {
				src = source.New(cfg.SourceURL, cfg.SourceKey, 0)
			}
			records = source.LoadOrSample(ctx, src, log)
		} else {
			log.Info().Int("records", len(records)).Msg("loaded records from database")
		}

		limiter := buildLimiter(cfg.RatePerMin)

		translator := translate.New(client, translate.Config{
			BatchSize:   cfg.BatchSize,
			MaxAttempts: cfg.MaxAttempts,
			RetryDelay:  cfg.RetryDelay,
		}, limiter, log)

		validator := validate.New(client, validate.Config{
			SampleSize: cfg.SampleSize,
			Seed:       cfg.Seed,
		}, detector.New(), limiter, log)

		controller := revise.New(client, validator, revise.Config{
			Threshold:   cfg.Threshold,
			BatchSize:   cfg.BatchSize,
			MaxAttempts: cfg.MaxAttempts,
			RetryDelay:  cfg.RetryDelay,
		}, limiter, log)

		runner := orchestrator.New(translator, validator, controller, limiter, log)
		summary := runner.Run(ctx, records, languages)

		if err := db.SaveRecords(ctx, records); err != nil {
			return fmt.Errorf("failed to persist records: %w", err)
		}
		if err := db.SaveSummary(ctx, summary); err != nil {
			return fmt.Errorf("failed to persist summary: %w", err)
		}

		if cfg.OutDir != "" {
			if err := store.ExportSnapshotJSON(filepath.Join(cfg.OutDir, "amenities.json"), records); err != nil {
				return err
			}
			if err := store.ExportReportJSON(filepath.Join(cfg.OutDir, "report.json"), summary); err != nil {
				return err
			}
			if err := store.ExportCSV(filepath.Join(cfg.OutDir, "amenities.csv"), records, languages); err != nil {
				return err
			}
		}

		printSummary(summary)

		if ctx.Err() != nil {
			return fmt.Errorf("run interrupted: %w", ctx.Err())
		}
		return nil
	},
}

func printSummary(summary *orchestrator.Summary) {
	fmt.Printf("Run %s: %d records, %d languages, %s\n",
		summary.RunID, summary.Records, len(summary.Languages),
		summary.FinishedAt.Sub(summary.StartedAt).Round(time.Second))
	fmt.Printf("Translated %d slots, %d failed, overall average %.2f\n",
		summary.TotalTranslated, summary.TotalFailed, summary.OverallAverage)

	for _, lo := range summary.Languages {
		switch lo.Status {
		case orchestrator.StatusError:
			fmt.Printf("  %-6s %-20s ERROR: %s\n", lo.Code, lo.Name, lo.Err)
		case revise.StatusImproved:
			fmt.Printf("  %-6s %-20s %-17s %.2f -> %.2f  %s\n",
				lo.Code, lo.Name, lo.Status, lo.OriginalScore, lo.FinalScore, lo.Level)
		default:
			fmt.Printf("  %-6s %-20s %-17s %.2f  %s\n",
				lo.Code, lo.Name, lo.Status, lo.FinalScore, lo.Level)
		}
	}
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("provider", "openrouter", "Completion backend (openrouter or ollama)")
	runCmd.Flags().String("openrouter-key", "", "OpenRouter API key")
	runCmd.Flags().String("openrouter-url", "", "OpenRouter base URL (default https://openrouter.ai/api/v1)")
	runCmd.Flags().StringSlice("openrouter-models", nil, "OpenRouter models to rotate (default list used if empty)")
	runCmd.Flags().String("ollama-url", "http://localhost:11434", "Ollama base URL")
	runCmd.Flags().String("ollama-model", "llama3.1:8b", "Ollama model name")

	runCmd.Flags().String("source-url", "", "Remote amenity source base URL (built-in sample used if empty)")
	runCmd.Flags().String("source-key", "", "Remote amenity source API key")

	runCmd.Flags().StringSlice("languages", nil, "Target language codes (all 32 if empty)")
	runCmd.Flags().Int("batch-size", translate.DefaultBatchSize, "Phrases per translation request")
	runCmd.Flags().Int("sample-size", validate.DefaultSampleSize, "Translations scored per language")
	runCmd.Flags().Float64("threshold", revise.DefaultThreshold, "Quality score below which a language is retranslated")
	runCmd.Flags().Int("max-attempts", translate.DefaultMaxAttempts, "Total attempts per completion call including the first")
	runCmd.Flags().Duration("retry-delay", translate.DefaultRetryDelay, "Base delay for retry backoff")
	runCmd.Flags().Int("rate", 0, "Completion calls per minute (0 = unpaced)")
	runCmd.Flags().Int64("seed", 0, "Validation sampling seed (0 = from clock)")

	runCmd.Flags().String("db", "./data/amentran.db", "Database path")
	runCmd.Flags().String("out", "./out", "Directory for JSON/CSV exports (empty = no exports)")

	runCmd.Flags().String("env", "", "Environment name; dev switches to console logging")
	runCmd.Flags().String("log-level", "info", "Log level (trace, debug, info, warn, error)")
}
