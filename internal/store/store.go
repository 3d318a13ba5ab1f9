// Package store persists run artifacts in sqlite: the amenity records with
// every language's translation, per-language quality reports, and run
// summaries. Nothing in the pipeline reads these back mid-run; they exist
// for inspection and for seeding the next run.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/valpere/amentran/internal/catalog"
	"github.com/valpere/amentran/internal/orchestrator"
	"github.com/valpere/amentran/internal/revise"
	"github.com/valpere/amentran/internal/validate"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS amenities (
		id INTEGER PRIMARY KEY,
		english_text TEXT NOT NULL,
		category TEXT,
		priority INTEGER DEFAULT 0,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS translations (
		amenity_id INTEGER NOT NULL,
		lang TEXT NOT NULL,
		translated_text TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (amenity_id, lang),
		FOREIGN KEY (amenity_id) REFERENCES amenities(id)
	);

	CREATE TABLE IF NOT EXISTS quality_reports (
		run_id TEXT NOT NULL,
		lang TEXT NOT NULL,
		lang_name TEXT,
		status TEXT NOT NULL,
		translated INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		sample_size INTEGER DEFAULT 0,
		total_translated INTEGER DEFAULT 0,
		original_score REAL DEFAULT 0,
		final_score REAL DEFAULT 0,
		level TEXT,
		breakdown TEXT,
		reviews TEXT,
		error TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (run_id, lang)
	);

	CREATE TABLE IF NOT EXISTS run_summaries (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL,
		records INTEGER DEFAULT 0,
		total_translated INTEGER DEFAULT 0,
		total_failed INTEGER DEFAULT 0,
		overall_average REAL DEFAULT 0,
		level_counts TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_translations_lang ON translations(lang);
	CREATE INDEX IF NOT EXISTS idx_reports_run ON quality_reports(run_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRecords upserts the full record set, translations included, in one
// transaction. Failure sentinels and blank slots are not persisted, so a
// later run sees them as missing.
func (s *Store) SaveRecords(ctx context.Context, records []*catalog.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()

	for _, r := range records {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO amenities (id, english_text, category, priority, updated_at) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET english_text = excluded.english_text, category = excluded.category, priority = excluded.priority, updated_at = excluded.updated_at`,
			r.ID, normalizeText(r.EnglishText), r.Category, r.Priority, now)
		if err != nil {
			return fmt.Errorf("saving amenity %d: %w", r.ID, err)
		}

		for lang := range r.Translations {
			text, ok := r.Translation(lang)
			if !ok {
				continue
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO translations (amenity_id, lang, translated_text, updated_at) VALUES (?, ?, ?, ?)
				 ON CONFLICT(amenity_id, lang) DO UPDATE SET translated_text = excluded.translated_text, updated_at = excluded.updated_at`,
				r.ID, lang, text, now)
			if err != nil {
				return fmt.Errorf("saving translation %d/%s: %w", r.ID, lang, err)
			}
		}
	}

	return tx.Commit()
}

// LoadRecords returns all persisted records with their translations,
// ordered by ID.
func (s *Store) LoadRecords(ctx context.Context) ([]*catalog.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, english_text, category, priority FROM amenities ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*catalog.Record
	byID := make(map[int]*catalog.Record)

	for rows.Next() {
		var r catalog.Record
		var category sql.NullString
		if err := rows.Scan(&r.ID, &r.EnglishText, &category, &r.Priority); err != nil {
			return nil, err
		}
		r.Category = category.String
		r.Translations = make(map[string]string)
		records = append(records, &r)
		byID[r.ID] = &r
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	trows, err := s.db.QueryContext(ctx,
		`SELECT amenity_id, lang, translated_text FROM translations`)
	if err != nil {
		return nil, err
	}
	defer trows.Close()

	for trows.Next() {
		var id int
		var lang, text string
		if err := trows.Scan(&id, &lang, &text); err != nil {
			return nil, err
		}
		if r, ok := byID[id]; ok {
			r.SetTranslation(lang, text)
		}
	}

	return records, trows.Err()
}

// SaveSummary persists the run summary and one quality_reports row per
// language outcome.
func (s *Store) SaveSummary(ctx context.Context, summary *orchestrator.Summary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	levelCounts, err := json.Marshal(summary.LevelCounts)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO run_summaries (id, started_at, finished_at, records, total_translated, total_failed, overall_average, level_counts)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.RunID, summary.StartedAt, summary.FinishedAt, summary.Records,
		summary.TotalTranslated, summary.TotalFailed, summary.OverallAverage, string(levelCounts))
	if err != nil {
		return fmt.Errorf("saving summary: %w", err)
	}

	for _, lo := range summary.Languages {
		var breakdown, reviews []byte
		if lo.Report != nil {
			if breakdown, err = json.Marshal(lo.Report.Breakdown); err != nil {
				return err
			}
			if reviews, err = json.Marshal(lo.Report.Reviews); err != nil {
				return err
			}
		}

		sampleSize, totalTranslated := 0, 0
		if lo.Report != nil {
			sampleSize = lo.Report.SampleSize
			totalTranslated = lo.Report.TotalTranslated
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO quality_reports (run_id, lang, lang_name, status, translated, failed, sample_size, total_translated, original_score, final_score, level, breakdown, reviews, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			summary.RunID, lo.Code, lo.Name, string(lo.Status), lo.Translated, lo.Failed,
			sampleSize, totalTranslated, lo.OriginalScore, lo.FinalScore,
			string(lo.Level), string(breakdown), string(reviews), lo.Err)
		if err != nil {
			return fmt.Errorf("saving report %s: %w", lo.Code, err)
		}
	}

	return tx.Commit()
}

// LastSummary reconstructs the most recent run summary, language outcomes
// included.
func (s *Store) LastSummary(ctx context.Context) (*orchestrator.Summary, error) {
	var summary orchestrator.Summary
	var levelCounts string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, records, total_translated, total_failed, overall_average, level_counts
		 FROM run_summaries ORDER BY started_at DESC LIMIT 1`).
		Scan(&summary.RunID, &summary.StartedAt, &summary.FinishedAt, &summary.Records,
			&summary.TotalTranslated, &summary.TotalFailed, &summary.OverallAverage, &levelCounts)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no runs recorded")
	}
	if err != nil {
		return nil, err
	}

	summary.LevelCounts = make(map[string]int)
	if levelCounts != "" {
		if err := json.Unmarshal([]byte(levelCounts), &summary.LevelCounts); err != nil {
			return nil, fmt.Errorf("decoding level counts: %w", err)
		}
	}

	outcomes, err := s.languageOutcomes(ctx, summary.RunID)
	if err != nil {
		return nil, err
	}
	summary.Languages = outcomes

	return &summary, nil
}

func (s *Store) languageOutcomes(ctx context.Context, runID string) ([]orchestrator.LanguageOutcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lang, lang_name, status, translated, failed, sample_size, total_translated, original_score, final_score, level, breakdown, reviews, error
		 FROM quality_reports WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []orchestrator.LanguageOutcome
	for rows.Next() {
		var lo orchestrator.LanguageOutcome
		var name, status, level, breakdown, reviews, errText sql.NullString
		var sampleSize, totalTranslated int
		if err := rows.Scan(&lo.Code, &name, &status, &lo.Translated, &lo.Failed,
			&sampleSize, &totalTranslated, &lo.OriginalScore, &lo.FinalScore,
			&level, &breakdown, &reviews, &errText); err != nil {
			return nil, err
		}
		lo.Name = name.String
		lo.Status = revise.Status(status.String)
		lo.Level = validate.Level(level.String)
		lo.Err = errText.String

		if breakdown.String != "" || reviews.String != "" {
			report := &validate.Report{
				Code:            lo.Code,
				SampleSize:      sampleSize,
				TotalTranslated: totalTranslated,
				AverageScore:    lo.FinalScore,
				Level:           lo.Level,
			}
			if breakdown.String != "" {
				if err := json.Unmarshal([]byte(breakdown.String), &report.Breakdown); err != nil {
					return nil, fmt.Errorf("decoding breakdown %s: %w", lo.Code, err)
				}
			}
			if reviews.String != "" {
				if err := json.Unmarshal([]byte(reviews.String), &report.Reviews); err != nil {
					return nil, fmt.Errorf("decoding reviews %s: %w", lo.Code, err)
				}
			}
			lo.Report = report
		}
		out = append(out, lo)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Keep the catalogue's language order for stable output.
	sort.SliceStable(out, func(i, j int) bool {
		return languageRank(out[i].Code) < languageRank(out[j].Code)
	})
	return out, nil
}

// TranslationCount returns how many usable translations exist per language.
func (s *Store) TranslationCount(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lang, COUNT(*) FROM translations GROUP BY lang`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var lang string
		var n int
		if err := rows.Scan(&lang, &n); err != nil {
			return nil, err
		}
		out[lang] = n
	}
	return out, rows.Err()
}

func languageRank(code string) int {
	for i, l := range catalog.Languages {
		if l.Code == code {
			return i
		}
	}
	return len(catalog.Languages)
}

func normalizeText(text string) string {
	return norm.NFC.String(text)
}
