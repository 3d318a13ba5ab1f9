package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/valpere/amentran/internal/catalog"
	"github.com/valpere/amentran/internal/orchestrator"
)

// ExportSnapshotJSON writes the full record set, every language's
// translation included, as indented JSON.
func ExportSnapshotJSON(path string, records []*catalog.Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return writeFile(path, data)
}

// reportDocument is the wire shape of the validation report export.
type reportDocument struct {
	GeneratedAt    time.Time                      `json:"generated_at"`
	RunID          string                         `json:"run_id"`
	OverallAverage float64                        `json:"overall_average"`
	LevelCounts    map[string]int                 `json:"level_counts"`
	Languages      []orchestrator.LanguageOutcome `json:"languages"`
}

// ExportReportJSON writes the validation report: overall score, quality
// level counts, and full per-language detail.
func ExportReportJSON(path string, summary *orchestrator.Summary) error {
	doc := reportDocument{
		GeneratedAt:    time.Now(),
		RunID:          summary.RunID,
		OverallAverage: summary.OverallAverage,
		LevelCounts:    summary.LevelCounts,
		Languages:      summary.Languages,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return writeFile(path, data)
}

// ExportCSV writes a tabular view of the records: one row per amenity, one
// column per language. Missing and failed slots export as empty cells.
func ExportCSV(path string, records []*catalog.Record, languages []catalog.Language) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := []string{"id", "english", "category", "priority"}
	for _, l := range languages {
		header = append(header, l.Code)
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{strconv.Itoa(r.ID), r.EnglishText, r.Category, strconv.Itoa(r.Priority)}
		for _, l := range languages {
			text, ok := r.Translation(l.Code)
			if !ok {
				text = ""
			}
			row = append(row, text)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
