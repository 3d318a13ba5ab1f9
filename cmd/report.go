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

	"github.com/spf13/cobra"

	"github.com/valpere/amentran/internal/store"
)

var reportDB string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the latest persisted run summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.New(reportDB)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		ctx := context.Background()
		summary, err := db.LastSummary(ctx)
		if err != nil {
			return fmt.Errorf("failed to load last run: %w", err)
		}

		printSummary(summary)

		counts, err := db.TranslationCount(ctx)
		if err != nil {
			return err
		}
		total := 0
		for _, n := range counts {
			total += n
		}
		fmt.Printf("Stored translations: %d across %d languages\n", total, len(counts))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportDB, "db", "./data/amentran.db", "Database path")
}
