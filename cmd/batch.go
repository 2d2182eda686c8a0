package cmd

import (
	"fmt"
	"log/slog"

	"github.com/bookscout/bookscout/internal/batch"
	"github.com/spf13/cobra"
)

func newBatchCmd() *cobra.Command {
	var input, output string
	var sample, concurrency int

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run the pipeline for every keyword in a Parquet or JSONL file",
		Long: `Reads {keyword, lat, lon} rows from a Parquet or JSONL file, runs the
recommendation pipeline for each and writes a YAML summary to the output directory.`,
		Example: `  # Run the first 20 keywords
  bookscout batch --input keywords.jsonl --sample 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" {
				return fmt.Errorf("--input is required")
			}

			settings, source, err := loadConfig()
			if err != nil {
				return err
			}

			records, err := batch.Load(input, sample)
			if err != nil {
				return err
			}
			slog.Info("Loaded keywords", "count", len(records), "input", input)

			pipeline, err := newPipeline(settings, source)
			if err != nil {
				return err
			}

			entries := batch.Run(cmd.Context(), pipeline, records, concurrency)

			path, err := batch.SaveToYAML(output, batch.ReportConfig{
				Provider:  settings.Provider,
				Model:     settings.Model,
				InputPath: input,
				Sample:    sample,
			}, entries)
			if err != nil {
				return err
			}

			slog.Info("Batch results saved", "path", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Keyword file (.parquet or .jsonl)")
	cmd.Flags().StringVarP(&output, "output", "o", "batches", "Output directory for the YAML report")
	cmd.Flags().IntVar(&sample, "sample", 0, "Only process the first N keywords (0 = all)")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 2, "Number of keywords processed concurrently")

	return cmd
}
