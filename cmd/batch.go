package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/resolver-cli/internal/input"
	"github.com/sells-group/resolver-cli/internal/model"
	"github.com/sells-group/resolver-cli/internal/pipeline"
)

var (
	batchFile   string
	batchOutput string
	batchLimit  int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Resolve a batch of companies from a CSV or XLSX file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rows, err := input.ReadFile(batchFile)
		if err != nil {
			return &exitError{code: 2, msg: fmt.Sprintf("read input file: %v", err)}
		}
		if batchLimit > 0 && len(rows) > batchLimit {
			rows = rows[:batchLimit]
		}
		if len(rows) == 0 {
			zap.L().Info("no rows to process")
			return nil
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result := env.Pipeline.RunBatch(ctx, rows)

		if batchOutput != "" {
			if err := writeBatchCSV(batchOutput, rows, result); err != nil {
				return eris.Wrap(err, "write output")
			}
		}

		if _, err := env.Pipeline.CleanupCache(ctx); err != nil {
			zap.L().Warn("cache cleanup failed", zap.Error(err))
		}

		threshold := cfg.Batch.FailureThreshold
		if threshold <= 0 {
			threshold = 0.5
		}
		if rate := result.FailureRate(); rate > threshold {
			return &exitError{
				code: 3,
				msg: fmt.Sprintf("batch failure rate %.0f%% exceeds threshold (%d/%d rows failed)",
					rate*100, result.Failed, result.Total),
			}
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "input CSV or XLSX file (required)")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "output CSV file path")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of rows to process (0 = all)")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}

// writeBatchCSV renders one row per input, top contact inline, in the same
// order as the input file.
func writeBatchCSV(path string, rows []model.CompanyInput, result *pipeline.BatchResult) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "create output file")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(model.CSVHeader); err != nil {
		return eris.Wrap(err, "write header")
	}

	for i, job := range result.Jobs {
		rec := &model.ResolvedRecord{InputID: rows[i].ID, NeedsManualReview: true}
		if job != nil && job.Record != nil {
			rec = job.Record
		}
		if err := w.Write(model.CSVRow(rows[i].Name, rec)); err != nil {
			return eris.Wrap(err, "write row")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "flush output")
	}

	zap.L().Info("batch output written",
		zap.String("path", path),
		zap.Int("rows", len(result.Jobs)),
	)
	return nil
}
