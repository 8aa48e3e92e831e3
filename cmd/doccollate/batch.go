package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/doccollate/internal/async"
	"github.com/joseph-ayodele/doccollate/internal/export"
	"github.com/joseph-ayodele/doccollate/internal/fields"
	"github.com/joseph-ayodele/doccollate/internal/ingest"
)

var (
	batchTarget string
	inputDir    string
	reportPath  string
)

func init() {
	for _, c := range []*cobra.Command{batchCmd, watchCmd} {
		c.Flags().StringVar(&batchTarget, "target", fields.TargetCopyright, "Output target: test_forms, copyright or proposal")
		c.Flags().StringVar(&inputDir, "dir", "", "Directory with input documents (required)")
		_ = c.MarkFlagRequired("dir")
	}
	batchCmd.Flags().StringVar(&reportPath, "report", "", "XLSX report path (default: <out>/report.xlsx, needs DOCCOLLATE_STORE_DSN)")
	rootCmd.AddCommand(batchCmd)
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Process every supported document in a directory",
	Long: `Process every pdf, docx, markdown and text file under --dir through the
worker queue. Each document gets a JSON file in --out; with a run store
configured the runs are recorded and summarized in an XLSX report.

Examples:
  DOCCOLLATE_WORKERS=4 DOCCOLLATE_STORE_DSN=runs.db doccollate batch --target copyright --dir ./manuals --out ./out`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func runBatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if outPath == "" {
		outPath = filepath.Join(inputDir, "doccollate-out")
	}
	a.processor.OutDir = outPath

	var (
		mu     sync.Mutex
		failed []string
	)
	q := async.NewDocumentQueue(a.processor, a.logger,
		async.WithWorkers(a.cfg.Queue.Workers),
		async.WithQueueSize(a.cfg.Queue.Size),
		async.WithProcessTimeout(a.cfg.Queue.ProcessTimeout),
		async.WithResultHook(func(j async.Job, err error) {
			if err != nil {
				mu.Lock()
				failed = append(failed, j.Path)
				mu.Unlock()
			}
		}))

	start := time.Now()
	ing := ingest.NewFSIngestor(q, batchTarget, a.logger)
	_, stats, err := ing.IngestDirectory(ctx, inputDir)
	q.Shutdown(context.WithoutCancel(ctx))
	if err != nil {
		return err
	}
	a.logger.Info("batch.done",
		"enqueued", stats.Enqueued,
		"deduplicated", stats.Deduplicated,
		"failed", len(failed)+int(stats.Failed),
		"elapsed_ms", time.Since(start).Milliseconds())

	if a.runs != nil {
		if reportPath == "" {
			reportPath = filepath.Join(outPath, "report.xlsx")
		}
		b, err := export.NewService(a.runs, a.logger).ExportRunsXLSX(ctx, int(stats.Enqueued))
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(reportPath), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(reportPath, b, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		a.logger.Info("batch.report.written", "path", reportPath)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d documents failed", len(failed), stats.Enqueued)
	}
	return nil
}
