package main

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/doccollate/internal/async"
	"github.com/joseph-ayodele/doccollate/internal/ingest"
)

var (
	watchDebounce time.Duration
	watchExisting bool
)

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 2*time.Second, "Wait this long after the last write before processing a file")
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "Also process files already in --dir")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Process documents as they arrive in a directory",
	Long: `Watch --dir recursively and process every supported document that is
created or rewritten, until interrupted.

Examples:
  doccollate watch --target test_forms --dir ./inbox --out ./out`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, _ []string) error {
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

	q := async.NewDocumentQueue(a.processor, a.logger,
		async.WithWorkers(a.cfg.Queue.Workers),
		async.WithQueueSize(a.cfg.Queue.Size),
		async.WithProcessTimeout(a.cfg.Queue.ProcessTimeout))
	defer q.Shutdown(context.Background())

	ing := ingest.NewFSIngestor(q, batchTarget, a.logger)
	err = ingest.Watch(ctx, ing, ingest.WatchConfig{
		Roots:       []string{inputDir},
		InitialScan: watchExisting,
		Debounce:    watchDebounce,
		SkipHidden:  true,
	}, a.logger)
	if errors.Is(err, context.Canceled) {
		a.logger.Info("watch.stopped")
		return nil
	}
	return err
}
