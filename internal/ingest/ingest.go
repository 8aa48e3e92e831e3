// Package ingest discovers input documents and hands them to the batch queue.
package ingest

import (
	"context"
)

// Result is the per-file ingest outcome.
type Result struct {
	Path         string
	HashHex      string
	Format       string
	Enqueued     bool
	Deduplicated bool
	Err          string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Enqueued     uint32
	Deduplicated uint32
	Failed       uint32
}

// Ingestor is the behavior batch and watch modes depend on.
type Ingestor interface {
	// IngestPath enqueues a single file.
	IngestPath(ctx context.Context, path string) (Result, error)
	// IngestDirectory enqueues all matching files under root.
	IngestDirectory(ctx context.Context, root string) ([]Result, DirStats, error)
}
