package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/joseph-ayodele/doccollate/constants"
	"github.com/joseph-ayodele/doccollate/internal/async"
	"github.com/joseph-ayodele/doccollate/internal/common"
)

// FSIngestor reads from the local filesystem and enqueues documents for one
// target form. A file whose content was already enqueued is skipped.
type FSIngestor struct {
	Queue      async.Queue
	Target     string
	SkipHidden bool
	logger     *slog.Logger

	mu   sync.Mutex
	seen map[string]string // content hash -> first path
}

func NewFSIngestor(q async.Queue, target string, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{
		Queue:      q,
		Target:     target,
		SkipHidden: true,
		logger:     logger,
		seen:       map[string]string{},
	}
}

var _ Ingestor = (*FSIngestor)(nil)

func (i *FSIngestor) IngestPath(ctx context.Context, path string) (Result, error) {
	out := Result{Path: path}

	abs, err := filepath.Abs(path)
	if err != nil {
		i.logger.Error("ingest.abs.failed", "path", path, "error", err)
		return out, err
	}
	out.Path = abs

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext) {
		i.logger.Warn("ingest.ext.unsupported", "path", abs, "ext", ext)
		return out, common.NewAppError("INVALID_INPUT", fmt.Sprintf("unsupported or missing extension %q", ext), common.ErrInvalidInput)
	}
	out.Format = constants.MapExtToFormat(ext)

	sum, err := hashFile(abs)
	if err != nil {
		i.logger.Error("ingest.hash.failed", "path", abs, "error", err)
		return out, common.NewAppError(common.CodeDocumentRead, "hash "+filepath.Base(abs), err)
	}
	out.HashHex = sum

	i.mu.Lock()
	first, dup := i.seen[sum]
	if !dup {
		i.seen[sum] = abs
	}
	i.mu.Unlock()
	if dup {
		i.logger.Info("ingest.dedup", "path", abs, "first", first)
		out.Deduplicated = true
		return out, nil
	}

	if err := i.Queue.Enqueue(ctx, async.Job{Path: abs, Target: i.Target, Hash: sum}); err != nil {
		// let a later attempt enqueue the same content
		i.mu.Lock()
		delete(i.seen, sum)
		i.mu.Unlock()
		return out, fmt.Errorf("enqueue: %w", err)
	}
	out.Enqueued = true
	i.logger.Debug("ingest.enqueued", "path", abs, "target", i.Target, "format", out.Format)
	return out, nil
}
