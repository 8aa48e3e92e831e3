// Package async runs documents through a bounded worker pool.
package async

import (
	"context"
	"errors"
	"time"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one document to process for one target.
type Job struct {
	Path        string
	Target      string
	Hash        string // sha256 of the file content, hex; may be empty
	SubmittedAt time.Time
	TraceID     string
}

// Processor handles one job. Errors are reported, never retried.
type Processor interface {
	Process(ctx context.Context, job Job) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, job Job) error

func (f ProcessorFunc) Process(ctx context.Context, job Job) error { return f(ctx, job) }

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
