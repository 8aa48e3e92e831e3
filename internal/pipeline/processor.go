// Package pipeline runs one document end to end: read text, extract and
// normalize the fields of a form target or generate a proposal, record the
// run.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/doccollate/internal/async"
	"github.com/joseph-ayodele/doccollate/internal/common"
	"github.com/joseph-ayodele/doccollate/internal/entity"
	"github.com/joseph-ayodele/doccollate/internal/fields"
	"github.com/joseph-ayodele/doccollate/internal/metrics"
	"github.com/joseph-ayodele/doccollate/internal/proposal"
	"github.com/joseph-ayodele/doccollate/internal/store"
)

// Outcome is what one processed document produced. Exactly one of Fields and
// Proposal is set.
type Outcome struct {
	RunID      uuid.UUID
	Path       string
	Target     string
	SourceType string
	Fields     entity.FieldData
	Proposal   *proposal.Result
	OutputPath string
}

// Processor coordinates the text stage, then the form or proposal stage.
type Processor struct {
	Logger    *slog.Logger
	Text      *TextStage
	Forms     *FormStage
	Proposals *proposal.Generator
	Runs      store.RunRepository // optional

	Meta   Metadata
	Inputs *proposal.Inputs // proposal manual inputs; nil means derive from Meta
	// OutDir receives one JSON file per document when set.
	OutDir string
}

func NewProcessor(logger *slog.Logger, text *TextStage, forms *FormStage, proposals *proposal.Generator, runs store.RunRepository) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Text: text, Forms: forms, Proposals: proposals, Runs: runs}
}

var _ async.Processor = (*Processor)(nil)

// Process adapts ProcessFile to the batch queue.
func (p *Processor) Process(ctx context.Context, job async.Job) error {
	_, err := p.ProcessFile(ctx, job.Path, job.Target, job.Hash)
	return err
}

// ProcessFile runs all stages for path and records the run. The run row is
// closed as FAILED on any error.
func (p *Processor) ProcessFile(ctx context.Context, path, target, contentHash string) (out Outcome, err error) {
	ctx, _ = common.EnsureRequestID(ctx)
	start := time.Now()
	out = Outcome{Path: path, Target: target}

	if !validTarget(target) {
		return out, common.NewConfigError("unknown target %q", target)
	}

	if p.Runs != nil {
		run, err := p.Runs.Start(ctx, path, target, contentHash)
		if err != nil {
			return out, err
		}
		out.RunID = run.ID
		ctx = common.WithRunID(ctx, run.ID.String())
	}
	logger := common.LoggerFrom(ctx, p.Logger).With("path", path, "target", target)

	defer func() {
		metrics.RecordDocument(target, err, time.Since(start))
		if err != nil {
			logger.Error("processor.failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
			if p.Runs != nil && out.RunID != uuid.Nil {
				if ferr := p.Runs.FinishFailure(context.WithoutCancel(ctx), out.RunID, err.Error()); ferr != nil {
					logger.Warn("processor.run.close_failed", "error", ferr)
				}
			}
		}
	}()

	text, err := p.Text.Run(ctx, out.RunID, path)
	if err != nil {
		return out, err
	}
	out.SourceType = text.SourceType

	var (
		result any
		count  int
	)
	switch target {
	case fields.TargetProposal:
		if p.Proposals == nil {
			return out, common.NewConfigError("proposal generator is not configured")
		}
		res, err := p.Proposals.Generate(ctx, text.Text, p.proposalInputs(ctx, path))
		if err != nil {
			return out, err
		}
		out.Proposal = res
		result, count = res.Document, len(res.Placeholders)
	default:
		data, err := p.Forms.Run(ctx, path, text.Text, target, p.Meta)
		if err != nil {
			return out, err
		}
		out.Fields = data
		result, count = data, len(data)
	}

	if p.OutDir != "" {
		if out.OutputPath, err = writeOutput(p.OutDir, path, target, result); err != nil {
			return out, err
		}
	}
	if p.Runs != nil {
		if err := p.Runs.FinishSuccess(ctx, out.RunID, count, result); err != nil {
			return out, err
		}
	}
	logger.Info("processor.ok", "fields", count, "output", out.OutputPath, "elapsed_ms", time.Since(start).Milliseconds())
	return out, nil
}

// proposalInputs copies the configured inputs, or builds them from the
// operator metadata with the file name as the project name.
func (p *Processor) proposalInputs(ctx context.Context, path string) *proposal.Inputs {
	if p.Inputs != nil {
		return p.Inputs.Clone()
	}
	project := p.Meta.AppName
	if project == "" {
		project = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p.Proposals.InputsFor(ctx, "", project)
}

func validTarget(t string) bool {
	switch t {
	case fields.TargetTestForms, fields.TargetCopyright, fields.TargetProposal:
		return true
	}
	return false
}

// writeOutput writes <stem>.<target>.json under dir.
func writeOutput(dir, path, target string, v any) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	dst := filepath.Join(dir, stem+"."+target+".json")
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", target, err)
	}
	if err := os.WriteFile(dst, b, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", dst, err)
	}
	return dst, nil
}
