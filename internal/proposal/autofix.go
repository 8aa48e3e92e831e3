package proposal

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/doccollate/internal/common"
	"github.com/joseph-ayodele/doccollate/internal/llm"
	"github.com/joseph-ayodele/doccollate/internal/metrics"
)

// FixState is a step of the auto-fix state machine.
type FixState int

const (
	StatePad FixState = iota
	StateReformat
	StateFillResources
	StateFillCosts
	StateDone
)

func (s FixState) String() string {
	switch s {
	case StatePad:
		return "pad"
	case StateReformat:
		return "reformat"
	case StateFillResources:
		return "fill_resources"
	case StateFillCosts:
		return "fill_costs"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// MaxFillAttempts bounds the completion calls made for one money table.
const MaxFillAttempts = 2

// AutoFixer repairs a proposal that failed validation: it pads the structure,
// reformats the features placeholder and asks the completion service to fill
// missing money cells. It never fails; whatever cannot be repaired is left
// for the caller's re-validation to report.
type AutoFixer struct {
	completer   llm.Completer
	temperature float32
	logger      *slog.Logger
}

func NewAutoFixer(c llm.Completer, logger *slog.Logger) *AutoFixer {
	if logger == nil {
		logger = slog.Default()
	}
	return &AutoFixer{completer: c, temperature: 0.2, logger: logger}
}

// fixRun carries one Fix call through the states.
type fixRun struct {
	raw      map[string]any
	doc      *Document
	evidence EvidenceSet
	calls    map[string]int
}

// Fix runs PAD, REFORMAT, FILL(resources), FILL(costs) in that order and
// returns the repaired document.
func (f *AutoFixer) Fix(ctx context.Context, raw map[string]any, ev EvidenceSet) *Document {
	logger := common.LoggerFrom(ctx, f.logger)
	run := &fixRun{raw: raw, evidence: ev, calls: map[string]int{}}
	start := time.Now()

	for state := StatePad; state != StateDone; {
		next := f.step(ctx, run, state)
		logger.Debug("autofix.transition", "from", state.String(), "to", next.String())
		state = next
	}

	logger.Info("autofix.done",
		"resources_calls", run.calls[TableResources],
		"costs_calls", run.calls[TableCosts],
		"elapsed_ms", time.Since(start).Milliseconds())
	return run.doc
}

func (f *AutoFixer) step(ctx context.Context, run *fixRun, state FixState) FixState {
	switch state {
	case StatePad:
		run.doc = padDocument(run.raw)
		return StateReformat
	case StateReformat:
		run.doc.Placeholders[FeaturesPlaceholder] = FormatFeatures(run.doc.Placeholders[FeaturesPlaceholder])
		return StateFillResources
	case StateFillResources:
		f.fill(ctx, run, moneyTables[0])
		return StateFillCosts
	case StateFillCosts:
		f.fill(ctx, run, moneyTables[1])
		return StateDone
	}
	return StateDone
}

// padDocument coerces raw into the proposal shape: all placeholders present
// as strings, every table at its exact key set and minimum length, and
// milestones cut to their fixed length. Unknown keys are dropped.
func padDocument(raw map[string]any) *Document {
	doc := &Document{Placeholders: make(map[string]string, len(PlaceholderFields))}

	placeholders, _ := raw["placeholders"].(map[string]any)
	for _, p := range PlaceholderFields {
		doc.Placeholders[p] = stringOf(placeholders[p])
	}

	tables, _ := raw["tables"].(map[string]any)
	for _, ts := range TableSpecs {
		rows := rowsOf(tables[ts.Name], ts.Keys)
		if ts.Exact && len(rows) > ts.MinRows {
			rows = rows[:ts.MinRows]
		}
		doc.Tables.Set(ts.Name, padRows(rows, ts.Keys, ts.MinRows))
	}

	if items, ok := raw["evidence"].([]any); ok {
		doc.Evidence = evidenceOf(items)
	} else if raw["evidence"] != nil {
		doc.Evidence = []EvidenceRef{}
	}
	return doc
}

func evidenceOf(items []any) []EvidenceRef {
	out := make([]EvidenceRef, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		ref := EvidenceRef{Field: stringOf(m["field"]), Chunks: []string{}}
		if ids, ok := m["chunks"].([]any); ok {
			for _, id := range ids {
				ref.Chunks = append(ref.Chunks, stringOf(id))
			}
		}
		out = append(out, ref)
	}
	return out
}

// needsFill reports whether a money cell is empty or the table is short.
func needsFill(rows []Row, key string, minRows int) bool {
	if len(rows) < minRows {
		return true
	}
	for _, r := range rows {
		if strings.TrimSpace(r[key]) == "" {
			return true
		}
	}
	return false
}

// fill completes one money table. Attempt 1 sends the padded rows; a reply
// still holding pending-estimate cells has them blanked and is sent as
// attempt 2, whose reply is accepted as is. A service error or a reply
// without the table leaves the rows as they were before FILL.
func (f *AutoFixer) fill(ctx context.Context, run *fixRun, mt moneyTable) {
	ts, _ := TableSpecFor(mt.name)
	original := run.doc.Tables.Get(mt.name)
	if !needsFill(original, mt.moneyKey, ts.MinRows) {
		return
	}
	logger := common.LoggerFrom(ctx, f.logger).With("table", mt.name)
	chunks := run.evidence.For(mt.name)

	rows := original
	var accepted []Row
	for attempt := 1; attempt <= MaxFillAttempts; attempt++ {
		logger.Info("autofix.fill.attempt", "attempt", attempt, "rows", len(rows))
		run.calls[mt.name]++
		reply, err := f.callFill(ctx, mt, ts, rows, chunks)
		if err != nil {
			logger.Warn("autofix.fill.failed", "attempt", attempt, "error", err)
			return
		}
		if reply == nil {
			logger.Warn("autofix.fill.no_table", "attempt", attempt)
			break
		}
		keepDescriptive(reply, rows, mt.kept)
		accepted = reply
		if attempt == MaxFillAttempts || !blankPending(reply, mt.moneyKey) {
			break
		}
		rows = reply
	}
	if accepted == nil {
		return
	}
	run.doc.Tables.Set(mt.name, normalizeMoney(padRows(accepted, ts.Keys, ts.MinRows), mt.moneyKey))
	logger.Info("autofix.fill.ok", "rows", len(accepted))
}

// callFill returns the table rows of the reply, or nil when the reply has no
// list under the table name.
func (f *AutoFixer) callFill(ctx context.Context, mt moneyTable, ts TableSpec, rows []Row, chunks []Chunk) ([]Row, error) {
	prompt, err := fillPrompt(mt, ts.Keys, rows, ts.MinRows, chunks)
	if err != nil {
		return nil, err
	}
	metrics.AutoFixCalls.WithLabelValues(mt.name).Inc()
	start := time.Now()
	obj, err := llm.CompleteJSON(ctx, f.completer, llm.Request{
		System:      generatorSystemPrompt,
		User:        prompt,
		Temperature: f.temperature,
		Purpose:     "autofix",
	})
	metrics.ObserveCompletion("autofix", start)
	if err != nil {
		return nil, err
	}
	if _, ok := obj[mt.name].([]any); !ok {
		return nil, nil
	}
	return rowsOf(obj[mt.name], ts.Keys), nil
}

// keepDescriptive restores descriptive cells the reply rewrote or dropped
// for rows that were already filled in.
func keepDescriptive(reply, sent []Row, kept []string) {
	for i := 0; i < len(reply) && i < len(sent); i++ {
		for _, k := range kept {
			if v := sent[i][k]; v != "" {
				reply[i][k] = v
			}
		}
	}
}

// blankPending empties money cells holding the pending-estimate marker and
// reports whether any did.
func blankPending(rows []Row, key string) bool {
	found := false
	for _, r := range rows {
		if strings.Contains(r[key], pendingEstimate) {
			r[key] = ""
			found = true
		}
	}
	return found
}
