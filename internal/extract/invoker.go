// Package extract turns a document into field values, by rules and by the
// completion service.
package extract

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/doccollate/internal/common"
	"github.com/joseph-ayodele/doccollate/internal/entity"
	"github.com/joseph-ayodele/doccollate/internal/evidence"
	"github.com/joseph-ayodele/doccollate/internal/fields"
	"github.com/joseph-ayodele/doccollate/internal/llm"
	"github.com/joseph-ayodele/doccollate/internal/metrics"
)

// InvokerConfig tunes the extraction calls. Zero values take defaults.
type InvokerConfig struct {
	Temperature float32
	// SummaryChars is how much of the document head is summarized.
	SummaryChars int
	// FallbackMinModules is the fewest module evidences worth a batched call.
	FallbackMinModules int
}

func (c *InvokerConfig) setDefaults() {
	if c.Temperature == 0 {
		c.Temperature = 0.2
	}
	if c.SummaryChars <= 0 {
		c.SummaryChars = 6000
	}
	if c.FallbackMinModules <= 0 {
		c.FallbackMinModules = 3
	}
}

// Invoker sends per-field and module extraction requests.
type Invoker struct {
	completer llm.Completer
	assembler *evidence.Assembler
	cfg       InvokerConfig
	logger    *slog.Logger

	mu      sync.Mutex
	schemas map[string]*jsonschema.Schema
}

func NewInvoker(c llm.Completer, a *evidence.Assembler, cfg InvokerConfig, logger *slog.Logger) *Invoker {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.setDefaults()
	return &Invoker{
		completer: c,
		assembler: a,
		cfg:       cfg,
		logger:    logger,
		schemas:   map[string]*jsonschema.Schema{},
	}
}

// Summarize asks for a plain-text summary of the document head. Failures are
// logged and yield "".
func (i *Invoker) Summarize(ctx context.Context, text string) string {
	snippet := strings.TrimSpace(headRunes(text, i.cfg.SummaryChars))
	if snippet == "" {
		return ""
	}
	logger := common.LoggerFrom(ctx, i.logger)
	start := time.Now()
	summary, err := llm.CompleteText(ctx, i.completer, llm.Request{
		System:      summarySystemPrompt,
		User:        summaryUserPrompt(snippet),
		Temperature: i.cfg.Temperature,
		Purpose:     "summary",
	})
	metrics.ObserveCompletion("summary", start)
	if err != nil {
		logger.Warn("llm.summary.failed", "error", err)
		return ""
	}
	logger.Info("llm.summary.ok", "chars", len([]rune(summary)), "elapsed_ms", time.Since(start).Milliseconds())
	return summary
}

// ExtractFields sends one request per spec and keeps the values that pass
// validation. A failed field is logged, counted and left out.
func (i *Invoker) ExtractFields(ctx context.Context, specs []fields.Spec, summary string, doc Document) entity.FieldData {
	out := entity.FieldData{}
	for _, spec := range specs {
		if ctx.Err() != nil {
			break
		}
		v, ok := i.extractField(ctx, spec, summary, doc)
		if ok {
			out[spec.Name] = v
		}
	}
	return out
}

func (i *Invoker) extractField(ctx context.Context, spec fields.Spec, summary string, doc Document) (entity.FieldValue, bool) {
	logger := common.LoggerFrom(ctx, i.logger).With("field", spec.Name)
	start := time.Now()

	ranked := i.assembler.ForField(spec.Name, doc.SectionChunks, doc.FullChunks)
	evidenceText := i.assembler.WithExcerpt(ranked, doc.Text)
	if evidenceText == "" && summary == "" {
		logger.Warn("llm.extract.no_evidence")
		metrics.FieldExtractions.WithLabelValues("empty").Inc()
		return entity.FieldValue{}, false
	}

	obj, err := llm.CompleteJSON(ctx, i.completer, llm.Request{
		System:      fieldSystemPrompt(spec.Name, spec.Prompt),
		User:        fieldUserPrompt(evidenceText, summary),
		Temperature: i.cfg.Temperature,
		Purpose:     "field",
	})
	metrics.ObserveCompletion("field", start)
	if err != nil {
		logger.Error("llm.extract.service_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		metrics.FieldExtractions.WithLabelValues("service_error").Inc()
		return entity.FieldValue{}, false
	}

	obj, err = i.validateField(spec.Name, obj, logger)
	if err != nil {
		logger.Error("llm.extract.schema_error", "error", err)
		metrics.FieldExtractions.WithLabelValues("schema_error").Inc()
		return entity.FieldValue{}, false
	}

	v, err := entity.FromRaw(obj[spec.Name])
	if err != nil {
		logger.Error("llm.extract.value_error", "error", err)
		metrics.FieldExtractions.WithLabelValues("schema_error").Inc()
		return entity.FieldValue{}, false
	}
	logger.Info("llm.extract.ok", "kind", v.Kind.String(), "elapsed_ms", time.Since(start).Milliseconds())
	metrics.FieldExtractions.WithLabelValues("ok").Inc()
	return v, true
}

// validateField checks obj strictly first, then once more after the lenient
// sanitize pass.
func (i *Invoker) validateField(field string, obj map[string]any, logger *slog.Logger) (map[string]any, error) {
	schema, err := i.fieldSchema(field)
	if err != nil {
		return nil, err
	}
	if err := validateObject(schema, obj); err == nil {
		return obj, nil
	}
	cleaned, _ := llm.SanitizeFieldObject(obj, field, logger)
	if err := validateObject(schema, cleaned); err != nil {
		return nil, common.NewAppError(common.CodeSchema, "field reply does not match schema", err)
	}
	return cleaned, nil
}

func (i *Invoker) fieldSchema(field string) (*jsonschema.Schema, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if s, ok := i.schemas[field]; ok {
		return s, nil
	}
	s, err := llm.CompileSchema(llm.SingleFieldSchema(field))
	if err != nil {
		return nil, err
	}
	i.schemas[field] = s
	return s, nil
}

// validateObject round-trips obj through JSON so numbers reach the validator
// in their decoded form.
func validateObject(schema *jsonschema.Schema, obj map[string]any) error {
	b, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	return schema.Validate(v)
}

func headRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
