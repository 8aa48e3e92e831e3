package proposal

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/joseph-ayodele/doccollate/internal/common"
	"github.com/joseph-ayodele/doccollate/internal/llm"
	"github.com/joseph-ayodele/doccollate/internal/metrics"
	"github.com/joseph-ayodele/doccollate/internal/normalize"
	"github.com/joseph-ayodele/doccollate/internal/rank"
)

// GeneratorConfig tunes proposal generation. Zero values take defaults.
type GeneratorConfig struct {
	ChunkSize    int
	ChunkOverlap int
	DefaultTopK  int
	Temperature  float32
	// Strict fails on the first validation instead of auto-fixing.
	Strict            bool
	CompletionDaysAgo int
	DevMonthsAgo      int
	Now               func() time.Time
}

func (c *GeneratorConfig) setDefaults() {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.ChunkOverlap <= 0 {
		c.ChunkOverlap = DefaultChunkOverlap
	}
	if c.DefaultTopK <= 0 {
		c.DefaultTopK = 8
	}
	if c.Temperature == 0 {
		c.Temperature = 0.2
	}
	if c.CompletionDaysAgo <= 0 {
		c.CompletionDaysAgo = 14
	}
	if c.DevMonthsAgo <= 0 {
		c.DevMonthsAgo = 5
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Result is a generated proposal and what it was built from.
type Result struct {
	Inputs       *Inputs
	Document     *Document
	Evidence     EvidenceSet
	Fixed        bool
	Placeholders map[string]string
}

// Generator writes a proposal from a specification document in one
// completion call, then validates and repairs it.
type Generator struct {
	completer llm.Completer
	retriever *Retriever
	validator *Validator
	fixer     *AutoFixer
	cfg       GeneratorConfig
	logger    *slog.Logger
}

func NewGenerator(c llm.Completer, ranker rank.Ranker, cfg GeneratorConfig, logger *slog.Logger) (*Generator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.setDefaults()
	v, err := NewValidator(logger)
	if err != nil {
		return nil, err
	}
	return &Generator{
		completer: c,
		retriever: NewRetriever(ranker, cfg.DefaultTopK, logger),
		validator: v,
		fixer:     NewAutoFixer(c, logger),
		cfg:       cfg,
		logger:    logger,
	}, nil
}

// Generate builds a proposal for text. Missing schedule dates default to
// the assessment dates. A proposal that still fails validation after
// auto-fix, or at all in strict mode, is a *ViolationError.
func (g *Generator) Generate(ctx context.Context, text string, in *Inputs) (*Result, error) {
	ctx, _ = common.EnsureRequestID(ctx)
	logger := common.LoggerFrom(ctx, g.logger)
	start := time.Now()

	if in == nil {
		return nil, common.NewAppError("INVALID_INPUT", "proposal inputs are required", common.ErrInvalidInput)
	}
	g.applySchedule(in)

	chunks, err := ChunkText(text, g.cfg.ChunkSize, g.cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, common.NewAppError(common.CodeRetrieval, "document has no text", common.ErrRetrievalEmpty)
	}
	ev := g.retriever.RetrieveAll(chunks)
	logger.Info("proposal.retrieve.done", "chunks", len(chunks), "fields", len(ev))

	prompt, err := buildPrompt(in, ev)
	if err != nil {
		return nil, err
	}
	callStart := time.Now()
	obj, err := llm.CompleteJSON(ctx, g.completer, llm.Request{
		System:      generatorSystemPrompt,
		User:        prompt,
		Temperature: g.cfg.Temperature,
		Purpose:     "proposal",
	})
	metrics.ObserveCompletion("proposal", callStart)
	if err != nil {
		logger.Error("proposal.generate.failed", "error", err)
		return nil, common.WrapError(err, "generate proposal")
	}

	res := &Result{Inputs: in, Evidence: ev}
	errs := g.validate(obj, "initial")
	switch {
	case len(errs) == 0:
		res.Document = padDocument(obj)
	case g.cfg.Strict:
		logger.Warn("proposal.validate.failed", "stage", "initial", "errors", len(errs))
		return nil, &ViolationError{Stage: "initial", Errors: errs}
	default:
		logger.Info("proposal.autofix.start", "errors", len(errs))
		res.Document = g.fixer.Fix(ctx, obj, ev)
		res.Fixed = true
		if errs = g.validator.ValidateDocument(res.Document); len(errs) > 0 {
			metrics.ProposalValidations.WithLabelValues("final", "invalid").Inc()
			logger.Warn("proposal.validate.failed", "stage", "final", "errors", len(errs))
			return nil, &ViolationError{Stage: "final", Errors: errs}
		}
		metrics.ProposalValidations.WithLabelValues("final", "valid").Inc()
	}

	res.Placeholders = PlaceholderMap(in, res.Document)
	logger.Info("proposal.generate.ok", "fixed", res.Fixed, "elapsed_ms", time.Since(start).Milliseconds())
	return res, nil
}

func (g *Generator) validate(obj map[string]any, stage string) []string {
	b, err := json.Marshal(obj)
	if err != nil {
		return []string{"/: " + err.Error()}
	}
	errs := g.validator.Validate(b)
	result := "valid"
	if len(errs) > 0 {
		result = "invalid"
	}
	metrics.ProposalValidations.WithLabelValues(stage, result).Inc()
	return errs
}

func (g *Generator) applySchedule(in *Inputs) {
	if in.Schedule.StartDate != "" && in.Schedule.EndDate != "" {
		return
	}
	completion, dev := normalize.AssessDates(g.cfg.Now(), g.cfg.CompletionDaysAgo, g.cfg.DevMonthsAgo)
	if in.Schedule.StartDate == "" {
		in.Schedule.StartDate = normalize.FormatDate(dev)
	}
	if in.Schedule.EndDate == "" {
		in.Schedule.EndDate = normalize.FormatDate(completion)
	}
}

var cjkRe = regexp.MustCompile(`[\x{4e00}-\x{9fff}]`)

const translatorSystemPrompt = "You are a precise translator."

// EnglishName translates a project name for the document title. A failed
// call or a reply that still contains CJK yields "".
func (g *Generator) EnglishName(ctx context.Context, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	out, err := llm.CompleteText(ctx, g.completer, llm.Request{
		System: translatorSystemPrompt,
		User: "Translate the following project name into clear, professional English. " +
			"Return ONLY the English name with no quotes or extra text:\n" + name,
		Temperature: g.cfg.Temperature,
		Purpose:     "translate",
	})
	if err != nil {
		common.LoggerFrom(ctx, g.logger).Warn("proposal.translate.failed", "error", err)
		return ""
	}
	out = strings.Trim(strings.TrimSpace(out), `"'`)
	if cjkRe.MatchString(out) {
		return ""
	}
	return out
}

// InputsFor builds default inputs for a company and project, titling the
// document with the translated project name.
func (g *Generator) InputsFor(ctx context.Context, companyName, projectName string) *Inputs {
	return NewInputs(companyName, projectName, g.EnglishName(ctx, projectName))
}
