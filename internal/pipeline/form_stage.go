package pipeline

import (
	"context"
	"log/slog"
	"math/rand"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joseph-ayodele/doccollate/internal/common"
	"github.com/joseph-ayodele/doccollate/internal/entity"
	"github.com/joseph-ayodele/doccollate/internal/extract"
	"github.com/joseph-ayodele/doccollate/internal/fields"
	"github.com/joseph-ayodele/doccollate/internal/normalize"
)

const unversioned = "未标注版本"

// Metadata is supplied by the operator and overrides extracted values.
type Metadata struct {
	AppName       string
	AppVersion    string
	ApplicantType string // "holder" or "agent"
}

// FormStage turns document text into the field data of one form target.
type FormStage struct {
	Resolver *fields.Resolver
	Invoker  *extract.Invoker
	Rules    *extract.RuleExtractor
	Options  normalize.Options
	Logger   *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewFormStage seeds one generator for the whole process; each document gets
// its own source drawn from it.
func NewFormStage(resolver *fields.Resolver, inv *extract.Invoker, rules *extract.RuleExtractor, seed int64, opts normalize.Options, logger *slog.Logger) *FormStage {
	if logger == nil {
		logger = slog.Default()
	}
	if rules == nil {
		rules = extract.NewRuleExtractor(logger)
	}
	opts.Logger = logger
	return &FormStage{
		Resolver: resolver,
		Invoker:  inv,
		Rules:    rules,
		Options:  opts,
		Logger:   logger,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

func (s *FormStage) documentRNG() *rand.Rand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return rand.New(rand.NewSource(s.rng.Int63()))
}

// Run resolves the required fields of target, seeds them from the rule
// extractor, asks the completion service for the rest and normalizes the
// result. Single field failures only leave that field out.
func (s *FormStage) Run(ctx context.Context, path, text, target string, meta Metadata) (entity.FieldData, error) {
	logger := common.LoggerFrom(ctx, s.Logger).With("target", target)
	start := time.Now()

	required, err := s.Resolver.Required(target)
	if err != nil {
		return nil, err
	}
	if len(required) == 0 {
		return entity.FieldData{}, nil
	}

	data := entity.FieldData{}
	for k, v := range s.Rules.Extract(text) {
		if required.Has(k) && !v.IsEmpty() {
			data[k] = v
		}
	}
	logger.Debug("pipeline.form.rules", "fields", len(data))

	var pending []fields.Spec
	for _, spec := range s.Resolver.Catalog().PromptSpecs(required) {
		if data.Empty(spec.Name) {
			pending = append(pending, spec)
		}
	}
	needsModules := required.Has(fields.FuncList) && data.Empty(fields.FuncList)

	if len(pending) > 0 || needsModules {
		doc := extract.NewDocument(text)
		summary := s.Invoker.Summarize(ctx, text)
		if needsModules {
			if mods := s.Invoker.ExtractModules(ctx, doc.SectionChunks, summary); len(mods) > 0 {
				data[fields.FuncList] = entity.ListField(mods)
			}
		}
		if len(pending) > 0 {
			data.Merge(s.Invoker.ExtractFields(ctx, pending, summary, doc))
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := normalize.New(s.documentRNG(), s.Options).Apply(data, required)
	applyMetadata(out, meta, path, target)

	logger.Info("pipeline.form.ok",
		"required", len(required),
		"prompted", len(pending),
		"fields", len(out),
		"elapsed_ms", time.Since(start).Milliseconds())
	return out, nil
}

// applyMetadata lets operator values win, then falls back to the file name
// and an "unversioned" marker.
func applyMetadata(d entity.FieldData, meta Metadata, path, target string) {
	if meta.AppName != "" {
		d.SetText("app__name", meta.AppName)
	}
	if meta.AppVersion != "" {
		d.SetText("app__version", meta.AppVersion)
	}
	if meta.ApplicantType != "" && target == fields.TargetCopyright {
		d.SetText("applicant__type", strings.ToLower(meta.ApplicantType))
	}

	if d.Empty("app__name") {
		d.SetText("app__name", strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	}
	if d.Empty("app__version") {
		d.SetText("app__version", unversioned)
	}
	if d.Empty("app__short_name") {
		d.SetText("app__short_name", d.Text("app__name"))
	}
}
