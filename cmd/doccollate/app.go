package main

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/doccollate/internal/common"
	"github.com/joseph-ayodele/doccollate/internal/evidence"
	"github.com/joseph-ayodele/doccollate/internal/extract"
	"github.com/joseph-ayodele/doccollate/internal/fields"
	"github.com/joseph-ayodele/doccollate/internal/llm/openai"
	"github.com/joseph-ayodele/doccollate/internal/metrics"
	"github.com/joseph-ayodele/doccollate/internal/normalize"
	"github.com/joseph-ayodele/doccollate/internal/pipeline"
	"github.com/joseph-ayodele/doccollate/internal/proposal"
	"github.com/joseph-ayodele/doccollate/internal/rank"
	"github.com/joseph-ayodele/doccollate/internal/reader"
	"github.com/joseph-ayodele/doccollate/internal/store"
)

// app holds the wired components shared by every command.
type app struct {
	cfg       *common.Config
	logger    *slog.Logger
	processor *pipeline.Processor
	generator *proposal.Generator
	runs      store.RunRepository
	db        *store.DB
}

// newApp loads configuration and wires reader, extraction, proposal and the
// optional run store. The metrics endpoint runs until ctx is done.
func newApp(ctx context.Context, withStore bool) (*app, error) {
	logger := slog.Default()
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("config.invalid", "error", err)
		return nil, err
	}
	if err := cfg.RequireLLM(); err != nil {
		logger.Error("config.invalid", "error", err)
		return nil, err
	}

	client := openai.NewClient(openai.Config{
		APIKey:            cfg.LLM.APIKey,
		BaseURL:           cfg.LLM.BaseURL,
		Model:             cfg.LLM.Model,
		Temperature:       cfg.LLM.Temperature,
		Timeout:           cfg.LLM.Timeout,
		RequestsPerMinute: cfg.LLM.RequestsPerMinute,
		Burst:             cfg.LLM.Burst,
		MaxRetries:        2,
	}, logger)
	logger.Info("llm.client.ready", "model", cfg.LLM.Model, "rpm", cfg.LLM.RequestsPerMinute)

	ranker, err := rank.New(cfg.Pipeline.Ranker, logger)
	if err != nil {
		return nil, err
	}
	catalog, err := fields.Load(cfg.Pipeline.FieldCatalog)
	if err != nil {
		return nil, err
	}
	resolver, err := fields.NewResolver(catalog)
	if err != nil {
		return nil, err
	}

	rd := reader.New(reader.Config{
		Pdftotext: cfg.Pipeline.PdfToText,
		Pandoc:    cfg.Pipeline.Pandoc,
		MaxChars:  cfg.Pipeline.MaxDocChars,
	}, logger)
	asm := evidence.NewAssembler(catalog, ranker, evidence.Config{}, logger)
	inv := extract.NewInvoker(client, asm, extract.InvokerConfig{Temperature: cfg.LLM.Temperature}, logger)
	forms := pipeline.NewFormStage(resolver, inv, extract.NewRuleExtractor(logger), cfg.Pipeline.Seed,
		normalize.Options{DefaultCategory: cfg.Pipeline.DefaultCategory}, logger)

	gen, err := proposal.NewGenerator(client, ranker, proposal.GeneratorConfig{Strict: proposalStrict}, logger)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, generator: gen}
	if withStore && cfg.Store.DSN != "" {
		db, err := store.Open(ctx, store.Config{DSN: cfg.Store.DSN}, logger)
		if err != nil {
			return nil, err
		}
		a.db = db
		a.runs = store.NewRunRepository(db, logger)
	}

	a.processor = pipeline.NewProcessor(logger, pipeline.NewTextStage(rd, a.runs, logger), forms, gen, a.runs)
	a.processor.Meta = pipeline.Metadata{AppName: appName, AppVersion: appVersion, ApplicantType: applicantType}

	go func() {
		if err := metrics.Serve(ctx, cfg.Metrics.Addr, logger); err != nil {
			logger.Error("metrics.serve.failed", "error", err)
		}
	}()
	return a, nil
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}
