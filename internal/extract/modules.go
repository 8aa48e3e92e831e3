package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/doccollate/internal/common"
	"github.com/joseph-ayodele/doccollate/internal/entity"
	"github.com/joseph-ayodele/doccollate/internal/evidence"
	"github.com/joseph-ayodele/doccollate/internal/llm"
	"github.com/joseph-ayodele/doccollate/internal/metrics"
	"github.com/joseph-ayodele/doccollate/internal/segment"
)

var (
	descSpaceRe     = regexp.MustCompile(`\s+`)
	descEnumRe      = regexp.MustCompile(`^[\d\.、]+`)
	descPunctuation = strings.NewReplacer("：", "，", ":", "，", "“", "", "”", "", `"`, "")
)

// ExtractModules builds the module list. With at least FallbackMinModules
// module evidences one batched request covers all of them; otherwise the
// summary drives a single request; with neither the result is empty.
func (i *Invoker) ExtractModules(ctx context.Context, sectionChunks []segment.Chunk, summary string) []entity.ModuleRecord {
	logger := common.LoggerFrom(ctx, i.logger)
	if len(sectionChunks) == 0 {
		logger.Info("llm.modules.skip", "reason", "no sections")
		return nil
	}

	evidences := i.assembler.Modules(sectionChunks)
	var req llm.Request
	switch {
	case len(evidences) >= i.cfg.FallbackMinModules:
		payload, err := json.Marshal(evidences)
		if err != nil {
			logger.Error("llm.modules.encode_error", "error", err)
			return nil
		}
		req = llm.Request{System: modulesFromEvidencePrompt, User: string(payload)}
	case strings.TrimSpace(summary) != "":
		payload, err := json.Marshal(map[string]string{"summary": summary})
		if err != nil {
			logger.Error("llm.modules.encode_error", "error", err)
			return nil
		}
		req = llm.Request{System: modulesFromSummaryPrompt, User: string(payload)}
		logger.Info("llm.modules.summary_fallback", "evidences", len(evidences))
	default:
		logger.Warn("llm.modules.skip", "reason", "no evidence and no summary", "evidences", len(evidences))
		return nil
	}
	req.Temperature = i.cfg.Temperature
	req.Purpose = "modules"

	start := time.Now()
	obj, err := llm.CompleteJSON(ctx, i.completer, req)
	metrics.ObserveCompletion("modules", start)
	if err != nil {
		logger.Error("llm.modules.service_error", "error", err)
		return nil
	}
	schema, err := i.moduleSchema()
	if err != nil {
		logger.Error("llm.modules.schema_error", "error", err)
		return nil
	}
	if err := validateObject(schema, obj); err != nil {
		logger.Error("llm.modules.schema_error", "error", err)
		return nil
	}

	items, _ := obj["items"].([]any)
	records := NormalizeModuleItems(items)
	logger.Info("llm.modules.ok", "modules", len(records), "evidences", len(evidences), "elapsed_ms", time.Since(start).Milliseconds())
	return records
}

const moduleSchemaKey = ":modules"

func (i *Invoker) moduleSchema() (*jsonschema.Schema, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if s, ok := i.schemas[moduleSchemaKey]; ok {
		return s, nil
	}
	s, err := llm.CompileSchema(llm.ModuleListSchema())
	if err != nil {
		return nil, err
	}
	i.schemas[moduleSchemaKey] = s
	return s, nil
}

// NormalizeModuleItems cleans module items from the completion service. Items
// without a title are dropped; every description starts with 可以 and ends
// with 。.
func NormalizeModuleItems(items []any) []entity.ModuleRecord {
	var out []entity.ModuleRecord
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		title := evidence.CleanModuleTitle(stringOf(m, "一级功能", "name"))
		if title == "" {
			continue
		}
		out = append(out, entity.ModuleRecord{Name: title, Desc: NormalizeModuleDesc(stringOf(m, "功能描述", "desc"))})
	}
	return out
}

// NormalizeModuleDesc strips whitespace, leading enumeration, colons and
// quotes, then frames the sentence as 可以…。
func NormalizeModuleDesc(desc string) string {
	desc = descSpaceRe.ReplaceAllString(desc, "")
	desc = descEnumRe.ReplaceAllString(desc, "")
	desc = descPunctuation.Replace(desc)
	if !strings.HasPrefix(desc, "可以") {
		desc = "可以" + desc
	}
	if !strings.HasSuffix(desc, "。") {
		desc += "。"
	}
	return desc
}

func stringOf(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return fmt.Sprint(v)
		}
	}
	return ""
}
