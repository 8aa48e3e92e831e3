// Package export writes batch run reports as XLSX workbooks.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/doccollate/internal/entity"
	"github.com/joseph-ayodele/doccollate/internal/store"
)

const (
	runsSheet   = "Runs"
	fieldsSheet = "Fields"
	maxCellText = 500
)

// Service is a tiny façade over the run repository that produces XLSX bytes.
type Service struct {
	runs   store.RunRepository
	logger *slog.Logger
}

func NewService(runs store.RunRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{runs: runs, logger: logger}
}

// ExportRunsXLSX reports the latest limit runs from the store.
func (s *Service) ExportRunsXLSX(ctx context.Context, limit int) ([]byte, error) {
	runs, err := s.runs.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	return WriteRunsXLSX(runs, s.logger)
}

// WriteRunsXLSX builds a workbook with one "Runs" row per document and one
// "Fields" row per extracted field of each successful run.
func WriteRunsXLSX(runs []entity.Run, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", runsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(fieldsSheet); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(runsSheet)
	f.SetActiveSheet(activeIndex)

	if err := writeRow(f, runsSheet, 1, []any{
		"File", "Target", "Status", "Source Type", "Fields", "Elapsed (s)", "Started At", "Error",
	}); err != nil {
		return nil, err
	}
	if err := writeRow(f, fieldsSheet, 1, []any{"File", "Target", "Field", "Value"}); err != nil {
		return nil, err
	}

	fieldRow := 2
	for i, r := range runs {
		errMsg := ""
		if r.ErrorMessage != nil {
			errMsg = truncate(*r.ErrorMessage, maxCellText)
		}
		if err := writeRow(f, runsSheet, i+2, []any{
			r.Path,
			r.Target,
			string(r.Status),
			r.SourceType,
			r.FieldCount,
			r.Elapsed().Round(time.Millisecond).Seconds(),
			r.StartedAt.Format("2006-01-02 15:04:05"),
			errMsg,
		}); err != nil {
			return nil, err
		}

		for _, kv := range resultFields(r.ResultJSON) {
			if err := writeRow(f, fieldsSheet, fieldRow, []any{r.Path, r.Target, kv[0], truncate(kv[1], maxCellText)}); err != nil {
				return nil, err
			}
			fieldRow++
		}
	}

	// Widen a few columns
	_ = f.SetColWidth(runsSheet, "A", "A", 48) // path
	_ = f.SetColWidth(runsSheet, "B", "D", 14)
	_ = f.SetColWidth(runsSheet, "G", "G", 20)
	_ = f.SetColWidth(runsSheet, "H", "H", 60) // error
	_ = f.SetColWidth(fieldsSheet, "A", "A", 48)
	_ = f.SetColWidth(fieldsSheet, "C", "C", 28)
	_ = f.SetColWidth(fieldsSheet, "D", "D", 80)
	_ = f.SetPanes(runsSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	logger.Info("export.xlsx.ok",
		"runs", len(runs),
		"field_rows", fieldRow-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// resultFields flattens a stored field map into sorted (name, text) pairs.
// Module lists render as newline-joined names.
func resultFields(raw json.RawMessage) [][2]string {
	if len(raw) == 0 {
		return nil
	}
	var data map[string]entity.FieldValue
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([][2]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, [2]string{k, data[k].String()})
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
