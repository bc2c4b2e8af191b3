package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/legal-analyzer/constants"
	"github.com/joseph-ayodele/legal-analyzer/internal/common"
	"github.com/joseph-ayodele/legal-analyzer/internal/entity"
)

const (
	SheetDocuments = "Documents"
	SheetRisks     = "Risks"
	SheetCritical  = "Critical Clauses"

	summaryCellChars = 500
)

// Row pairs a document with its analysis, which is nil until completed.
type Row struct {
	Document entity.Document
	Analysis *entity.Analysis
}

// Source is the part of the document store an export reads from.
type Source interface {
	List(ctx context.Context, status constants.DocumentStatus, limit int) ([]entity.Document, error)
	GetAnalysis(ctx context.Context, id uuid.UUID) (*entity.Analysis, error)
}

// Service produces XLSX bytes for analysis exports.
type Service struct {
	src    Source
	logger *slog.Logger
}

func NewService(src Source, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{src: src, logger: logger}
}

// ExportXLSX builds a workbook over every document with the given status
// (all documents when status is empty).
func (s *Service) ExportXLSX(ctx context.Context, status constants.DocumentStatus) ([]byte, error) {
	start := time.Now()

	docs, err := s.src.List(ctx, status, 0)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	rows := make([]Row, 0, len(docs))
	for _, d := range docs {
		r := Row{Document: d}
		if d.Status == constants.StatusCompleted {
			a, err := s.src.GetAnalysis(ctx, d.ID)
			switch {
			case err == nil:
				r.Analysis = a
			case errors.Is(err, common.ErrNotFound):
				// deleted or reset between List and GetAnalysis
			default:
				return nil, fmt.Errorf("analysis %s: %w", d.ID, err)
			}
		}
		rows = append(rows, r)
	}

	buf, err := Workbook(rows)
	if err != nil {
		return nil, err
	}
	s.logger.Info("export.xlsx.ok",
		"status", string(status),
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf, nil
}

// Workbook renders rows into an XLSX file.
func Workbook(rows []Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with "Sheet1"; rename it instead of leaving it empty.
	if err := f.SetSheetName(f.GetSheetName(0), SheetDocuments); err != nil {
		return nil, err
	}
	for _, name := range []string{SheetRisks, SheetCritical} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	docHeaders := []string{"Title", "Type", "Document Type", "Status", "Risk Score", "Reading Level", "Reading Time (min)", "Summary", "Reason"}
	riskHeaders := []string{"Document", "Category", "Severity", "Pattern", "Context"}
	criticalHeaders := []string{"Document", "Clause Type", "Risk Level", "Concerns", "Content"}
	if err := writeRow(f, SheetDocuments, 1, toAny(docHeaders)); err != nil {
		return nil, err
	}
	if err := writeRow(f, SheetRisks, 1, toAny(riskHeaders)); err != nil {
		return nil, err
	}
	if err := writeRow(f, SheetCritical, 1, toAny(criticalHeaders)); err != nil {
		return nil, err
	}

	docRow, riskRow, criticalRow := 2, 2, 2
	for _, r := range rows {
		d := r.Document
		vals := []any{d.Title, d.FileType, "", string(d.Status), "", "", "", "", d.Reason}
		if a := r.Analysis; a != nil {
			vals[2] = a.DocumentType
			vals[4] = a.OverallRiskScore
			vals[5] = a.Statistics.ReadingLevel
			vals[6] = a.Statistics.ReadingMinutes()
			vals[7] = truncate(a.Summary, summaryCellChars)
			for _, rf := range a.RiskFactors {
				if err := writeRow(f, SheetRisks, riskRow, []any{d.Title, rf.Type, string(rf.Severity), rf.PatternMatched, rf.Context}); err != nil {
					return nil, err
				}
				riskRow++
			}
			for _, c := range a.CriticalClauses {
				vals := []any{d.Title, c.Type, c.RiskLevel, strings.Join(c.Concerns, "; "), truncate(c.Content, summaryCellChars)}
				if err := writeRow(f, SheetCritical, criticalRow, vals); err != nil {
					return nil, err
				}
				criticalRow++
			}
		}
		if err := writeRow(f, SheetDocuments, docRow, vals); err != nil {
			return nil, err
		}
		docRow++
	}

	_ = f.SetColWidth(SheetDocuments, "A", "A", 36) // title
	_ = f.SetColWidth(SheetDocuments, "B", "D", 14)
	_ = f.SetColWidth(SheetDocuments, "E", "G", 12)
	_ = f.SetColWidth(SheetDocuments, "H", "H", 80) // summary
	_ = f.SetColWidth(SheetDocuments, "I", "I", 40)
	_ = f.SetColWidth(SheetRisks, "A", "A", 36)
	_ = f.SetColWidth(SheetRisks, "B", "D", 18)
	_ = f.SetColWidth(SheetRisks, "E", "E", 80)
	_ = f.SetColWidth(SheetCritical, "A", "B", 28)
	_ = f.SetColWidth(SheetCritical, "D", "D", 48)
	_ = f.SetColWidth(SheetCritical, "E", "E", 80)

	idx, _ := f.GetSheetIndex(SheetDocuments)
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, vals []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &vals)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
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
