package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"agrimono/internal/models"
	"agrimono/internal/registry"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
)

const reportMaxRows = 15

// ReportService renders the provincial monograph: a cover page, then one
// chapter per category with a data table per dataset.
type ReportService struct {
	registry *registry.Registry
	sheets   *SheetService
	logger   *zap.Logger
}

func NewReportService(reg *registry.Registry, sheets *SheetService, logger *zap.Logger) *ReportService {
	return &ReportService{registry: reg, sheets: sheets, logger: logger}
}

// Generate builds the full PDF. The data load is all-or-nothing: a report
// with silently missing chapters would misrepresent the province.
func (s *ReportService) Generate(ctx context.Context) ([]byte, error) {
	sets, err := s.sheets.LoadAll(ctx, s.registry.Datasets())
	if err != nil {
		return nil, fmt.Errorf("failed to load report data: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTitle(tr("Monographie Agricole Provinciale"), false)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	s.renderCover(pdf, tr)

	for _, category := range s.registry.Categories() {
		s.renderChapter(pdf, tr, category, sets)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	s.logger.Info("Report generated",
		zap.Int("pages", pdf.PageCount()),
		zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

func (s *ReportService) renderCover(pdf *fpdf.Fpdf, tr func(string) string) {
	pdf.AddPage()
	w, h := pdf.GetPageSize()

	pdf.SetFillColor(23, 78, 134)
	pdf.Rect(0, 0, w, h, "F")

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 28)
	pdf.SetY(h / 3)
	pdf.CellFormat(0, 14, tr("Monographie Agricole"), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 14, tr("Provinciale"), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 13)
	pdf.Ln(10)
	pdf.CellFormat(0, 8, tr("Statistiques consolidées par commune"), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "I", 10)
	pdf.SetY(h - 40)
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("Édité le %s", time.Now().Format("02/01/2006"))), "", 1, "C", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
}

func (s *ReportService) renderChapter(pdf *fpdf.Fpdf, tr func(string) string, category string, sets map[string]models.RecordSet) {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(23, 78, 134)
	pdf.CellFormat(0, 12, tr(fmt.Sprintf("Volet %s", category)), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(2)

	for _, ds := range s.registry.ByCategory(category) {
		s.renderTable(pdf, tr, ds, sets[ds.ID])
	}
}

func (s *ReportService) renderEmpty(pdf *fpdf.Fpdf, tr func(string) string, ds models.Dataset) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 9, tr(ds.Label), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 6, tr("Aucune donnée publiée pour cette feuille."), "", 1, "L", false, 0, "")
	pdf.Ln(4)
}

func (s *ReportService) renderTable(pdf *fpdf.Fpdf, tr func(string) string, ds models.Dataset, rs models.RecordSet) {
	columns := reportColumns(rs.Columns)
	if len(columns) == 0 || rs.Empty() {
		s.renderEmpty(pdf, tr, ds)
		return
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 9, tr(ds.Label), "", 1, "L", false, 0, "")

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colW := (pageW - left - right) / float64(len(columns))

	pdf.SetFont("Helvetica", "B", 7)
	pdf.SetFillColor(230, 236, 245)
	for _, col := range columns {
		pdf.CellFormat(colW, 6, tr(truncateCell(s.headerLabel(col), 24)), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 7)
	rows := rs.Records
	if len(rows) > reportMaxRows {
		rows = rows[:reportMaxRows]
	}
	for _, rec := range rows {
		for _, col := range columns {
			cell := ""
			if v, ok := rec[col]; ok && v != nil {
				cell = formatScalar(v)
			}
			pdf.CellFormat(colW, 5, tr(truncateCell(cell, 24)), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(rs.Records) > reportMaxRows {
		pdf.SetFont("Helvetica", "I", 7)
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("... %d lignes supplémentaires non affichées", len(rs.Records)-reportMaxRows)), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

// reportColumns drops technical id and code columns from the table.
func reportColumns(columns []string) []string {
	var out []string
	for _, col := range columns {
		key := normalizeKey(col)
		if key == "" || key == "id" || strings.HasPrefix(key, "code") {
			continue
		}
		out = append(out, col)
	}
	return out
}

// headerLabel resolves a raw header through the dictionary, falling back to
// the text after the last colon of compound technical headers.
func (s *ReportService) headerLabel(raw string) string {
	if label, ok := s.registry.HeaderLabel(normalizeKey(raw)); ok {
		return label
	}
	if idx := strings.LastIndex(raw, ":"); idx >= 0 && idx < len(raw)-1 {
		return strings.TrimSpace(raw[idx+1:])
	}
	return raw
}

func truncateCell(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
