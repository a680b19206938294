package service

import (
	"fmt"
	"strings"

	"agrimono/internal/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Section delimiters the assistant prompt refers to. The totals section is
// authoritative for aggregate questions; the detail section exists for
// ranking and lookup questions only.
const (
	totalsOpen  = "<PROVINCIAL_TOTALS_VERIFIED>"
	totalsClose = "</PROVINCIAL_TOTALS_VERIFIED>"
	detailOpen  = "<DÉTAILS_DES_COMMUNES_POUR_CLASSEMENT>"
	detailClose = "</DÉTAILS_DES_COMMUNES_POUR_CLASSEMENT>"
)

// DatasetContext is the pipeline output of one dataset, ready to be
// serialized into a context blob.
type DatasetContext struct {
	Label  string
	Rows   []models.NormalizedRow
	Totals models.DatasetTotals
}

// ContextBuilder serializes pipeline output into the size-bounded text blob
// fed to the language model.
type ContextBuilder struct {
	budget  int
	printer *message.Printer
}

// NewContextBuilder creates a builder with a character budget. Numbers are
// formatted with the French locale to match the published figures.
func NewContextBuilder(budget int) *ContextBuilder {
	return &ContextBuilder{
		budget:  budget,
		printer: message.NewPrinter(language.French),
	}
}

// Build produces the two-section blob. The totals section is always emitted
// in full; the detail section is truncated at record-block boundaries from
// the end until the whole blob fits the budget.
func (b *ContextBuilder) Build(sections []DatasetContext) string {
	var sb strings.Builder
	sb.WriteString(totalsOpen)
	sb.WriteString("\n")
	for _, sec := range sections {
		sb.WriteString(fmt.Sprintf("\n--- Volet: %s ---\n", sec.Label))
		for _, t := range SortedTotals(sec.Totals) {
			sb.WriteString(fmt.Sprintf("- %s : %s (TOTAL PROVINCE)\n", t.Label, b.formatNumber(t.Total)))
		}
	}
	sb.WriteString(totalsClose)

	blocks := b.detailBlocks(sections)
	header := "\n\n" + detailOpen + "\n"
	footer := "\n" + detailClose

	used := sb.Len() + len(header) + len(footer)
	var detail strings.Builder
	for _, block := range blocks {
		if used+detail.Len()+len(block) > b.budget {
			break
		}
		detail.WriteString(block)
	}

	sb.WriteString(header)
	sb.WriteString(detail.String())
	sb.WriteString(footer)
	return sb.String()
}

// detailBlocks renders one block per retained record. A block is the unit
// of truncation: it is kept or dropped whole, never cut mid-line.
func (b *ContextBuilder) detailBlocks(sections []DatasetContext) []string {
	var blocks []string
	for _, sec := range sections {
		for _, row := range sec.Rows {
			block := b.renderRow(row)
			if block != "" {
				blocks = append(blocks, block)
			}
		}
	}
	return blocks
}

func (b *ContextBuilder) renderRow(row models.NormalizedRow) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("\nCOMMUNE: %s\n", row.Name))

	hasData := false
	for _, f := range row.Fields {
		if !significantValue(f.Value) {
			continue
		}
		sb.WriteString(fmt.Sprintf("  - [%s] %s: %s\n", f.Source, f.Label, formatScalar(f.Value)))
		hasData = true
	}
	for _, child := range row.Children {
		sb.WriteString(fmt.Sprintf("  - Coopérative: %s | %s | %s adhérents\n",
			child.Name, child.Activity, formatScalar(child.Members)))
		hasData = true
	}

	if !hasData {
		return ""
	}
	return sb.String()
}

func (b *ContextBuilder) formatNumber(v float64) string {
	return b.printer.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}
