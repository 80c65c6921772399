package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/opencanteen/opencanteen/internal/report"
)

const pdfFont = "Helvetica"

// PDFGenerator renders liquidation reports as A4 PDF documents.
type PDFGenerator struct{}

// NewPDFGenerator constructs a PDFGenerator.
func NewPDFGenerator() *PDFGenerator {
	return &PDFGenerator{}
}

// RenderLiquidationPDF produces the printable liquidation document.
func (g *PDFGenerator) RenderLiquidationPDF(rep *report.Report, schoolName string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// The core fonts are cp1252; translate so em dashes and accented
	// names survive instead of rendering as mojibake.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont(pdfFont, "B", 14)
	pdf.CellFormat(0, 10, "Liquidation Report", "", 1, "C", false, 0, "")

	pdf.SetFont(pdfFont, "", 11)
	pdf.CellFormat(0, 6, tr(schoolName), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s — %s", categoryLabel(rep.Category), periodLabel(rep.Year, rep.Month))), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Status: %s", rep.Status), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	if rep.Category.QuantityBased() {
		g.quantityTable(pdf, tr, rep)
	} else {
		g.amountTable(pdf, tr, rep)
	}

	pdf.Ln(2)
	pdf.SetFont(pdfFont, "B", 11)
	pdf.CellFormat(0, 8, fmt.Sprintf("Total: %s", formatAmount(rep.TotalAmount())), "", 1, "R", false, 0, "")

	pdf.Ln(6)
	signatureBlock(pdf, tr, "Prepared by", rep.PreparedBy)
	noted := "Noted by"
	if rep.DateApproved != nil {
		noted = fmt.Sprintf("Noted by (approved %s)", formatDate(*rep.DateApproved))
	}
	signatureBlock(pdf, tr, noted, rep.NotedBy)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *PDFGenerator) quantityTable(pdf *gofpdf.Fpdf, tr func(string) string, rep *report.Report) {
	headers := []string{"Date", "Receipt", "Particulars", "Qty", "Unit", "Unit Price", "Total"}
	widths := []float64{22, 22, 56, 14, 16, 25, 25}
	drawRow(pdf, tr, headers, widths, true)
	for _, e := range rep.Entries {
		drawRow(pdf, tr, []string{
			e.Date.Format("2006-01-02"),
			safeValue(e.Receipt),
			e.Particulars,
			fmt.Sprintf("%g", e.Quantity),
			e.Unit,
			formatAmount(e.UnitPrice),
			formatAmount(e.Total(rep.Category)),
		}, widths, false)
	}
}

func (g *PDFGenerator) amountTable(pdf *gofpdf.Fpdf, tr func(string) string, rep *report.Report) {
	headers := []string{"Date", "Receipt", "Particulars", "Amount"}
	widths := []float64{25, 25, 100, 30}
	drawRow(pdf, tr, headers, widths, true)
	for _, e := range rep.Entries {
		drawRow(pdf, tr, []string{
			e.Date.Format("2006-01-02"),
			safeValue(e.Receipt),
			e.Particulars,
			formatAmount(e.Amount),
		}, widths, false)
	}
}

func drawRow(pdf *gofpdf.Fpdf, tr func(string) string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(pdfFont, style, 9)
	for i, col := range cols {
		align := "L"
		if i >= len(cols)-2 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, tr(col), "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func signatureBlock(pdf *gofpdf.Fpdf, tr func(string) string, label, name string) {
	pdf.SetFont(pdfFont, "", 11)
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("%s: ______________________ /%s/", label, safeValue(name))), "", 1, "L", false, 0, "")
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "—"
	}
	return value
}
