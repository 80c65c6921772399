package export

import (
	"bytes"
	"compress/zlib"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/opencanteen/opencanteen/internal/report"
)

func sampleReport() *report.Report {
	approved := time.Date(2025, time.July, 3, 10, 0, 0, 0, time.UTC)
	return &report.Report{
		SchoolID: 1,
		Year:     2025,
		Month:    time.June,
		Category: report.CategoryOperatingExpenses,
		Status:   report.StatusApproved,
		Entries: []report.Entry{
			{Date: time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC), Particulars: "Rice", Quantity: 10, Unit: "kg", UnitPrice: 55},
			{Date: time.Date(2025, time.June, 3, 0, 0, 0, 0, time.UTC), Particulars: "Cooking oil", Quantity: 4, Unit: "L", UnitPrice: 120},
		},
		PreparedBy:   "canteen-manager",
		NotedBy:      "principal",
		DateApproved: &approved,
	}
}

func TestRenderLiquidationPDF(t *testing.T) {
	out, err := NewPDFGenerator().RenderLiquidationPDF(sampleReport(), "Mabini Elementary")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

// pdfContentStreams inflates every Flate stream in the document so text
// drawn with the cp1252 core fonts can be asserted on.
func pdfContentStreams(t *testing.T, doc []byte) []byte {
	t.Helper()
	var decoded bytes.Buffer
	rest := doc
	for {
		start := bytes.Index(rest, []byte("stream\n"))
		if start < 0 {
			break
		}
		rest = rest[start+len("stream\n"):]
		end := bytes.Index(rest, []byte("endstream"))
		require.GreaterOrEqual(t, end, 0)
		if r, err := zlib.NewReader(bytes.NewReader(rest[:end])); err == nil {
			_, _ = io.Copy(&decoded, r)
			_ = r.Close()
		}
		rest = rest[end+len("endstream"):]
	}
	return decoded.Bytes()
}

func TestPDFTextSurvivesCoreFontEncoding(t *testing.T) {
	rep := sampleReport()
	rep.Entries[0].Receipt = "" // rendered as an em-dash placeholder
	out, err := NewPDFGenerator().RenderLiquidationPDF(rep, "Peña Elementary")
	require.NoError(t, err)

	content := pdfContentStreams(t, out)
	require.NotEmpty(t, content)
	// cp1252 single-byte forms, not the raw UTF-8 sequences.
	assert.Contains(t, string(content), "Pe\xf1a Elementary")
	assert.Contains(t, string(content), "\x97")
	assert.NotContains(t, string(content), "—")
	assert.NotContains(t, string(content), "Peña")
}

func TestRenderLiquidationExcel(t *testing.T) {
	out, err := NewExcelGenerator().RenderLiquidationExcel(sampleReport(), "Mabini Elementary")
	require.NoError(t, err)

	file, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer file.Close()

	school, err := file.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "Mabini Elementary", school)

	category, err := file.GetCellValue("Summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Operating Expenses", category)

	particulars, err := file.GetCellValue("Entries", "C2")
	require.NoError(t, err)
	assert.Equal(t, "Rice", particulars)
}

func TestCategoryLabel(t *testing.T) {
	assert.Equal(t, "Operating Expenses", categoryLabel(report.CategoryOperatingExpenses))
	assert.Equal(t, "HE Fund", categoryLabel(report.CategoryHEFund))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "12,345.50", formatAmount(12345.5))
}
