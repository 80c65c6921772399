package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/opencanteen/opencanteen/internal/report"
)

// ExcelGenerator renders liquidation reports as Excel workbooks.
type ExcelGenerator struct{}

// NewExcelGenerator constructs an ExcelGenerator.
func NewExcelGenerator() *ExcelGenerator {
	return &ExcelGenerator{}
}

// RenderLiquidationExcel produces a workbook with a summary sheet and an
// entries sheet.
func (g *ExcelGenerator) RenderLiquidationExcel(rep *report.Report, schoolName string) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Summary"
	file.SetSheetName("Sheet1", summarySheet)
	g.writeSummary(file, summarySheet, rep, schoolName)

	entriesSheet := "Entries"
	if _, err := file.NewSheet(entriesSheet); err != nil {
		return nil, err
	}
	g.writeEntries(file, entriesSheet, rep)

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *ExcelGenerator) writeSummary(file *excelize.File, sheet string, rep *report.Report, schoolName string) {
	set := func(cell string, value any) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "School")
	set("B1", schoolName)
	set("A2", "Category")
	set("B2", categoryLabel(rep.Category))
	set("A3", "Period")
	set("B3", periodLabel(rep.Year, rep.Month))
	set("A4", "Status")
	set("B4", string(rep.Status))
	set("A5", "Entries")
	set("B5", len(rep.Entries))
	set("A6", "Total")
	set("B6", rep.TotalAmount())
	set("A7", "Prepared by")
	set("B7", rep.PreparedBy)
	set("A8", "Noted by")
	set("B8", rep.NotedBy)
	if rep.DateApproved != nil {
		set("A9", "Date approved")
		set("B9", formatDate(*rep.DateApproved))
	}
	if rep.DateReceived != nil {
		set("A10", "Date received")
		set("B10", formatDate(*rep.DateReceived))
	}

	_ = file.SetColWidth(sheet, "A", "A", 18)
	_ = file.SetColWidth(sheet, "B", "B", 36)
}

func (g *ExcelGenerator) writeEntries(file *excelize.File, sheet string, rep *report.Report) {
	set := func(cell string, value any) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	if rep.Category.QuantityBased() {
		headers := []string{"Date", "Receipt", "Particulars", "Quantity", "Unit", "Unit Price", "Total"}
		for i, h := range headers {
			set(fmt.Sprintf("%c1", 'A'+i), h)
		}
		for i, e := range rep.Entries {
			row := i + 2
			set(fmt.Sprintf("A%d", row), e.Date.Format("2006-01-02"))
			set(fmt.Sprintf("B%d", row), e.Receipt)
			set(fmt.Sprintf("C%d", row), e.Particulars)
			set(fmt.Sprintf("D%d", row), e.Quantity)
			set(fmt.Sprintf("E%d", row), e.Unit)
			set(fmt.Sprintf("F%d", row), e.UnitPrice)
			set(fmt.Sprintf("G%d", row), e.Total(rep.Category))
		}
	} else {
		headers := []string{"Date", "Receipt", "Particulars", "Amount"}
		for i, h := range headers {
			set(fmt.Sprintf("%c1", 'A'+i), h)
		}
		for i, e := range rep.Entries {
			row := i + 2
			set(fmt.Sprintf("A%d", row), e.Date.Format("2006-01-02"))
			set(fmt.Sprintf("B%d", row), e.Receipt)
			set(fmt.Sprintf("C%d", row), e.Particulars)
			set(fmt.Sprintf("D%d", row), e.Amount)
		}
	}

	_ = file.SetColWidth(sheet, "C", "C", 40)
}
