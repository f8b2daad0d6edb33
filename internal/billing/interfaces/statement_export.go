package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	billing "pivtrack/internal/billing/application"
)

// BuildBillingPDF renders a monthly billing statement as PDF.
func BuildBillingPDF(year int, month time.Month, records []billing.BillingRecord) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "PIV Billing Statement")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Month: %04d-%02d", year, month))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().UTC().Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(45, 6, "Panel", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Billed Days", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Month Days", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Amount", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)

	var total float64
	currency := ""
	for _, record := range records {
		pdf.CellFormat(45, 6, record.PanelID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%d", record.BilledDays), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%d", record.TotalDaysInMonth), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", record.Amount), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
		total += record.Amount
		currency = record.Currency
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Total (%s): %.2f", currency, total))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildBillingXLSX renders a monthly billing statement as XLSX.
func BuildBillingXLSX(year int, month time.Month, records []billing.BillingRecord) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "billing"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", "PIV Billing Statement")
	_ = f.SetCellValue(sheet, "A2", "Month")
	_ = f.SetCellValue(sheet, "B2", fmt.Sprintf("%04d-%02d", year, month))

	headers := []string{"Panel", "Billed Days", "Month Days", "Amount", "Currency"}
	for i, title := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 4)
		_ = f.SetCellValue(sheet, cell, title)
	}

	var total float64
	for i, record := range records {
		row := i + 5
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), record.PanelID)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), record.BilledDays)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), record.TotalDaysInMonth)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), record.Amount)
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), record.Currency)
		total += record.Amount
	}
	totalRow := len(records) + 6
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", totalRow), "Total")
	_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", totalRow), total)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
