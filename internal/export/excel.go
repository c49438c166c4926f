// Package export renders an invoice document as an Excel bookkeeping sheet.
package export

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"xrechnung-gateway/internal/invoice"
)

const sheetName = "Invoice"

// ExcelWriter renders invoice documents as .xlsx workbooks
type ExcelWriter struct {
	logger *zap.Logger
}

// NewExcelWriter creates a new Excel writer
func NewExcelWriter(logger *zap.Logger) *ExcelWriter {
	return &ExcelWriter{logger: logger}
}

// Write renders the document into a single-sheet workbook and returns the
// serialized file.
func (w *ExcelWriter) Write(doc invoice.Document) ([]byte, error) {
	w.logger.Info("Rendering invoice workbook",
		zap.String("invoice_id", doc.Header.ID),
		zap.Int("items", len(doc.Trade.Items)))

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	w.writeHeader(f, doc)
	row := w.writeItems(f, doc, 9)
	row = w.writeAdjustments(f, doc, row+1)
	w.writeSummation(f, doc.Trade.Settlement, row+1)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return bytesOf(buf), nil
}

func bytesOf(buf *bytes.Buffer) []byte {
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out
}

func (w *ExcelWriter) writeHeader(f *excelize.File, doc invoice.Document) {
	w.setCell(f, "A1", "Invoice number")
	w.setCell(f, "B1", doc.Header.ID)
	w.setCell(f, "A2", "Issue date")
	w.setCell(f, "B2", doc.Header.IssueDateTime)
	w.setCell(f, "A3", "Seller")
	w.setCell(f, "B3", doc.Trade.Agreement.Seller.Name)
	w.setCell(f, "C3", doc.Trade.Agreement.Seller.VatID)
	w.setCell(f, "A4", "Buyer")
	w.setCell(f, "B4", doc.Trade.Agreement.Buyer.Name)
	w.setCell(f, "C4", doc.Trade.Agreement.Buyer.VatID)
	w.setCell(f, "A5", "Currency")
	w.setCell(f, "B5", doc.Trade.Settlement.CurrencyCode)
	w.setCell(f, "A6", "Payment reference")
	w.setCell(f, "B6", doc.Trade.Settlement.PaymentReference)
}

// writeItems writes the line item table starting at startRow and returns the
// first free row below it.
func (w *ExcelWriter) writeItems(f *excelize.File, doc invoice.Document, startRow int) int {
	headers := []string{"Pos", "Product", "Quantity", "Unit", "Net price", "Net amount", "Tax rate %", "Tax amount", "Total"}
	for i, h := range headers {
		w.setCell(f, cell(i, startRow), h)
	}

	row := startRow + 1
	for _, item := range doc.Trade.Items {
		w.setCell(f, cell(0, row), item.LineID)
		w.setCell(f, cell(1, row), item.ProductName)
		w.setCell(f, cell(2, row), amount(item.Quantity))
		w.setCell(f, cell(3, row), item.QuantityUnit)
		w.setCell(f, cell(4, row), amount(item.AgreementNetPrice))
		w.setCell(f, cell(5, row), amount(item.DeliveryDetails))
		w.setCell(f, cell(6, row), amount(item.SettlementTax.Rate))
		w.setCell(f, cell(7, row), amount(item.SettlementTax.Amount))
		w.setCell(f, cell(8, row), amount(item.TotalAmount))
		row++
	}
	return row
}

func (w *ExcelWriter) writeAdjustments(f *excelize.File, doc invoice.Document, startRow int) int {
	row := startRow
	for _, a := range doc.Trade.Allowances {
		w.setCell(f, cell(0, row), "Allowance")
		w.setCell(f, cell(1, row), a.Reason)
		w.setCell(f, cell(5, row), amount(a.Amount.Neg()))
		w.setCell(f, cell(6, row), amount(a.TaxRate))
		row++
	}
	for _, c := range doc.Trade.Charges {
		w.setCell(f, cell(0, row), "Charge")
		w.setCell(f, cell(1, row), c.Reason)
		w.setCell(f, cell(5, row), amount(c.Amount))
		w.setCell(f, cell(6, row), amount(c.TaxRate))
		row++
	}
	return row
}

func (w *ExcelWriter) writeSummation(f *excelize.File, s invoice.Settlement, startRow int) {
	sum := s.MonetarySummation
	rows := []struct {
		label string
		value decimal.Decimal
	}{
		{"Items net total", sum.ItemsNetTotal},
		{"Allowances", sum.AllowancesNetTotal},
		{"Charges", sum.ChargesNetTotal},
		{"Net total", sum.NetTotal},
		{"Tax total", sum.TaxTotal},
		{"Grand total", sum.GrandTotal},
		{"Paid amount", sum.PaidAmount},
		{"Rounding amount", sum.RoundingAmount},
		{"Due amount", sum.DueAmount},
	}
	for i, r := range rows {
		w.setCell(f, cell(4, startRow+i), r.label)
		w.setCell(f, cell(5, startRow+i), amount(r.value))
	}
}

// setCell sets a cell value, logging instead of failing on bad coordinates
func (w *ExcelWriter) setCell(f *excelize.File, cell string, value interface{}) {
	if err := f.SetCellValue(sheetName, cell, value); err != nil {
		w.logger.Warn("Failed to set cell value",
			zap.String("cell", cell),
			zap.Error(err))
	}
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row)
	return name
}

// amount converts a decimal to the float64 excelize stores as a numeric cell.
func amount(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
