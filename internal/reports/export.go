package reports

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/shopspring/decimal"
)

const bookSheet = "Installment Book"

var bookHeaders = []string{"Contract", "Customer", "#", "Due Date", "Amount", "Paid", "Remaining", "Status"}

var amountPrinter = message.NewPrinter(language.English)

func formatAmount(d decimal.Decimal) string {
	f, _ := d.Float64()
	return amountPrinter.Sprintf("%v", number.Decimal(f, number.MaxFractionDigits(2), number.MinFractionDigits(2)))
}

func buildInstallmentBook(rows []BookRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(bookSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	for col, header := range bookHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(bookSheet, cell, header); err != nil {
			return nil, err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(bookSheet, "A1", "H1", headerStyle); err != nil {
		return nil, err
	}

	for i, row := range rows {
		remaining := row.Amount.Sub(row.PaidAmount)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		values := []interface{}{
			row.ContractNumber,
			row.CustomerName,
			row.Number,
			row.DueDate.Format("2006-01-02"),
			formatAmount(row.Amount),
			formatAmount(row.PaidAmount),
			formatAmount(remaining),
			row.Status,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(bookSheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	if err := f.SetColWidth(bookSheet, "A", "B", 24); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(bookSheet, "D", "G", 14); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
