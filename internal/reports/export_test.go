package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBuildInstallmentBook(t *testing.T) {
	rows := []BookRow{
		{
			ContractNumber: "CTR-2025-001",
			CustomerName:   "Mohamed Salah",
			Number:         1,
			DueDate:        time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC),
			Amount:         decimal.NewFromInt(1250),
			PaidAmount:     decimal.NewFromInt(1250),
			Status:         "paid",
		},
		{
			ContractNumber: "CTR-2025-001",
			CustomerName:   "Mohamed Salah",
			Number:         2,
			DueDate:        time.Date(2026, time.February, 15, 0, 0, 0, 0, time.UTC),
			Amount:         decimal.NewFromInt(1250),
			PaidAmount:     decimal.NewFromInt(500),
			Status:         "partial",
		},
	}

	payload, err := buildInstallmentBook(rows)
	require.NoError(t, err)
	require.NotEmpty(t, payload)

	f, err := excelize.OpenReader(bytes.NewReader(payload))
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue(bookSheet, "A1")
	require.NoError(t, err)
	require.Equal(t, "Contract", header)

	contract, err := f.GetCellValue(bookSheet, "A2")
	require.NoError(t, err)
	require.Equal(t, "CTR-2025-001", contract)

	amount, err := f.GetCellValue(bookSheet, "E2")
	require.NoError(t, err)
	require.Equal(t, "1,250.00", amount)

	remaining, err := f.GetCellValue(bookSheet, "G3")
	require.NoError(t, err)
	require.Equal(t, "750.00", remaining)

	status, err := f.GetCellValue(bookSheet, "H3")
	require.NoError(t, err)
	require.Equal(t, "partial", status)
}

func TestBuildInstallmentBookEmpty(t *testing.T) {
	payload, err := buildInstallmentBook(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(payload))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(bookSheet)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
