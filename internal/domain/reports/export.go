package reports

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"kitchenledger/internal/core/types"
)

const (
	sheetSummary  = "Summary"
	sheetDaily    = "Daily"
	sheetProducts = "Products"
)

// ExportProfitLossXLSX renders the report as a workbook with Summary, Daily
// and Products sheets.
func ExportProfitLossXLSX(r *ProfitLossReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetDaily); err != nil {
		return nil, fmt.Errorf("create daily sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetProducts); err != nil {
		return nil, fmt.Errorf("create products sheet: %w", err)
	}

	summary := [][]any{
		{"From", r.From},
		{"To", r.To},
		{"Timezone", r.Timezone},
		{"Orders", r.Totals.Orders},
		{"Revenue", money(r.Totals.Revenue)},
		{"Cost of goods", money(r.Totals.CostOfGoods)},
		{"Labor cost", money(r.Totals.LaborCost)},
		{"Net profit", money(r.Totals.NetProfit)},
		{"Margin %", money(r.Totals.MarginPercent)},
	}
	if err := writeRows(f, sheetSummary, summary); err != nil {
		return nil, err
	}

	daily := [][]any{{"Date", "Orders", "Revenue", "Cost", "Labor", "Net profit", "Margin %"}}
	for _, d := range r.Daily {
		daily = append(daily, []any{
			d.Date, d.Orders, money(d.Revenue), money(d.Cost), money(d.LaborCost),
			money(d.NetProfit), money(d.MarginPercent),
		})
	}
	if err := writeRows(f, sheetDaily, daily); err != nil {
		return nil, err
	}

	products := [][]any{{"Product", "Quantity", "Revenue", "Unit cost", "Total cost", "Profit", "Margin %"}}
	for _, p := range r.Products {
		products = append(products, []any{
			p.ProductName, p.QuantitySold, money(p.Revenue), money(p.UnitCost),
			money(p.TotalCost), money(p.Profit), money(p.MarginPercent),
		})
	}
	if err := writeRows(f, sheetProducts, products); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// money keeps two decimals; spreadsheets store numbers as float.
func money(m types.Money) float64 {
	return m.Round(2).InexactFloat64()
}
