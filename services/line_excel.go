package services

import (
	"context"
	"fmt"
	"fulfillment-wms/types"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// LineImportColumns is the header row expected by ImportLines.
var LineImportColumns = []string{
	"product_id", "material_id", "warehouse_id", "uom", "stock_location",
	"batch_number", "quantity", "mrp", "discount",
}

var pendingExportColumns = []string{
	"Line ID", "Item Code", "Item Name", "Warehouse ID", "Uom", "Stock Location",
	"Batch Number", "Quantity", "Pending", "Processed",
}

type LineImportResult struct {
	TotalRows     int      `json:"total_rows"`
	SuccessCount  int      `json:"success_count"`
	SkippedCount  int      `json:"skipped_count"`
	ErrorCount    int      `json:"error_count"`
	ErrorMessages []string `json:"error_messages"`
}

// ImportLines adds one line per spreadsheet row. Rows fail independently; a
// bad row is reported and the rest are still added.
func (s *LineLedger) ImportLines(ctx context.Context, family types.OrderFamily, orderKey types.LookupKey, r io.Reader, actor int64) (*LineImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &types.ValidationError{Field: "file", Reason: "is not a readable xlsx workbook"}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &types.ValidationError{Field: "file", Reason: "has no sheets"}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, types.WrapUnexpected("import lines", err)
	}
	if len(rows) < 2 {
		return nil, &types.ValidationError{Field: "file", Reason: "must contain a header and at least one data row"}
	}

	result := &LineImportResult{TotalRows: len(rows) - 1, ErrorMessages: []string{}}
	for i, row := range rows[1:] {
		rowNum := i + 2
		if blankRow(row) {
			result.SkippedCount++
			continue
		}
		in, err := lineInputFromRow(row)
		if err == nil {
			_, err = s.AddLine(ctx, family, orderKey, in, actor)
		}
		if err != nil {
			if !types.IsDomainError(err) {
				return nil, err
			}
			result.ErrorCount++
			result.ErrorMessages = append(result.ErrorMessages, fmt.Sprintf("Row %d: %s", rowNum, err.Error()))
			continue
		}
		result.SuccessCount++
	}

	s.log.Info("lines imported",
		zap.String("order", orderKey.String()),
		zap.Int("success", result.SuccessCount),
		zap.Int("errors", result.ErrorCount))
	return result, nil
}

// ExportPendingLines writes the lines that still have pending quantity.
func (s *LineLedger) ExportPendingLines(ctx context.Context, family types.OrderFamily, orderKey types.LookupKey, w io.Writer) error {
	lines, err := s.ListPendingLines(ctx, family, orderKey)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Sheet1"
	for col, title := range pendingExportColumns {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, title)
	}
	for i, line := range lines {
		values := []interface{}{
			line.ID.String(),
			line.ItemCode,
			line.ItemName,
			line.WarehouseID.String(),
			line.Uom,
			line.StockLocation,
			line.BatchNumber,
			line.Quantity.InexactFloat64(),
			line.PendingQuantity.InexactFloat64(),
			line.Processed().InexactFloat64(),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	if err := f.Write(w); err != nil {
		return types.WrapUnexpected("export pending lines", err)
	}
	return nil
}

func lineInputFromRow(row []string) (LineInput, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	in := LineInput{
		ProductID:     cell(0),
		MaterialID:    cell(1),
		WarehouseID:   cell(2),
		Uom:           cell(3),
		StockLocation: cell(4),
		BatchNumber:   cell(5),
	}

	var err error
	if in.Quantity, err = parseCellDecimal("quantity", cell(6)); err != nil {
		return in, err
	}
	if raw := cell(7); raw != "" {
		d, err := parseCellDecimal("mrp", raw)
		if err != nil {
			return in, err
		}
		in.Mrp = decimal.NewNullDecimal(d)
	}
	if raw := cell(8); raw != "" {
		d, err := parseCellDecimal("discount", raw)
		if err != nil {
			return in, err
		}
		in.Discount = decimal.NewNullDecimal(d)
	}
	return in, nil
}

func parseCellDecimal(field, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return decimal.Zero, &types.ValidationError{Field: field, Reason: "is not a number"}
	}
	return d, nil
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
