package services

import (
	"bytes"
	"fulfillment-wms/types"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf := &bytes.Buffer{}
	require.NoError(t, f.Write(buf))
	return buf
}

func TestImportLines(t *testing.T) {
	fx := newFixture(t)
	key := fx.draft(types.FamilyPurchaseOrder)
	wh := fx.Catalog.Warehouses["WH1"].String()
	p100 := fx.Catalog.Products["P-100"].String()
	p200 := fx.Catalog.Products["P-200"].String()

	header := make([]interface{}, 0, len(LineImportColumns))
	for _, c := range LineImportColumns {
		header = append(header, c)
	}
	buf := workbook(t, [][]interface{}{
		header,
		{p100, "", wh, "PCS", "GOOD", "B1", "60", "10", "0"},
		{p200, "", wh, "PCS", "GOOD", "B1", "1,000", "20", "2"},
		{p100, "", wh, "PCS", "GOOD", "B9", "10", "10", "0"},
		{p200, "", wh, "PCS", "GOOD", "B1", "abc", "20", "2"},
	})

	res, err := fx.lines.ImportLines(fx.ctx, types.FamilyPurchaseOrder, key, buf, testActor)
	require.NoError(t, err)
	assert.Equal(t, 4, res.TotalRows)
	assert.Equal(t, 3, res.SuccessCount)
	assert.Equal(t, 1, res.ErrorCount)
	require.Len(t, res.ErrorMessages, 1)
	assert.True(t, strings.HasPrefix(res.ErrorMessages[0], "Row 5:"), res.ErrorMessages[0])

	lines, err := fx.lines.ListLines(fx.ctx, types.FamilyPurchaseOrder, key)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.True(t, lines[1].Quantity.Equal(qty(1000)))

	out := &bytes.Buffer{}
	require.NoError(t, fx.lines.ExportPendingLines(fx.ctx, types.FamilyPurchaseOrder, key, out))

	exported, err := excelize.OpenReader(out)
	require.NoError(t, err)
	defer exported.Close()
	rows, err := exported.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, pendingExportColumns, rows[0])
	assert.Equal(t, lines[0].ID.String(), rows[1][0])
	assert.Equal(t, "P-100", rows[1][1])
	assert.Equal(t, "1000", rows[2][8])
}

func TestImportLines_BadFile(t *testing.T) {
	fx := newFixture(t)
	key := fx.draft(types.FamilyPurchaseOrder)

	_, err := fx.lines.ImportLines(fx.ctx, types.FamilyPurchaseOrder, key, strings.NewReader("not a workbook"), testActor)
	assert.Equal(t, "file", requireErrorType[*types.ValidationError](t, err).Field)

	header := []interface{}{"product_id"}
	_, err = fx.lines.ImportLines(fx.ctx, types.FamilyPurchaseOrder, key, workbook(t, [][]interface{}{header}), testActor)
	requireErrorType[*types.ValidationError](t, err)
}
