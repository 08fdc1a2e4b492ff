package services

import (
	"fulfillment-wms/types"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddLine_MinimumQuantity(t *testing.T) {
	f := newFixture(t)
	key := f.draft(types.FamilySalesOrder)

	_, err := f.lines.AddLine(f.ctx, types.FamilySalesOrder, key, f.lineInput("P-100", 20, "B1"), testActor)
	bm := requireErrorType[*types.BelowMinimumQuantityError](t, err)
	assert.True(t, bm.Shortfall().Equal(qty(30)))
	assert.Equal(t, "Widget", bm.Item)

	first := f.addLine(types.FamilySalesOrder, key, "P-100", 60)

	// a small top-up passes because the order already holds 60
	merged, err := f.lines.AddLine(f.ctx, types.FamilySalesOrder, key, f.lineInput("P-100", 20, "B1"), testActor)
	require.NoError(t, err)
	assert.Equal(t, first.ID, merged.ID)
	assert.True(t, merged.Quantity.Equal(qty(80)))
	assert.True(t, merged.PendingQuantity.Equal(qty(80)))
	assert.True(t, merged.MrpTotal.Equal(qty(800)))
	assert.True(t, merged.NetAmount.Equal(qty(720)))

	lines, err := f.lines.ListLines(f.ctx, types.FamilySalesOrder, key)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "P-100", lines[0].ItemCode)
	assert.Equal(t, "PCS", lines[0].Uom)
	assert.Equal(t, "GOOD", lines[0].StockLocation)
}

func TestAddLine_DifferentBatchIsSeparateLine(t *testing.T) {
	f := newFixture(t)
	key := f.draft(types.FamilyPurchaseOrder)

	f.addLine(types.FamilyPurchaseOrder, key, "P-200", 5)
	_, err := f.lines.AddLine(f.ctx, types.FamilyPurchaseOrder, key, f.lineInput("P-200", 5, "B2"), testActor)
	require.NoError(t, err)

	lines, err := f.lines.ListLines(f.ctx, types.FamilyPurchaseOrder, key)
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestAddLine_Validation(t *testing.T) {
	f := newFixture(t)
	key := f.draft(types.FamilySalesOrder)

	in := f.lineInput("P-200", 5, "B1")
	in.Mrp = decimal.NullDecimal{}
	_, err := f.lines.AddLine(f.ctx, types.FamilySalesOrder, key, in, testActor)
	assert.Equal(t, "mrp", requireErrorType[*types.ValidationError](t, err).Field)

	in = f.lineInput("P-200", 5, "B1")
	in.Discount = decimal.NewNullDecimal(qty(-1))
	_, err = f.lines.AddLine(f.ctx, types.FamilySalesOrder, key, in, testActor)
	assert.Equal(t, "discount", requireErrorType[*types.ValidationError](t, err).Field)

	in = f.lineInput("P-200", 5, "B1")
	in.MaterialID = f.Catalog.Materials["M-100"].String()
	_, err = f.lines.AddLine(f.ctx, types.FamilySalesOrder, key, in, testActor)
	requireErrorType[*types.ValidationError](t, err)

	in = f.lineInput("P-200", 0, "B1")
	_, err = f.lines.AddLine(f.ctx, types.FamilySalesOrder, key, in, testActor)
	assert.Equal(t, "quantity", requireErrorType[*types.ValidationError](t, err).Field)

	in = f.lineInput("P-200", 5, "")
	_, err = f.lines.AddLine(f.ctx, types.FamilySalesOrder, key, in, testActor)
	assert.Equal(t, "batch_number", requireErrorType[*types.ValidationError](t, err).Field)

	_, err = f.lines.AddLine(f.ctx, types.FamilySalesOrder, key, f.lineInput("P-OFF", 5, "B1"), testActor)
	requireErrorType[*types.ValidationError](t, err)

	_, err = f.lines.AddLine(f.ctx, types.FamilySalesOrder, types.ByCode("SO-MISSING"), f.lineInput("P-200", 5, "B1"), testActor)
	requireErrorType[*types.NotFoundError](t, err)
}

func TestAddLine_Material(t *testing.T) {
	f := newFixture(t)
	key := f.draft(types.FamilyPurchaseOrder)

	in := f.lineInput("P-200", 12, "B1")
	in.ProductID = ""
	in.MaterialID = f.Catalog.Materials["M-100"].String()
	line, err := f.lines.AddLine(f.ctx, types.FamilyPurchaseOrder, key, in, testActor)
	require.NoError(t, err)
	assert.Equal(t, types.ItemMaterial, line.ItemKind)
	assert.Equal(t, "Carton", line.ItemName)
}

func TestLineEdits_OnlyInDraft(t *testing.T) {
	f := newFixture(t)
	key := f.draft(types.FamilySalesOrder)
	line := f.addLine(types.FamilySalesOrder, key, "P-200", 10)
	extra := f.addLine(types.FamilySalesOrder, key, "P-100", 50)

	updated, err := f.lines.UpdateLine(f.ctx, types.FamilySalesOrder, key, line.ID, f.lineInput("P-200", 15, "B3"), testActor)
	require.NoError(t, err)
	assert.True(t, updated.Quantity.Equal(qty(15)))
	assert.True(t, updated.PendingQuantity.Equal(qty(15)))
	assert.Equal(t, "B3", updated.BatchNumber)

	_, err = f.lines.UpdateLine(f.ctx, types.FamilySalesOrder, key, extra.ID, f.lineInput("P-100", 10, "B1"), testActor)
	requireErrorType[*types.BelowMinimumQuantityError](t, err)

	require.NoError(t, f.lines.DeleteLine(f.ctx, types.FamilySalesOrder, key, extra.ID, testActor))
	err = f.lines.DeleteLine(f.ctx, types.FamilySalesOrder, key, extra.ID, testActor)
	requireErrorType[*types.NotFoundError](t, err)

	f.open(types.FamilySalesOrder, key)

	_, err = f.lines.AddLine(f.ctx, types.FamilySalesOrder, key, f.lineInput("P-200", 1, "B1"), testActor)
	is := requireErrorType[*types.InvalidStateError](t, err)
	assert.Equal(t, "Open", is.Status)
	assert.Equal(t, []string{"Draft"}, is.Allowed)

	_, err = f.lines.UpdateLine(f.ctx, types.FamilySalesOrder, key, line.ID, f.lineInput("P-200", 1, "B1"), testActor)
	requireErrorType[*types.InvalidStateError](t, err)
	err = f.lines.DeleteLine(f.ctx, types.FamilySalesOrder, key, line.ID, testActor)
	requireErrorType[*types.InvalidStateError](t, err)

	pending, err := f.lines.ListPendingLines(f.ctx, types.FamilySalesOrder, key)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, line.ID, pending[0].ID)
}

func TestUpdateLine_RejectsDuplicateItemBatch(t *testing.T) {
	f := newFixture(t)
	key := f.draft(types.FamilySalesOrder)
	first := f.addLine(types.FamilySalesOrder, key, "P-200", 10)
	second, err := f.lines.AddLine(f.ctx, types.FamilySalesOrder, key, f.lineInput("P-200", 5, "B2"), testActor)
	require.NoError(t, err)

	_, err = f.lines.UpdateLine(f.ctx, types.FamilySalesOrder, key, second.ID, f.lineInput("P-200", 5, "B1"), testActor)
	assert.Equal(t, "batch_number", requireErrorType[*types.ValidationError](t, err).Field)

	// keeping its own item and batch is not a duplicate
	updated, err := f.lines.UpdateLine(f.ctx, types.FamilySalesOrder, key, first.ID, f.lineInput("P-200", 12, "B1"), testActor)
	require.NoError(t, err)
	assert.True(t, updated.Quantity.Equal(qty(12)))

	// a deleted line no longer blocks the batch
	require.NoError(t, f.lines.DeleteLine(f.ctx, types.FamilySalesOrder, key, first.ID, testActor))
	updated, err = f.lines.UpdateLine(f.ctx, types.FamilySalesOrder, key, second.ID, f.lineInput("P-200", 5, "B1"), testActor)
	require.NoError(t, err)
	assert.Equal(t, "B1", updated.BatchNumber)

	lines, err := f.lines.ListLines(f.ctx, types.FamilySalesOrder, key)
	require.NoError(t, err)
	require.Len(t, lines, 1)
}
