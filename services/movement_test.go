package services

import (
	"fulfillment-wms/models"
	"fulfillment-wms/testutil"
	"fulfillment-wms/types"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) pick(family types.OrderFamily, key types.LookupKey, line *LineView, bin string, quantity int64) (*MovementResult, error) {
	return f.movements.ExecuteMovement(f.ctx, family, key, MovementInput{
		LineID:   line.ID.String(),
		BinID:    f.binID(bin),
		Quantity: qty(quantity),
	}, testActor)
}

func TestPurchaseOrderPickToCompletion(t *testing.T) {
	f := newFixture(t)
	f.PlaceStock(testutil.Stock{Bin: "A-01", Product: "P-100", Filled: qty(60), Max: qty(200)})
	f.PlaceStock(testutil.Stock{Bin: "A-02", Product: "P-100", Filled: qty(40), Max: qty(200)})

	key := f.draft(types.FamilyPurchaseOrder)
	line := f.addLine(types.FamilyPurchaseOrder, key, "P-100", 100)

	// nothing can be picked before the order is opened
	_, err := f.pick(types.FamilyPurchaseOrder, key, line, "A-01", 60)
	requireErrorType[*types.InvalidStateError](t, err)

	f.open(types.FamilyPurchaseOrder, key)

	suggestion, err := f.movements.SuggestBin(f.ctx, types.FamilyPurchaseOrder, key, PlanInput{LineID: line.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, "A-01", suggestion.BinCode)

	res, err := f.pick(types.FamilyPurchaseOrder, key, line, "A-01", 60)
	require.NoError(t, err)
	assert.Equal(t, types.ActionPickPurchase, res.Log.Action)
	assert.True(t, res.Line.PendingQuantity.Equal(qty(40)))
	assert.True(t, res.Line.PickedQuantity.Equal(qty(60)))
	assert.False(t, res.Occupancy.IsActive)
	assert.Equal(t, types.OrderPicklistStarted, res.Status.OrderStatus)
	assert.True(t, res.Status.Changed)
	assert.False(t, res.Status.PhaseCompleted)

	// A-01 is drained, only A-02 is left to pick from
	_, err = f.pick(types.FamilyPurchaseOrder, key, line, "A-01", 40)
	requireErrorType[*types.InsufficientQuantityError](t, err)
	_, err = f.pick(types.FamilyPurchaseOrder, key, line, "A-02", 41)
	requireErrorType[*types.InsufficientQuantityError](t, err)

	res, err = f.pick(types.FamilyPurchaseOrder, key, line, "A-02", 40)
	require.NoError(t, err)
	assert.True(t, res.Line.PendingQuantity.IsZero())
	assert.Equal(t, types.OrderPicklistCompleted, res.Status.OrderStatus)
	assert.Equal(t, "Picklist Completed", res.Status.OrderStatusDisplay)
	assert.True(t, res.Status.PhaseCompleted)

	events := f.notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, key.Code, events[0].Ref)
	assert.Equal(t, "Picklist Completed", events[0].Status)

	// the line is done, nothing more can be picked
	_, err = f.pick(types.FamilyPurchaseOrder, key, line, "A-02", 1)
	requireErrorType[*types.InvalidStateError](t, err)

	var stored models.OrderLine
	require.NoError(t, f.DB.First(&stored, "id = ?", line.ID).Error)
	assert.True(t, stored.PendingQuantity.Add(stored.PickedQuantity).Equal(stored.Quantity))

	logs, err := f.movements.ListMovements(f.ctx, types.FamilyPurchaseOrder, key)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	total := decimal.Zero
	for _, l := range logs {
		total = total.Add(l.Quantity)
		assert.True(t, l.LinePendingBefore.Sub(l.Quantity).Equal(l.LinePendingAfter))
		assert.True(t, l.FilledBefore.Sub(l.Quantity).Equal(l.FilledAfter))
	}
	assert.True(t, total.Equal(stored.PickedQuantity))

	var rows []models.BinProduct
	require.NoError(t, f.DB.Find(&rows).Error)
	for _, r := range rows {
		assert.True(t, r.FilledQuantity.Add(r.AvailableQuantity).Equal(r.MaxQuantity))
	}

	status, err := f.movements.RecomputeStatus(f.ctx, types.FamilyPurchaseOrder, key, testActor)
	require.NoError(t, err)
	assert.False(t, status.Changed)
	assert.Equal(t, types.OrderPicklistCompleted, status.OrderStatus)

	assert.Equal(t, 2.0, promtest.ToFloat64(f.metrics.movements.WithLabelValues(string(types.ActionPickPurchase))))
	assert.Equal(t, 100.0, promtest.ToFloat64(f.metrics.moved.WithLabelValues(string(types.ActionPickPurchase))))
}

func TestPick_Guards(t *testing.T) {
	f := newFixture(t)
	f.PlaceStock(testutil.Stock{Bin: "A-01", Product: "P-200", Filled: qty(50)})
	f.PlaceStock(testutil.Stock{Bin: "A-02", Product: "P-200", Batch: "B2", Filled: qty(50)})

	key := f.draft(types.FamilySalesOrder)
	line := f.addLine(types.FamilySalesOrder, key, "P-200", 20)
	f.open(types.FamilySalesOrder, key)

	_, err := f.pick(types.FamilySalesOrder, key, line, "A-01", 21)
	iq := requireErrorType[*types.InsufficientQuantityError](t, err)
	assert.True(t, iq.Available.Equal(qty(20)))

	_, err = f.pick(types.FamilySalesOrder, key, line, "A-02", 5)
	bc := requireErrorType[*types.BinConflictError](t, err)
	assert.Equal(t, "batch_number", bc.Field)

	in := MovementInput{LineID: line.ID.String(), BinID: f.binID("A-02"), Quantity: qty(5), BatchNumber: "B2"}
	_, err = f.movements.ExecuteMovement(f.ctx, types.FamilySalesOrder, key, in, testActor)
	assert.Equal(t, "batch_change_reason", requireErrorType[*types.ValidationError](t, err).Field)

	in.BatchChangeReason = "B1 is damaged"
	res, err := f.movements.ExecuteMovement(f.ctx, types.FamilySalesOrder, key, in, testActor)
	require.NoError(t, err)
	assert.Equal(t, "B2", res.Log.BatchNumber)
	assert.Equal(t, "B1 is damaged", res.Log.BatchChangeReason)
	assert.Equal(t, types.ActionPickSales, res.Log.Action)

	_, err = f.movements.ExecuteMovement(f.ctx, types.FamilySalesOrder, key, MovementInput{
		LineID: line.ID.String(), BinID: f.binID("A-01"), Quantity: qty(1), PutAwayID: "123",
	}, testActor)
	assert.Equal(t, "putaway_id", requireErrorType[*types.ValidationError](t, err).Field)

	_, err = f.movements.ExecuteMovement(f.ctx, types.FamilySalesOrder, key, MovementInput{
		BinID: f.binID("A-01"), Quantity: qty(1),
	}, testActor)
	assert.Equal(t, "line_id", requireErrorType[*types.ValidationError](t, err).Field)

	// a failed movement leaves the bin untouched
	view, err := f.movements.BinStock(f.ctx, "a-01")
	require.NoError(t, err)
	require.NotNil(t, view.Occupancy)
	assert.True(t, view.Occupancy.FilledQuantity.Equal(qty(50)))
	assert.Empty(t, view.Logs)

	assert.Equal(t, 1.0, promtest.ToFloat64(f.metrics.failures.WithLabelValues("execute movement", "bin_conflict")))
}

func TestRecomputeStatus_NothingMovedKeepsStatus(t *testing.T) {
	f := newFixture(t)
	key := f.draft(types.FamilySalesOrder)
	f.addLine(types.FamilySalesOrder, key, "P-200", 5)

	status, err := f.movements.RecomputeStatus(f.ctx, types.FamilySalesOrder, key, testActor)
	require.NoError(t, err)
	assert.Equal(t, types.OrderNew, status.OrderStatus)
	assert.False(t, status.Changed)

	f.open(types.FamilySalesOrder, key)
	status, err = f.movements.RecomputeStatus(f.ctx, types.FamilySalesOrder, key, testActor)
	require.NoError(t, err)
	assert.Equal(t, types.OrderOpen, status.OrderStatus)
	assert.False(t, status.Changed)
}

func TestStockIntake(t *testing.T) {
	f := newFixture(t)
	in := StockIntakeInput{
		ProductID:       f.Catalog.Products["P-100"].String(),
		WarehouseID:     f.Catalog.Warehouses["WH1"].String(),
		Uom:             "pcs",
		StockLocation:   "good",
		BatchNumber:     "B1",
		ManufactureDate: "2026-01-10",
		Mrp:             qty(10),
		Quantity:        qty(100),
	}

	candidates, err := f.movements.SuggestIntakeBins(f.ctx, in)
	require.NoError(t, err)
	require.NotEmpty(t, candidates)
	assert.Equal(t, "A-01", candidates[0].BinCode)

	_, err = f.movements.StockIntake(f.ctx, in, testActor)
	assert.Equal(t, "bin_id", requireErrorType[*types.ValidationError](t, err).Field)

	in.BinID = f.binID("S-01")
	_, err = f.movements.StockIntake(f.ctx, in, testActor)
	requireErrorType[*types.CapacityExceededError](t, err)

	in.BinID = f.binID("A-01")
	res, err := f.movements.StockIntake(f.ctx, in, testActor)
	require.NoError(t, err)
	assert.Equal(t, types.ActionPutAwayProduct, res.Log.Action)
	assert.True(t, res.Occupancy.MaxQuantity.Equal(qty(200)))
	assert.True(t, res.Occupancy.AvailableQuantity.Equal(qty(100)))
	assert.Equal(t, f.Catalog.PalletTypes["LARGE"], res.Occupancy.PalletTypeID)

	in.ManufactureDate = "2026-04-01"
	_, err = f.movements.StockIntake(f.ctx, in, testActor)
	assert.Equal(t, "manufacture_date", requireErrorType[*types.ValidationError](t, err).Field)

	view, err := f.movements.BinStock(f.ctx, f.binID("A-01"))
	require.NoError(t, err)
	assert.Len(t, view.Logs, 1)
	assert.Len(t, view.History, 1)
}

func TestMovement_RejectsFinerThanQtyPrecision(t *testing.T) {
	f := newFixture(t)
	f.PlaceStock(testutil.Stock{Bin: "A-01", Product: "P-100", Filled: qty(60), Max: qty(200)})
	key := f.draft(types.FamilyPurchaseOrder)
	line := f.addLine(types.FamilyPurchaseOrder, key, "P-100", 50)
	f.open(types.FamilyPurchaseOrder, key)

	_, err := f.movements.ExecuteMovement(f.ctx, types.FamilyPurchaseOrder, key, MovementInput{
		LineID: line.ID.String(), BinID: f.binID("A-01"), Quantity: decimal.RequireFromString("50.004"),
	}, testActor)
	assert.Equal(t, "quantity", requireErrorType[*types.ValidationError](t, err).Field)

	_, err = f.movements.SuggestBin(f.ctx, types.FamilyPurchaseOrder, key, PlanInput{
		LineID: line.ID.String(), Quantity: decimal.RequireFromString("0.001"),
	})
	requireErrorType[*types.ValidationError](t, err)

	res, err := f.pick(types.FamilyPurchaseOrder, key, line, "A-01", 50)
	require.NoError(t, err)
	assert.True(t, res.Line.PendingQuantity.IsZero())
	assert.True(t, res.Line.PendingQuantity.Add(res.Line.PickedQuantity).Equal(res.Line.Quantity))
	assert.True(t, res.Occupancy.FilledQuantity.Equal(qty(10)))
	assert.True(t, res.Log.Quantity.Equal(res.Occupancy.FilledQuantity.Sub(qty(60)).Neg()))

	in := StockIntakeInput{
		ProductID:       f.Catalog.Products["P-100"].String(),
		WarehouseID:     f.Catalog.Warehouses["WH1"].String(),
		BinID:           f.binID("S-01"),
		Uom:             "pcs",
		StockLocation:   "good",
		BatchNumber:     "B1",
		ManufactureDate: "2026-01-10",
		Mrp:             qty(10),
		Quantity:        decimal.RequireFromString("60.004"),
	}
	_, err = f.movements.StockIntake(f.ctx, in, testActor)
	assert.Equal(t, "quantity", requireErrorType[*types.ValidationError](t, err).Field)

	in.Quantity = qty(60)
	intake, err := f.movements.StockIntake(f.ctx, in, testActor)
	require.NoError(t, err)
	assert.True(t, intake.Occupancy.MaxQuantity.Equal(qty(60)))
	assert.True(t, intake.Occupancy.AvailableQuantity.IsZero())

	fine := f.lineInput("P-200", 1, "B1")
	fine.Quantity = decimal.RequireFromString("1.125")
	_, err = f.lines.AddLine(f.ctx, types.FamilyPurchaseOrder, f.draft(types.FamilyPurchaseOrder), fine, testActor)
	assert.Equal(t, "quantity", requireErrorType[*types.ValidationError](t, err).Field)
}
