package services

import (
	"context"
	"fulfillment-wms/testutil"
	"fulfillment-wms/types"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type movableClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *movableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *movableClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []PhaseEvent
}

func (n *recordingNotifier) PhaseCompleted(event PhaseEvent) error {
	n.mu.Lock()
	n.events = append(n.events, event)
	n.mu.Unlock()
	return nil
}

func (n *recordingNotifier) Events() []PhaseEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]PhaseEvent(nil), n.events...)
}

const testActor int64 = 7

type fixture struct {
	*testutil.TestEnv
	ctx        context.Context
	clock      *movableClock
	metrics    *Metrics
	notifier   *recordingNotifier
	orders     *OrderService
	lines      *LineLedger
	movements  *MovementService
	satellites *SatelliteService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	env := testutil.Setup(t)
	clock := &movableClock{now: testutil.Today}
	metrics := NewMetrics(prometheus.NewRegistry())
	notifier := &recordingNotifier{}
	logger := zap.NewNop()

	return &fixture{
		TestEnv:    env,
		ctx:        context.Background(),
		clock:      clock,
		metrics:    metrics,
		notifier:   notifier,
		orders:     NewOrderService(env.DB, DefaultCatalog, clock, metrics, logger),
		lines:      NewLineLedger(env.DB, DefaultCatalog, logger),
		movements:  NewMovementService(env.DB, DefaultCatalog, clock, metrics, notifier, logger),
		satellites: NewSatelliteService(env.DB, DefaultCatalog, clock, metrics, notifier, logger, true),
	}
}

func (f *fixture) counterparty(family types.OrderFamily) string {
	if family.CounterpartyKind() == "vendor" {
		return f.Catalog.Vendors["V-1"].String()
	}
	return f.Catalog.Customers["C-1"].String()
}

func (f *fixture) draft(family types.OrderFamily) types.LookupKey {
	f.T.Helper()
	view, err := f.orders.CreateDraft(f.ctx, family, OrderInput{
		CounterpartyID: f.counterparty(family),
		WarehouseID:    f.Catalog.Warehouses["WH1"].String(),
	}, testActor)
	require.NoError(f.T, err)
	return types.ByCode(view.OrderNo)
}

func (f *fixture) lineInput(product string, qty int64, batch string) LineInput {
	return LineInput{
		ProductID:     f.Catalog.Products[product].String(),
		WarehouseID:   f.Catalog.Warehouses["WH1"].String(),
		Uom:           "pcs",
		StockLocation: "good",
		BatchNumber:   batch,
		Quantity:      decimal.NewFromInt(qty),
		Mrp:           decimal.NewNullDecimal(decimal.NewFromInt(10)),
		Discount:      decimal.NewNullDecimal(decimal.NewFromInt(1)),
	}
}

func (f *fixture) addLine(family types.OrderFamily, key types.LookupKey, product string, qty int64) *LineView {
	f.T.Helper()
	line, err := f.lines.AddLine(f.ctx, family, key, f.lineInput(product, qty, "B1"), testActor)
	require.NoError(f.T, err)
	return line
}

func (f *fixture) open(family types.OrderFamily, key types.LookupKey) {
	f.T.Helper()
	view, err := f.orders.SetStatus(f.ctx, family, key, "Open", testActor)
	require.NoError(f.T, err)
	require.Equal(f.T, types.OrderOpen, view.Status)
}

func (f *fixture) binID(code string) string {
	return f.Catalog.Bins[code].String()
}

func qty(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func requireErrorType[T error](t *testing.T, err error) T {
	t.Helper()
	require.Error(t, err)
	var target T
	require.ErrorAs(t, err, &target, "got %T: %v", err, err)
	return target
}
