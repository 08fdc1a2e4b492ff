package services

import (
	"context"
	"fulfillment-wms/models"
	"fulfillment-wms/repositories"
	"fulfillment-wms/types"
	"fulfillment-wms/utils"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MovementInput moves quantity of one order line into or out of one bin.
// PutAwayID optionally names the planned task the movement fulfils.
type MovementInput struct {
	LineID            string          `json:"line_id" validate:"required"`
	BinID             string          `json:"bin_id" validate:"required"`
	Quantity          decimal.Decimal `json:"quantity"`
	BatchNumber       string          `json:"batch_number"`
	BatchChangeReason string          `json:"batch_change_reason"`
	ManufactureDate   string          `json:"manufacture_date"`
	PutAwayID         string          `json:"putaway_id"`
}

// PlanInput asks the allocator about a line without moving anything.
type PlanInput struct {
	LineID            string          `json:"line_id" validate:"required"`
	BinID             string          `json:"bin_id"`
	Quantity          decimal.Decimal `json:"quantity"`
	BatchNumber       string          `json:"batch_number"`
	BatchChangeReason string          `json:"batch_change_reason"`
	ManufactureDate   string          `json:"manufacture_date"`
}

// StockIntakeInput deposits opening stock without an order.
type StockIntakeInput struct {
	ProductID       string          `json:"product_id"`
	MaterialID      string          `json:"material_id"`
	WarehouseID     string          `json:"warehouse_id" validate:"required"`
	BinID           string          `json:"bin_id"`
	Uom             string          `json:"uom" validate:"required,max=16"`
	StockLocation   string          `json:"stock_location" validate:"required,max=64"`
	BatchNumber     string          `json:"batch_number" validate:"required,max=64"`
	ManufactureDate string          `json:"manufacture_date"`
	Mrp             decimal.Decimal `json:"mrp"`
	Quantity        decimal.Decimal `json:"quantity"`
}

type MovementResult struct {
	Log       models.BinProductLog `json:"log"`
	Line      *models.OrderLine    `json:"line,omitempty"`
	Occupancy models.BinProduct    `json:"occupancy"`
	Status    *StatusResult        `json:"status,omitempty"`
}

// StatusResult reports the parent document state after a recompute.
type StatusResult struct {
	OrderNo            string                `json:"order_no"`
	OrderStatus        types.OrderStatus     `json:"order_status"`
	OrderStatusDisplay string                `json:"order_status_display"`
	ReceivingNo        string                `json:"receiving_no,omitempty"`
	ReceivingStatus    types.ReceivingStatus `json:"receiving_status,omitempty"`
	Changed            bool                  `json:"changed"`
	PhaseCompleted     bool                  `json:"phase_completed"`
}

type BinStockView struct {
	Bin       models.Bin             `json:"bin"`
	Occupancy *models.BinProduct     `json:"occupancy"`
	History   []models.BinProduct    `json:"history"`
	Logs      []models.BinProductLog `json:"logs"`
}

// MovementService runs picks and put-aways as single transactions and keeps
// the parent documents' status in step with their lines.
type MovementService struct {
	db        *gorm.DB
	catalog   CatalogFactory
	allocator *Allocator
	inventory BinInventory
	clock     Clock
	metrics   *Metrics
	notifier  Notifier
	log       *zap.Logger
}

func NewMovementService(db *gorm.DB, catalog CatalogFactory, clock Clock, metrics *Metrics, notifier Notifier, logger *zap.Logger) *MovementService {
	return &MovementService{
		db:        db,
		catalog:   catalog,
		allocator: NewAllocator(clock),
		clock:     clock,
		metrics:   metrics,
		notifier:  notifier,
		log:       logger,
	}
}

// ExecuteMovement picks from or puts into a bin for one order line. The bin,
// the line, the audit row and the parent status change together or not at all.
func (s *MovementService) ExecuteMovement(ctx context.Context, family types.OrderFamily, orderKey types.LookupKey, in MovementInput, actor int64) (*MovementResult, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	lineID, err := types.ParseSnowflakeID(strings.TrimSpace(in.LineID))
	if err != nil {
		return nil, &types.ValidationError{Field: "line_id", Reason: "is not a valid id"}
	}
	binID, err := types.ParseSnowflakeID(strings.TrimSpace(in.BinID))
	if err != nil {
		return nil, &types.ValidationError{Field: "bin_id", Reason: "is not a valid id"}
	}
	if err := checkQuantity("quantity", in.Quantity); err != nil {
		return nil, err
	}
	direction := family.Direction()
	var putAwayID types.SnowflakeID
	if strings.TrimSpace(in.PutAwayID) != "" {
		if direction != types.DirectionPut {
			return nil, &types.ValidationError{Field: "putaway_id", Reason: "only put-away movements reference a put-away task"}
		}
		if putAwayID, err = types.ParseSnowflakeID(strings.TrimSpace(in.PutAwayID)); err != nil {
			return nil, &types.ValidationError{Field: "putaway_id", Reason: "is not a valid id"}
		}
	}
	qty := in.Quantity

	var result MovementResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, family, orderKey)
		if err != nil {
			return err
		}

		var receiving *models.Receiving
		if direction == types.DirectionPick {
			if err := requireOrderStatus(order, "pick for", types.OrderOpen, types.OrderPicklistStarted); err != nil {
				return err
			}
		} else {
			if err := requireOrderStatus(order, "put away for", types.OrderOpen); err != nil {
				return err
			}
			if receiving, err = s.lockReceivingForPutAway(tx, order); err != nil {
				return err
			}
		}

		lines := repositories.NewOrderLineRepository(tx)
		line, err := lines.FindForUpdate(order.ID, lineID)
		if err != nil {
			return err
		}

		catalog := s.catalog(tx)
		item, err := catalog.FindItem(line.Item())
		if err != nil {
			return err
		}
		if qty.GreaterThan(line.PendingQuantity) {
			return &types.InsufficientQuantityError{
				Item:      item.Name,
				Source:    "pending quantity of line " + line.ID.String(),
				Requested: qty,
				Available: line.PendingQuantity,
			}
		}

		batch := strings.TrimSpace(in.BatchNumber)
		if batch == "" {
			batch = line.BatchNumber
		}
		if err := CheckBatchChange(line.BatchNumber, batch, in.BatchChangeReason); err != nil {
			return err
		}
		var mfgDate string
		if direction == types.DirectionPut {
			if mfgDate, err = s.allocator.CheckManufactureDate(in.ManufactureDate); err != nil {
				return err
			}
		}

		bin, err := catalog.FindBin(binID)
		if err != nil {
			return err
		}
		req := AllocationRequest{
			Direction:       direction,
			WarehouseID:     line.WarehouseID,
			Item:            line.Item(),
			ItemName:        item.Name,
			BatchNumber:     batch,
			Uom:             line.Uom,
			StockLocation:   line.StockLocation,
			ManufactureDate: mfgDate,
			Mrp:             line.Mrp,
			Quantity:        qty,
		}
		candidate, err := s.allocator.ValidateBin(tx, catalog, bin, req)
		if err != nil {
			return err
		}

		delta := qty
		if direction == types.DirectionPick {
			delta = qty.Neg()
		}
		key := req.key(bin)
		key.PalletTypeID = candidate.PalletTypeID
		change, err := s.inventory.UpsertOccupancy(tx, key, delta, candidate.MaxQuantity, actor)
		if err != nil {
			return err
		}

		pendingBefore, processedBefore := line.PendingQuantity, line.Processed()
		line.PendingQuantity = pendingBefore.Sub(qty)
		line.SetProcessed(processedBefore.Add(qty))
		if err := lines.UpdateCounters(line, actor); err != nil {
			return err
		}

		entry := &models.BinProductLog{
			Action:              family.Action(),
			BinProductID:        change.Row.ID,
			BinID:               bin.ID,
			OrderFamily:         family,
			OrderID:             order.ID,
			OrderLineID:         line.ID,
			ItemKind:            line.ItemKind,
			ItemID:              line.ItemID,
			BatchNumber:         batch,
			Quantity:            qty,
			FilledBefore:        change.FilledBefore,
			FilledAfter:         change.FilledAfter,
			AvailableBefore:     change.AvailableBefore,
			AvailableAfter:      change.AvailableAfter,
			LinePendingBefore:   pendingBefore,
			LinePendingAfter:    line.PendingQuantity,
			LineProcessedBefore: processedBefore,
			LineProcessedAfter:  line.Processed(),
			BatchChangeReason:   batchReason(line.BatchNumber, batch, in.BatchChangeReason),
			CreatedBy:           actor,
		}
		if err := repositories.NewBinProductLogRepository(tx).Create(entry); err != nil {
			return err
		}

		if putAwayID != 0 {
			if err := completePutAway(tx, receiving, line, bin, qty, putAwayID, entry.ID, actor); err != nil {
				return err
			}
		}

		status, err := s.recompute(tx, order, receiving, actor)
		if err != nil {
			return err
		}

		result = MovementResult{Log: *entry, Line: line, Occupancy: *change.Row, Status: status}
		return nil
	})
	if err != nil {
		s.metrics.ObserveFailure("execute movement", err)
		s.log.Warn("movement rejected",
			zap.String("family", string(family)),
			zap.String("order", orderKey.String()),
			zap.String("line_id", in.LineID),
			zap.String("bin_id", in.BinID),
			zap.String("quantity", qty.String()),
			zap.Error(err))
		return nil, types.WrapUnexpected("execute movement", err)
	}

	s.afterMovement(&result, actor)
	return &result, nil
}

// RecomputeStatus re-derives the order (and receiving) status from the lines.
// Running it again without movements in between changes nothing.
func (s *MovementService) RecomputeStatus(ctx context.Context, family types.OrderFamily, orderKey types.LookupKey, actor int64) (*StatusResult, error) {
	var status *StatusResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, family, orderKey)
		if err != nil {
			return err
		}
		var receiving *models.Receiving
		if family.Direction() == types.DirectionPut {
			receiving, err = repositories.NewReceivingRepository(tx).FindLiveByOrder(order.ID, true)
			if err != nil && !isNotFound(err) {
				return err
			}
		}
		status, err = s.recompute(tx, order, receiving, actor)
		return err
	})
	if err != nil {
		return nil, types.WrapUnexpected("recompute status", err)
	}
	s.notifyPhase(status, family, actor)
	return status, nil
}

func (s *MovementService) recompute(tx *gorm.DB, order *models.Order, receiving *models.Receiving, actor int64) (*StatusResult, error) {
	lines, err := repositories.NewOrderLineRepository(tx).ListByOrder(order.ID)
	if err != nil {
		return nil, err
	}
	allDone := len(lines) > 0
	anyMoved := false
	for i := range lines {
		if utils.QtyIsPositive(lines[i].PendingQuantity) {
			allDone = false
		}
		if utils.QtyIsPositive(lines[i].Processed()) {
			anyMoved = true
		}
	}

	res := &StatusResult{OrderNo: order.OrderNo, OrderStatus: order.Status}
	defer func() {
		res.OrderStatusDisplay = res.OrderStatus.Display()
	}()

	if order.Family.Direction() == types.DirectionPick {
		switch order.Status {
		case types.OrderOpen, types.OrderPicklistStarted, types.OrderPicklistCompleted:
		default:
			return res, nil
		}
		target := order.Status
		if allDone {
			target = types.OrderPicklistCompleted
		} else if anyMoved {
			target = types.OrderPicklistStarted
		}
		if target == order.Status {
			return res, nil
		}
		if err := checkOrderTransition(order, target); err != nil {
			return nil, err
		}
		if err := repositories.NewOrderRepository(tx).UpdateStatus(order.ID, target, actor); err != nil {
			return nil, err
		}
		order.Status = target
		res.OrderStatus = target
		res.Changed = true
		res.PhaseCompleted = target == types.OrderPicklistCompleted
		return res, nil
	}

	if receiving == nil {
		return res, nil
	}
	res.ReceivingNo = receiving.ReceivingNo
	res.ReceivingStatus = receiving.Status
	switch receiving.Status {
	case types.ReceivingReceived, types.ReceivingPutAwayStarted, types.ReceivingPutAwayCompleted:
	default:
		return res, nil
	}

	target := receiving.Status
	if allDone {
		target = types.ReceivingPutAwayCompleted
	} else if anyMoved {
		target = types.ReceivingPutAwayStarted
	}
	if target != receiving.Status {
		if !types.CanTransitionReceiving(receiving.Status, target) {
			return nil, &types.InvalidStateError{
				Entity: "Receiving", Ref: receiving.ReceivingNo, Operation: "set status " + string(target) + " on",
				Status: string(receiving.Status),
			}
		}
		if err := repositories.NewReceivingRepository(tx).UpdateFields(receiving.ID, actor, map[string]interface{}{"status": target}); err != nil {
			return nil, err
		}
		receiving.Status = target
		res.ReceivingStatus = target
		res.Changed = true
	}

	if target == types.ReceivingPutAwayCompleted && order.Status == types.OrderOpen {
		if err := checkOrderTransition(order, types.OrderCompleted); err != nil {
			return nil, err
		}
		if err := repositories.NewOrderRepository(tx).UpdateStatus(order.ID, types.OrderCompleted, actor); err != nil {
			return nil, err
		}
		order.Status = types.OrderCompleted
		res.OrderStatus = types.OrderCompleted
		res.Changed = true
		res.PhaseCompleted = true
	}
	return res, nil
}

// StockIntake deposits stock that arrives without an order.
func (s *MovementService) StockIntake(ctx context.Context, in StockIntakeInput, actor int64) (*MovementResult, error) {
	req, binID, err := s.intakeRequest(in)
	if err != nil {
		return nil, err
	}
	if binID == 0 {
		return nil, &types.ValidationError{Field: "bin_id", Reason: "is required"}
	}

	var result MovementResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		catalog := s.catalog(tx)
		if err := s.resolveIntake(catalog, &req); err != nil {
			return err
		}
		bin, err := activeBin(catalog, binID)
		if err != nil {
			return err
		}
		candidate, err := s.allocator.ValidateBin(tx, catalog, bin, req)
		if err != nil {
			return err
		}
		key := req.key(bin)
		key.PalletTypeID = candidate.PalletTypeID
		change, err := s.inventory.UpsertOccupancy(tx, key, req.Quantity, candidate.MaxQuantity, actor)
		if err != nil {
			return err
		}

		entry := &models.BinProductLog{
			Action:          types.ActionPutAwayProduct,
			BinProductID:    change.Row.ID,
			BinID:           bin.ID,
			ItemKind:        req.Item.Kind,
			ItemID:          req.Item.ID,
			BatchNumber:     req.BatchNumber,
			Quantity:        req.Quantity,
			FilledBefore:    change.FilledBefore,
			FilledAfter:     change.FilledAfter,
			AvailableBefore: change.AvailableBefore,
			AvailableAfter:  change.AvailableAfter,
			CreatedBy:       actor,
		}
		if err := repositories.NewBinProductLogRepository(tx).Create(entry); err != nil {
			return err
		}
		result = MovementResult{Log: *entry, Occupancy: *change.Row}
		return nil
	})
	if err != nil {
		s.metrics.ObserveFailure("stock intake", err)
		return nil, types.WrapUnexpected("stock intake", err)
	}
	s.afterMovement(&result, actor)
	return &result, nil
}

// SuggestIntakeBins ranks the bins able to take an order-less deposit.
func (s *MovementService) SuggestIntakeBins(ctx context.Context, in StockIntakeInput) ([]BinCandidate, error) {
	req, _, err := s.intakeRequest(in)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	catalog := s.catalog(db)
	if err := s.resolveIntake(catalog, &req); err != nil {
		return nil, types.WrapUnexpected("suggest intake bins", err)
	}
	candidates, err := s.allocator.ListAvailableBins(db, catalog, req)
	if err != nil {
		return nil, types.WrapUnexpected("suggest intake bins", err)
	}
	return candidates, nil
}

func (s *MovementService) intakeRequest(in StockIntakeInput) (AllocationRequest, types.SnowflakeID, error) {
	item, err := types.NewItemRef(in.ProductID, in.MaterialID)
	if err != nil {
		return AllocationRequest{}, 0, err
	}
	if err := validateStruct(in); err != nil {
		return AllocationRequest{}, 0, err
	}
	warehouseID, err := types.ParseSnowflakeID(strings.TrimSpace(in.WarehouseID))
	if err != nil {
		return AllocationRequest{}, 0, &types.ValidationError{Field: "warehouse_id", Reason: "is not a valid id"}
	}
	var binID types.SnowflakeID
	if strings.TrimSpace(in.BinID) != "" {
		if binID, err = types.ParseSnowflakeID(strings.TrimSpace(in.BinID)); err != nil {
			return AllocationRequest{}, 0, &types.ValidationError{Field: "bin_id", Reason: "is not a valid id"}
		}
	}
	if err := checkQuantity("quantity", in.Quantity); err != nil {
		return AllocationRequest{}, 0, err
	}
	if in.Mrp.IsNegative() {
		return AllocationRequest{}, 0, &types.ValidationError{Field: "mrp", Reason: "must not be negative"}
	}
	mfgDate, err := s.allocator.CheckManufactureDate(in.ManufactureDate)
	if err != nil {
		return AllocationRequest{}, 0, err
	}
	return AllocationRequest{
		Direction:       types.DirectionPut,
		WarehouseID:     warehouseID,
		Item:            item,
		BatchNumber:     strings.TrimSpace(in.BatchNumber),
		Uom:             strings.ToUpper(strings.TrimSpace(in.Uom)),
		StockLocation:   strings.ToUpper(strings.TrimSpace(in.StockLocation)),
		ManufactureDate: mfgDate,
		Mrp:             in.Mrp,
		Quantity:        in.Quantity,
	}, binID, nil
}

func (s *MovementService) resolveIntake(catalog CatalogGateway, req *AllocationRequest) error {
	item, err := activeItem(catalog, req.Item)
	if err != nil {
		return err
	}
	if _, err := activeWarehouse(catalog, req.WarehouseID); err != nil {
		return err
	}
	req.ItemName = item.Name
	return nil
}

// SuggestBin proposes the best bin for the next movement of a line.
func (s *MovementService) SuggestBin(ctx context.Context, family types.OrderFamily, orderKey types.LookupKey, in PlanInput) (*BinCandidate, error) {
	db := s.db.WithContext(ctx)
	catalog := s.catalog(db)
	req, err := s.planRequest(db, catalog, family, orderKey, in)
	if err != nil {
		return nil, types.WrapUnexpected("suggest bin", err)
	}
	candidate, err := s.allocator.SuggestBin(db, catalog, req)
	if err != nil {
		return nil, types.WrapUnexpected("suggest bin", err)
	}
	return candidate, nil
}

func (s *MovementService) ListAvailableBins(ctx context.Context, family types.OrderFamily, orderKey types.LookupKey, in PlanInput) ([]BinCandidate, error) {
	db := s.db.WithContext(ctx)
	catalog := s.catalog(db)
	req, err := s.planRequest(db, catalog, family, orderKey, in)
	if err != nil {
		return nil, types.WrapUnexpected("list available bins", err)
	}
	candidates, err := s.allocator.ListAvailableBins(db, catalog, req)
	if err != nil {
		return nil, types.WrapUnexpected("list available bins", err)
	}
	return candidates, nil
}

func (s *MovementService) ValidateBin(ctx context.Context, family types.OrderFamily, orderKey types.LookupKey, in PlanInput) (*BinCandidate, error) {
	binID, err := types.ParseSnowflakeID(strings.TrimSpace(in.BinID))
	if err != nil {
		return nil, &types.ValidationError{Field: "bin_id", Reason: "is not a valid id"}
	}
	db := s.db.WithContext(ctx)
	catalog := s.catalog(db)
	req, err := s.planRequest(db, catalog, family, orderKey, in)
	if err != nil {
		return nil, types.WrapUnexpected("validate bin", err)
	}
	bin, err := catalog.FindBin(binID)
	if err != nil {
		return nil, types.WrapUnexpected("validate bin", err)
	}
	candidate, err := s.allocator.ValidateBin(db, catalog, bin, req)
	if err != nil {
		return nil, types.WrapUnexpected("validate bin", err)
	}
	return candidate, nil
}

// ListMovements returns the audit rows of an order in the order they happened.
func (s *MovementService) ListMovements(ctx context.Context, family types.OrderFamily, orderKey types.LookupKey) ([]models.BinProductLog, error) {
	db := s.db.WithContext(ctx)
	order, err := repositories.NewOrderRepository(db).FindByKey(family, orderKey)
	if err != nil {
		return nil, types.WrapUnexpected("list movements", err)
	}
	logs, err := repositories.NewBinProductLogRepository(db).ListByOrder(order.ID)
	if err != nil {
		return nil, types.WrapUnexpected("list movements", err)
	}
	return logs, nil
}

// BinStock shows what a bin holds now and how it got there. The reference is
// a bin id or a bin code.
func (s *MovementService) BinStock(ctx context.Context, ref string) (*BinStockView, error) {
	key, err := types.ParseLookupKey(ref)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	catalog := s.catalog(db)

	var bin *models.Bin
	if key.IsID() {
		bin, err = catalog.FindBin(key.ID)
	} else {
		bin, err = catalog.FindBinByCode(key.Code)
	}
	if err != nil {
		return nil, types.WrapUnexpected("bin stock", err)
	}

	view := &BinStockView{Bin: *bin}
	if view.Occupancy, err = s.inventory.FindOccupancy(db, bin.ID, false); err != nil {
		return nil, types.WrapUnexpected("bin stock", err)
	}
	if view.History, err = repositories.NewBinProductRepository(db).ListByBin(bin.ID); err != nil {
		return nil, types.WrapUnexpected("bin stock", err)
	}
	if view.Logs, err = repositories.NewBinProductLogRepository(db).ListByBin(bin.ID); err != nil {
		return nil, types.WrapUnexpected("bin stock", err)
	}
	return view, nil
}

func (s *MovementService) planRequest(db *gorm.DB, catalog CatalogGateway, family types.OrderFamily, orderKey types.LookupKey, in PlanInput) (AllocationRequest, error) {
	if err := validateStruct(in); err != nil {
		return AllocationRequest{}, err
	}
	lineID, err := types.ParseSnowflakeID(strings.TrimSpace(in.LineID))
	if err != nil {
		return AllocationRequest{}, &types.ValidationError{Field: "line_id", Reason: "is not a valid id"}
	}
	order, err := repositories.NewOrderRepository(db).FindByKey(family, orderKey)
	if err != nil {
		return AllocationRequest{}, err
	}
	line, err := repositories.NewOrderLineRepository(db).FindByID(order.ID, lineID)
	if err != nil {
		return AllocationRequest{}, err
	}
	item, err := catalog.FindItem(line.Item())
	if err != nil {
		return AllocationRequest{}, err
	}

	qty := in.Quantity
	if qty.IsZero() {
		qty = line.PendingQuantity
		if !utils.QtyIsPositive(qty) {
			return AllocationRequest{}, &types.ValidationError{Field: "quantity", Reason: "line has nothing pending"}
		}
	} else if err := checkQuantity("quantity", qty); err != nil {
		return AllocationRequest{}, err
	}
	batch := strings.TrimSpace(in.BatchNumber)
	if batch == "" {
		batch = line.BatchNumber
	}
	if err := CheckBatchChange(line.BatchNumber, batch, in.BatchChangeReason); err != nil {
		return AllocationRequest{}, err
	}

	req := AllocationRequest{
		Direction:     family.Direction(),
		WarehouseID:   line.WarehouseID,
		Item:          line.Item(),
		ItemName:      item.Name,
		BatchNumber:   batch,
		Uom:           line.Uom,
		StockLocation: line.StockLocation,
		Mrp:           line.Mrp,
		Quantity:      qty,
	}
	if req.Direction == types.DirectionPut {
		if req.ManufactureDate, err = s.allocator.CheckManufactureDate(in.ManufactureDate); err != nil {
			return AllocationRequest{}, err
		}
	}
	return req, nil
}

func (s *MovementService) lockReceivingForPutAway(tx *gorm.DB, order *models.Order) (*models.Receiving, error) {
	receiving, err := repositories.NewReceivingRepository(tx).FindLiveByOrder(order.ID, true)
	if err != nil {
		return nil, err
	}
	if err := requireReceivingStatus(receiving, "put away", types.ReceivingReceived, types.ReceivingPutAwayStarted); err != nil {
		return nil, err
	}
	if inQuarantine(receiving, s.clock.Now()) {
		return nil, &types.InvalidStateError{
			Entity:    "Receiving",
			Ref:       receiving.ReceivingNo,
			Operation: "put away",
			Status:    types.DisplayInQuarantine + " until " + receiving.QuarantineEndDate,
			Allowed:   []string{types.DisplayQuarantineCompleted},
		}
	}
	return receiving, nil
}

func (s *MovementService) afterMovement(result *MovementResult, actor int64) {
	s.metrics.ObserveMovement(result.Log.Action, result.Log.Quantity)
	fields := []zap.Field{
		zap.String("action", string(result.Log.Action)),
		zap.String("log_id", result.Log.ID.String()),
		zap.String("bin_id", result.Log.BinID.String()),
		zap.String("quantity", result.Log.Quantity.String()),
		zap.String("filled_after", result.Log.FilledAfter.String()),
		zap.Int64("actor", actor),
	}
	if result.Status != nil {
		fields = append(fields,
			zap.String("order_no", result.Status.OrderNo),
			zap.String("order_status", string(result.Status.OrderStatus)))
	}
	s.log.Info("movement committed", fields...)
	if result.Status != nil {
		s.notifyPhase(result.Status, result.Log.OrderFamily, actor)
	}
}

func (s *MovementService) notifyPhase(status *StatusResult, family types.OrderFamily, actor int64) {
	if status == nil || !status.Changed {
		return
	}
	s.metrics.ObserveTransition(string(family), string(status.OrderStatus))
	if !status.PhaseCompleted {
		return
	}
	event := PhaseEvent{Entity: family.Label(), Ref: status.OrderNo, Status: status.OrderStatus.Display(), Actor: actor}
	if status.ReceivingNo != "" {
		event = PhaseEvent{Entity: "Receiving", Ref: status.ReceivingNo, Status: string(status.ReceivingStatus), Actor: actor}
	}
	if err := s.notifier.PhaseCompleted(event); err != nil {
		s.log.Warn("phase notification failed", zap.String("ref", event.Ref), zap.Error(err))
	}
}

func completePutAway(tx *gorm.DB, receiving *models.Receiving, line *models.OrderLine, bin *models.Bin, qty decimal.Decimal, id, logID types.SnowflakeID, actor int64) error {
	repo := repositories.NewReceivingRepository(tx)
	task, err := repo.FindPutAway(id, true)
	if err != nil {
		return err
	}
	switch {
	case task.ReceivingID != receiving.ID:
		return &types.ValidationError{Field: "putaway_id", Reason: "belongs to another receiving"}
	case task.OrderLineID != line.ID:
		return &types.ValidationError{Field: "putaway_id", Reason: "is planned for another order line"}
	case task.BinID != bin.ID:
		return &types.ValidationError{Field: "putaway_id", Reason: "is planned for bin " + task.BinID.String()}
	case !task.Quantity.Equal(qty):
		return &types.ValidationError{Field: "quantity", Reason: "must equal the planned put-away quantity " + task.Quantity.String()}
	}
	if !types.CanTransitionPutAway(task.Status, types.PutAwayCompleted) || task.Status == types.PutAwayCompleted {
		return &types.InvalidStateError{
			Entity: "Put-away", Ref: task.ID.String(), Operation: "complete",
			Status: string(task.Status), Allowed: []string{string(types.PutAwayPending)},
		}
	}
	return repo.UpdatePutAway(task.ID, actor, map[string]interface{}{
		"status":           types.PutAwayCompleted,
		"completed_log_id": logID,
	})
}

func batchReason(lineBatch, batch, reason string) string {
	if batch == lineBatch {
		return ""
	}
	return strings.TrimSpace(reason)
}

func inQuarantine(receiving *models.Receiving, now time.Time) bool {
	if !receiving.QuarantineTracked || receiving.QuarantineEndDate == "" {
		return false
	}
	end, err := utils.ParseDate(receiving.QuarantineEndDate)
	if err != nil {
		return false
	}
	return utils.DateOnly(now).Before(end)
}
