package services

import (
	"context"
	"fulfillment-wms/models"
	"fulfillment-wms/repositories"
	"fulfillment-wms/types"
	"fulfillment-wms/utils"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OrderInput struct {
	CounterpartyID string `json:"counterparty_id" validate:"required"`
	WarehouseID    string `json:"warehouse_id" validate:"required"`
	Branch         string `json:"branch" validate:"max=64"`
	OrderDate      string `json:"order_date"`
	ReferenceNo    string `json:"reference_no" validate:"max=64"`
	Remarks        string `json:"remarks"`
}

// OrderHeaderInput holds the editable header fields. Nil means unchanged.
type OrderHeaderInput struct {
	CounterpartyID *string `json:"counterparty_id"`
	WarehouseID    *string `json:"warehouse_id"`
	Branch         *string `json:"branch"`
	OrderDate      *string `json:"order_date"`
	ReferenceNo    *string `json:"reference_no"`
	Remarks        *string `json:"remarks"`
}

type OrderListFilter struct {
	CreatedBy int64
	Status    string
}

// OrderView is an order enriched for display.
type OrderView struct {
	models.Order
	StatusDisplay    string            `json:"status_display"`
	CounterpartyCode string            `json:"counterparty_code"`
	CounterpartyName string            `json:"counterparty_name"`
	LineViews        []LineView        `json:"order_lines,omitempty"`
	Receivings       []ReceivingView   `json:"receivings,omitempty"`
	Shipments        []models.Shipment `json:"shipments,omitempty"`
}

type OrderService struct {
	db      *gorm.DB
	catalog CatalogFactory
	clock   Clock
	metrics *Metrics
	log     *zap.Logger
}

func NewOrderService(db *gorm.DB, catalog CatalogFactory, clock Clock, metrics *Metrics, logger *zap.Logger) *OrderService {
	return &OrderService{db: db, catalog: catalog, clock: clock, metrics: metrics, log: logger}
}

func (s *OrderService) CreateDraft(ctx context.Context, family types.OrderFamily, in OrderInput, actor int64) (*OrderView, error) {
	if !family.Valid() {
		return nil, &types.ValidationError{Field: "family", Reason: "unknown order family"}
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	counterpartyID, err := types.ParseSnowflakeID(strings.TrimSpace(in.CounterpartyID))
	if err != nil {
		return nil, &types.ValidationError{Field: "counterparty_id", Reason: "is not a valid id"}
	}
	warehouseID, err := types.ParseSnowflakeID(strings.TrimSpace(in.WarehouseID))
	if err != nil {
		return nil, &types.ValidationError{Field: "warehouse_id", Reason: "is not a valid id"}
	}
	orderDate := strings.TrimSpace(in.OrderDate)
	if orderDate == "" {
		orderDate = s.clock.Now().Format(utils.DateLayout)
	} else if _, err := utils.ParseDate(orderDate); err != nil {
		return nil, &types.ValidationError{Field: "order_date", Reason: "must be a YYYY-MM-DD date"}
	}

	var view *OrderView
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		catalog := s.catalog(tx)
		party, err := activeCounterparty(catalog, family, counterpartyID)
		if err != nil {
			return err
		}
		if _, err := activeWarehouse(catalog, warehouseID); err != nil {
			return err
		}

		orders := repositories.NewOrderRepository(tx)
		orderNo, err := orders.GenerateOrderNo(family, s.clock.Now())
		if err != nil {
			return err
		}

		order := &models.Order{
			OrderNo:        orderNo,
			Family:         family,
			CounterpartyID: counterpartyID,
			WarehouseID:    warehouseID,
			Branch:         strings.TrimSpace(in.Branch),
			OrderDate:      orderDate,
			ReferenceNo:    strings.TrimSpace(in.ReferenceNo),
			Remarks:        in.Remarks,
			Status:         types.OrderNew,
			Audit:          models.Audit{CreatedBy: actor, UpdatedBy: actor},
		}
		if err := orders.Create(order); err != nil {
			return err
		}
		view = &OrderView{
			Order:            *order,
			StatusDisplay:    order.Status.Display(),
			CounterpartyCode: party.Code,
			CounterpartyName: party.Name,
		}
		return nil
	})
	if err != nil {
		s.metrics.ObserveFailure("create order", err)
		return nil, types.WrapUnexpected("create order", err)
	}

	s.log.Info("order created", zap.String("family", string(family)), zap.String("order_no", view.OrderNo), zap.Int64("actor", actor))
	return view, nil
}

// Get returns the order with its lines and satellite records.
func (s *OrderService) Get(ctx context.Context, family types.OrderFamily, key types.LookupKey) (*OrderView, error) {
	db := s.db.WithContext(ctx)
	order, err := repositories.NewOrderRepository(db).FindByKey(family, key)
	if err != nil {
		return nil, types.WrapUnexpected("get order", err)
	}

	catalog := s.catalog(db)
	view := s.enrich(catalog, *order)
	if view.LineViews, err = listLineViews(db, catalog, order.ID, false); err != nil {
		return nil, types.WrapUnexpected("get order", err)
	}

	if family.Direction() == types.DirectionPut {
		receivings, err := repositories.NewReceivingRepository(db).ListByOrder(order.ID)
		if err != nil {
			return nil, types.WrapUnexpected("get order", err)
		}
		today := s.clock.Now()
		for _, rcv := range receivings {
			view.Receivings = append(view.Receivings, newReceivingView(rcv, today))
		}
	} else {
		if view.Shipments, err = repositories.NewShipmentRepository(db).ListByOrder(order.ID); err != nil {
			return nil, types.WrapUnexpected("get order", err)
		}
	}
	return &view, nil
}

func (s *OrderService) List(ctx context.Context, family types.OrderFamily, filter OrderListFilter) ([]OrderView, error) {
	if !family.Valid() {
		return nil, &types.ValidationError{Field: "family", Reason: "unknown order family"}
	}
	repoFilter := repositories.OrderFilter{CreatedBy: filter.CreatedBy}
	if strings.TrimSpace(filter.Status) != "" {
		status, err := types.ParseOrderStatus(filter.Status)
		if err != nil {
			return nil, err
		}
		repoFilter.Status = status
	}

	db := s.db.WithContext(ctx)
	orders, err := repositories.NewOrderRepository(db).List(family, repoFilter)
	if err != nil {
		return nil, types.WrapUnexpected("list orders", err)
	}
	catalog := s.catalog(db)
	views := make([]OrderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, s.enrich(catalog, order))
	}
	return views, nil
}

// UpdateHeader edits header fields of a Draft or Open order. Counterparty and
// warehouse are fixed once the order leaves Draft.
func (s *OrderService) UpdateHeader(ctx context.Context, family types.OrderFamily, key types.LookupKey, in OrderHeaderInput, actor int64) (*OrderView, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, family, key)
		if err != nil {
			return err
		}
		if err := requireOrderStatus(order, "update", types.OrderNew, types.OrderOpen); err != nil {
			return err
		}

		catalog := s.catalog(tx)
		fields := map[string]interface{}{}
		if in.CounterpartyID != nil || in.WarehouseID != nil {
			if err := requireOrderStatus(order, "change counterparty or warehouse of", types.OrderNew); err != nil {
				return err
			}
		}
		if in.CounterpartyID != nil {
			id, err := types.ParseSnowflakeID(strings.TrimSpace(*in.CounterpartyID))
			if err != nil {
				return &types.ValidationError{Field: "counterparty_id", Reason: "is not a valid id"}
			}
			if _, err := activeCounterparty(catalog, family, id); err != nil {
				return err
			}
			fields["counterparty_id"] = id
		}
		if in.WarehouseID != nil {
			id, err := types.ParseSnowflakeID(strings.TrimSpace(*in.WarehouseID))
			if err != nil {
				return &types.ValidationError{Field: "warehouse_id", Reason: "is not a valid id"}
			}
			if _, err := activeWarehouse(catalog, id); err != nil {
				return err
			}
			fields["warehouse_id"] = id
		}
		if in.OrderDate != nil {
			if _, err := utils.ParseDate(*in.OrderDate); err != nil {
				return &types.ValidationError{Field: "order_date", Reason: "must be a YYYY-MM-DD date"}
			}
			fields["order_date"] = strings.TrimSpace(*in.OrderDate)
		}
		if in.Branch != nil {
			fields["branch"] = strings.TrimSpace(*in.Branch)
		}
		if in.ReferenceNo != nil {
			fields["reference_no"] = strings.TrimSpace(*in.ReferenceNo)
		}
		if in.Remarks != nil {
			fields["remarks"] = *in.Remarks
		}
		if len(fields) == 0 {
			return &types.ValidationError{Reason: "nothing to update"}
		}
		return repositories.NewOrderRepository(tx).UpdateFields(order.ID, actor, fields)
	})
	if err != nil {
		return nil, types.WrapUnexpected("update order", err)
	}
	return s.Get(ctx, family, key)
}

// SetStatus applies a manual status change. Picklist statuses follow the
// lines and put-family completion follows the receiving, so neither can be
// set by hand.
func (s *OrderService) SetStatus(ctx context.Context, family types.OrderFamily, key types.LookupKey, rawStatus string, actor int64) (*OrderView, error) {
	target, err := types.ParseOrderStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	switch target {
	case types.OrderPicklistStarted, types.OrderPicklistCompleted:
		return nil, &types.ValidationError{Field: "status", Reason: target.Display() + " is derived from picking progress"}
	case types.OrderCompleted:
		if family.Direction() == types.DirectionPut {
			return nil, &types.ValidationError{Field: "status", Reason: "a return completes when its put-away completes"}
		}
	case types.OrderDeleted:
		if err := s.SoftDelete(ctx, family, key, actor); err != nil {
			return nil, err
		}
		return nil, nil
	}

	var orderNo string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, family, key)
		if err != nil {
			return err
		}
		orderNo = order.OrderNo
		if order.Status == target {
			return nil
		}
		if err := checkOrderTransition(order, target); err != nil {
			return err
		}
		if target == types.OrderOpen {
			lines, err := repositories.NewOrderLineRepository(tx).ListByOrder(order.ID)
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				return &types.InvalidStateError{
					Entity: family.Label(), Ref: order.OrderNo, Operation: "open",
					Status: order.Status.Display(), Allowed: []string{"Draft with at least one line"},
				}
			}
		}
		return repositories.NewOrderRepository(tx).UpdateStatus(order.ID, target, actor)
	})
	if err != nil {
		s.metrics.ObserveFailure("set order status", err)
		return nil, types.WrapUnexpected("set order status", err)
	}

	s.metrics.ObserveTransition(string(family), string(target))
	s.log.Info("order status changed", zap.String("order_no", orderNo), zap.String("status", string(target)), zap.Int64("actor", actor))
	return s.Get(ctx, family, key)
}

// SoftDelete hides a Draft or Open order and its lines.
func (s *OrderService) SoftDelete(ctx context.Context, family types.OrderFamily, key types.LookupKey, actor int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, family, key)
		if err != nil {
			return err
		}
		if err := checkOrderTransition(order, types.OrderDeleted); err != nil {
			return err
		}
		return repositories.NewOrderRepository(tx).SoftDelete(order.ID, actor)
	})
	if err != nil {
		return types.WrapUnexpected("delete order", err)
	}
	s.metrics.ObserveTransition(string(family), string(types.OrderDeleted))
	return nil
}

func (s *OrderService) enrich(catalog CatalogGateway, order models.Order) OrderView {
	view := OrderView{Order: order, StatusDisplay: order.Status.Display()}
	party, err := catalog.FindCounterparty(order.Family.CounterpartyKind(), order.CounterpartyID)
	if err != nil {
		s.log.Warn("counterparty lookup failed", zap.String("order_no", order.OrderNo), zap.Error(err))
		return view
	}
	view.CounterpartyCode = party.Code
	view.CounterpartyName = party.Name
	return view
}

func activeCounterparty(catalog CatalogGateway, family types.OrderFamily, id types.SnowflakeID) (*repositories.Counterparty, error) {
	party, err := catalog.FindCounterparty(family.CounterpartyKind(), id)
	if err != nil {
		return nil, err
	}
	if !party.IsActive {
		return nil, &types.ValidationError{Field: "counterparty_id", Reason: party.Kind + " " + party.Code + " is inactive"}
	}
	return party, nil
}

func lockOrder(tx *gorm.DB, family types.OrderFamily, key types.LookupKey) (*models.Order, error) {
	if !family.Valid() {
		return nil, &types.ValidationError{Field: "family", Reason: "unknown order family"}
	}
	return repositories.NewOrderRepository(tx).FindForUpdate(family, key)
}

func requireOrderStatus(order *models.Order, operation string, allowed ...types.OrderStatus) error {
	for _, status := range allowed {
		if order.Status == status {
			return nil
		}
	}
	names := make([]string, 0, len(allowed))
	for _, status := range allowed {
		names = append(names, status.Display())
	}
	return &types.InvalidStateError{
		Entity:    order.Family.Label(),
		Ref:       order.OrderNo,
		Operation: operation,
		Status:    order.Status.Display(),
		Allowed:   names,
	}
}

func checkOrderTransition(order *models.Order, target types.OrderStatus) error {
	if types.CanTransition(order.Family, order.Status, target) {
		return nil
	}
	allowed := types.AllowedTransitions(order.Family, order.Status)
	names := make([]string, 0, len(allowed))
	for _, status := range allowed {
		names = append(names, status.Display())
	}
	return &types.InvalidStateError{
		Entity:    order.Family.Label(),
		Ref:       order.OrderNo,
		Operation: "set status " + target.Display() + " on",
		Status:    order.Status.Display(),
		Allowed:   names,
	}
}
