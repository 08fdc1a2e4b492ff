package services

import (
	"context"
	"errors"
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

// ReceivingView adds the quarantine-aware display status.
type ReceivingView struct {
	models.Receiving
	StatusDisplay string `json:"status_display"`
}

func newReceivingView(rcv models.Receiving, today time.Time) ReceivingView {
	view := ReceivingView{Receiving: rcv, StatusDisplay: string(rcv.Status)}
	if rcv.Status == types.ReceivingReceived && rcv.QuarantineTracked {
		if inQuarantine(&rcv, today) {
			view.StatusDisplay = types.DisplayInQuarantine
		} else {
			view.StatusDisplay = types.DisplayQuarantineCompleted
		}
	}
	return view
}

type ReceivingInput struct {
	QuarantineEndDate string `json:"quarantine_end_date"`
	QuarantineRemark  string `json:"quarantine_remark"`
	Remarks           string `json:"remarks"`
}

type ReceivingStatusInput struct {
	Status            string `json:"status" validate:"required"`
	QuarantineEndDate string `json:"quarantine_end_date"`
	QuarantineRemark  string `json:"quarantine_remark"`
}

type PutAwayInput struct {
	LineID   string          `json:"line_id" validate:"required"`
	BinID    string          `json:"bin_id" validate:"required"`
	Quantity decimal.Decimal `json:"quantity"`
	Remarks  string          `json:"remarks"`
}

type ShipmentInput struct {
	Carrier    string `json:"carrier" validate:"max=64"`
	TrackingNo string `json:"tracking_no" validate:"max=64"`
	Remarks    string `json:"remarks"`
}

type ShipmentStatusInput struct {
	Status     string  `json:"status" validate:"required"`
	TrackingNo *string `json:"tracking_no"`
}

// SatelliteService manages the records hanging off an order: receivings and
// their put-away tasks for put families, shipments for pick families.
type SatelliteService struct {
	db                *gorm.DB
	catalog           CatalogFactory
	clock             Clock
	metrics           *Metrics
	notifier          Notifier
	log               *zap.Logger
	quarantineTracked bool
}

func NewSatelliteService(db *gorm.DB, catalog CatalogFactory, clock Clock, metrics *Metrics, notifier Notifier, logger *zap.Logger, quarantineTracked bool) *SatelliteService {
	return &SatelliteService{
		db:                db,
		catalog:           catalog,
		clock:             clock,
		metrics:           metrics,
		notifier:          notifier,
		log:               logger,
		quarantineTracked: quarantineTracked,
	}
}

func (s *SatelliteService) CreateReceiving(ctx context.Context, family types.OrderFamily, orderKey types.LookupKey, in ReceivingInput, actor int64) (*ReceivingView, error) {
	if family.Direction() != types.DirectionPut {
		return nil, &types.ValidationError{Field: "family", Reason: family.Label() + " has no receiving"}
	}
	endDate, err := optionalDate("quarantine_end_date", in.QuarantineEndDate)
	if err != nil {
		return nil, err
	}

	var rcv *models.Receiving
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, family, orderKey)
		if err != nil {
			return err
		}
		if err := requireOrderStatus(order, "create receiving for", types.OrderOpen); err != nil {
			return err
		}
		repo := repositories.NewReceivingRepository(tx)
		existing, err := repo.FindLiveByOrder(order.ID, true)
		if err != nil && !isNotFound(err) {
			return err
		}
		if existing != nil {
			return &types.InvalidStateError{
				Entity: order.Family.Label(), Ref: order.OrderNo, Operation: "create a second receiving for",
				Status: "receiving " + existing.ReceivingNo + " is " + string(existing.Status),
			}
		}

		no, err := repo.GenerateReceivingNo(s.clock.Now())
		if err != nil {
			return err
		}
		rcv = &models.Receiving{
			ReceivingNo:       no,
			OrderID:           order.ID,
			Family:            family,
			Status:            types.ReceivingDraft,
			QuarantineTracked: s.quarantineTracked,
			QuarantineEndDate: endDate,
			QuarantineRemark:  strings.TrimSpace(in.QuarantineRemark),
			Remarks:           strings.TrimSpace(in.Remarks),
			Audit:             models.Audit{CreatedBy: actor, UpdatedBy: actor},
		}
		return repo.Create(rcv)
	})
	if err != nil {
		s.metrics.ObserveFailure("create receiving", err)
		return nil, types.WrapUnexpected("create receiving", err)
	}
	s.log.Info("receiving created", zap.String("receiving_no", rcv.ReceivingNo), zap.Int64("actor", actor))
	view := newReceivingView(*rcv, s.clock.Now())
	return &view, nil
}

func (s *SatelliteService) GetReceiving(ctx context.Context, key types.LookupKey) (*ReceivingView, error) {
	db := s.db.WithContext(ctx)
	repo := repositories.NewReceivingRepository(db)
	rcv, err := repo.FindByKey(key, false)
	if err != nil {
		return nil, types.WrapUnexpected("get receiving", err)
	}
	if rcv.PutAways, err = repo.ListPutAways(rcv.ID); err != nil {
		return nil, types.WrapUnexpected("get receiving", err)
	}
	view := newReceivingView(*rcv, s.clock.Now())
	return &view, nil
}

// UpdateReceivingStatus applies a manual status change. The put-away statuses
// follow the lines and are never set by hand.
func (s *SatelliteService) UpdateReceivingStatus(ctx context.Context, key types.LookupKey, in ReceivingStatusInput, actor int64) (*ReceivingView, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	target, err := types.ParseReceivingStatus(in.Status)
	if err != nil {
		return nil, err
	}
	if target == types.ReceivingPutAwayStarted || target == types.ReceivingPutAwayCompleted {
		return nil, &types.ValidationError{Field: "status", Reason: string(target) + " follows the put-away movements"}
	}
	endDate, err := optionalDate("quarantine_end_date", in.QuarantineEndDate)
	if err != nil {
		return nil, err
	}

	var rcv *models.Receiving
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := repositories.NewReceivingRepository(tx)
		if rcv, err = repo.FindByKey(key, true); err != nil {
			return err
		}
		if rcv.Status == target {
			return nil
		}
		if !types.CanTransitionReceiving(rcv.Status, target) {
			return &types.InvalidStateError{
				Entity: "Receiving", Ref: rcv.ReceivingNo, Operation: "set status " + string(target) + " on",
				Status: string(rcv.Status),
			}
		}

		fields := map[string]interface{}{"status": target}
		if endDate != "" {
			fields["quarantine_end_date"] = endDate
			rcv.QuarantineEndDate = endDate
		}
		if remark := strings.TrimSpace(in.QuarantineRemark); remark != "" {
			fields["quarantine_remark"] = remark
			rcv.QuarantineRemark = remark
		}
		if target == types.ReceivingReceived {
			if rcv.QuarantineTracked && rcv.QuarantineEndDate == "" {
				return &types.ValidationError{Field: "quarantine_end_date", Reason: "is required to receive a quarantine-tracked receiving"}
			}
			now := s.clock.Now()
			fields["received_at"] = now
			rcv.ReceivedAt = &now
		}
		if err := repo.UpdateFields(rcv.ID, actor, fields); err != nil {
			return err
		}
		rcv.Status = target
		return nil
	})
	if err != nil {
		s.metrics.ObserveFailure("update receiving status", err)
		return nil, types.WrapUnexpected("update receiving status", err)
	}
	s.metrics.ObserveTransition("receiving", string(rcv.Status))
	view := newReceivingView(*rcv, s.clock.Now())
	return &view, nil
}

// CreatePutAway plans part of a line's pending quantity into a bin. Planned
// quantities across pending tasks never exceed what the line still needs.
func (s *SatelliteService) CreatePutAway(ctx context.Context, receivingKey types.LookupKey, in PutAwayInput, actor int64) (*models.PutAway, error) {
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

	var task *models.PutAway
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := repositories.NewReceivingRepository(tx)
		rcv, err := repo.FindByKey(receivingKey, true)
		if err != nil {
			return err
		}
		if err := requireReceivingStatus(rcv, "plan put-away for", types.ReceivingOpen, types.ReceivingReceived, types.ReceivingPutAwayStarted); err != nil {
			return err
		}
		line, err := repositories.NewOrderLineRepository(tx).FindByID(rcv.OrderID, lineID)
		if err != nil {
			return err
		}
		if _, err := activeBin(s.catalog(tx), binID); err != nil {
			return err
		}

		tasks, err := repo.ListPutAways(rcv.ID)
		if err != nil {
			return err
		}
		planned := decimal.Zero
		for _, t := range tasks {
			if t.OrderLineID == line.ID && t.Status == types.PutAwayPending {
				planned = planned.Add(t.Quantity)
			}
		}
		open := line.PendingQuantity.Sub(planned)
		if in.Quantity.GreaterThan(open) {
			return &types.InsufficientQuantityError{
				Item:      line.Item().String(),
				Source:    "unplanned pending quantity of line " + line.ID.String(),
				Requested: in.Quantity,
				Available: open,
			}
		}

		task = &models.PutAway{
			ReceivingID: rcv.ID,
			OrderLineID: line.ID,
			BinID:       binID,
			Quantity:    in.Quantity,
			Status:      types.PutAwayPending,
			Remarks:     strings.TrimSpace(in.Remarks),
			Audit:       models.Audit{CreatedBy: actor, UpdatedBy: actor},
		}
		return repo.CreatePutAway(task)
	})
	if err != nil {
		s.metrics.ObserveFailure("create put-away", err)
		return nil, types.WrapUnexpected("create put-away", err)
	}
	return task, nil
}

// UpdatePutAwayStatus cancels a pending task. Completion happens through a
// movement that references the task.
func (s *SatelliteService) UpdatePutAwayStatus(ctx context.Context, id types.SnowflakeID, rawStatus string, actor int64) (*models.PutAway, error) {
	target, err := types.ParsePutAwayStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	if target == types.PutAwayCompleted {
		return nil, &types.ValidationError{Field: "status", Reason: "a put-away completes by executing its movement"}
	}

	var task *models.PutAway
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := repositories.NewReceivingRepository(tx)
		if task, err = repo.FindPutAway(id, true); err != nil {
			return err
		}
		if task.Status == target {
			return nil
		}
		if !types.CanTransitionPutAway(task.Status, target) {
			return &types.InvalidStateError{
				Entity: "Put-away", Ref: task.ID.String(), Operation: "set status " + string(target) + " on",
				Status: string(task.Status), Allowed: []string{string(types.PutAwayPending)},
			}
		}
		if err := repo.UpdatePutAway(task.ID, actor, map[string]interface{}{"status": target}); err != nil {
			return err
		}
		task.Status = target
		return nil
	})
	if err != nil {
		return nil, types.WrapUnexpected("update put-away status", err)
	}
	return task, nil
}

func (s *SatelliteService) CreateShipment(ctx context.Context, family types.OrderFamily, orderKey types.LookupKey, in ShipmentInput, actor int64) (*models.Shipment, error) {
	if family.Direction() != types.DirectionPick {
		return nil, &types.ValidationError{Field: "family", Reason: family.Label() + " has no shipment"}
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	var shipment *models.Shipment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, family, orderKey)
		if err != nil {
			return err
		}
		if err := requireOrderStatus(order, "ship", types.OrderPicklistCompleted); err != nil {
			return err
		}
		repo := repositories.NewShipmentRepository(tx)
		no, err := repo.GenerateShipmentNo(s.clock.Now())
		if err != nil {
			return err
		}
		shipment = &models.Shipment{
			ShipmentNo: no,
			OrderID:    order.ID,
			Family:     family,
			Carrier:    strings.TrimSpace(in.Carrier),
			TrackingNo: strings.TrimSpace(in.TrackingNo),
			Status:     types.ShipmentDraft,
			Remarks:    strings.TrimSpace(in.Remarks),
			Audit:      models.Audit{CreatedBy: actor, UpdatedBy: actor},
		}
		return repo.Create(shipment)
	})
	if err != nil {
		s.metrics.ObserveFailure("create shipment", err)
		return nil, types.WrapUnexpected("create shipment", err)
	}
	return shipment, nil
}

// UpdateShipmentStatus moves a shipment along. Dispatching it completes the
// order.
func (s *SatelliteService) UpdateShipmentStatus(ctx context.Context, key types.LookupKey, in ShipmentStatusInput, actor int64) (*models.Shipment, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	target, err := types.ParseShipmentStatus(in.Status)
	if err != nil {
		return nil, err
	}

	var (
		shipment       *models.Shipment
		order          *models.Order
		orderCompleted bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := repositories.NewShipmentRepository(tx)
		if shipment, err = repo.FindByKey(key, true); err != nil {
			return err
		}
		if shipment.Status == target {
			return nil
		}
		if !types.CanTransitionShipment(shipment.Status, target) {
			return &types.InvalidStateError{
				Entity: "Shipment", Ref: shipment.ShipmentNo, Operation: "set status " + string(target) + " on",
				Status: string(shipment.Status),
			}
		}

		fields := map[string]interface{}{"status": target}
		if in.TrackingNo != nil {
			fields["tracking_no"] = strings.TrimSpace(*in.TrackingNo)
			shipment.TrackingNo = strings.TrimSpace(*in.TrackingNo)
		}
		now := s.clock.Now()
		switch target {
		case types.ShipmentDispatched:
			fields["dispatched_at"] = now
			shipment.DispatchedAt = &now

			if order, err = lockOrder(tx, shipment.Family, types.ByID(shipment.OrderID)); err != nil {
				return err
			}
			if order.Status == types.OrderPicklistCompleted {
				if err := checkOrderTransition(order, types.OrderCompleted); err != nil {
					return err
				}
				if err := repositories.NewOrderRepository(tx).UpdateStatus(order.ID, types.OrderCompleted, actor); err != nil {
					return err
				}
				order.Status = types.OrderCompleted
				orderCompleted = true
			}
		case types.ShipmentDelivered:
			fields["delivered_at"] = now
			shipment.DeliveredAt = &now
		}
		if err := repo.UpdateFields(shipment.ID, actor, fields); err != nil {
			return err
		}
		shipment.Status = target
		return nil
	})
	if err != nil {
		s.metrics.ObserveFailure("update shipment status", err)
		return nil, types.WrapUnexpected("update shipment status", err)
	}

	s.metrics.ObserveTransition("shipment", string(shipment.Status))
	if orderCompleted {
		s.metrics.ObserveTransition(string(order.Family), string(order.Status))
		event := PhaseEvent{Entity: order.Family.Label(), Ref: order.OrderNo, Status: order.Status.Display(), Actor: actor}
		if err := s.notifier.PhaseCompleted(event); err != nil {
			s.log.Warn("phase notification failed", zap.String("ref", event.Ref), zap.Error(err))
		}
	}
	return shipment, nil
}

func requireReceivingStatus(rcv *models.Receiving, operation string, allowed ...types.ReceivingStatus) error {
	for _, status := range allowed {
		if rcv.Status == status {
			return nil
		}
	}
	return &types.InvalidStateError{
		Entity:    "Receiving",
		Ref:       rcv.ReceivingNo,
		Operation: operation,
		Status:    string(rcv.Status),
		Allowed:   types.StatusNames(allowed),
	}
}

func optionalDate(field, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if _, err := utils.ParseDate(raw); err != nil {
		return "", &types.ValidationError{Field: field, Reason: "must be a date in YYYY-MM-DD format"}
	}
	return raw, nil
}

func isNotFound(err error) bool {
	var nf *types.NotFoundError
	return errors.As(err, &nf)
}
