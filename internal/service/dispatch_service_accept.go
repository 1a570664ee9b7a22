package service

import (
	"context"
	"fmt"
	"time"

	"github.com/huoyun-next/internal/constants"
	"github.com/huoyun-next/internal/logger"
	"github.com/huoyun-next/internal/models"
	"github.com/huoyun-next/internal/notifier"
	"github.com/huoyun-next/internal/repository"

	"gorm.io/gorm"
)

// AcceptUnitInput 抢单参数
type AcceptUnitInput struct {
	TruckRequestID uint
	TransporterID  uint
	VehicleID      uint
	DriverID       uint
}

// AcceptUnitResult 抢单结果。AlreadyResolved 表示车位已被别人抢走，
// 属于正常并发结局而不是错误。
type AcceptUnitResult struct {
	AlreadyResolved bool                 `json:"already_resolved"`
	TruckRequest    *models.TruckRequest `json:"truck_request,omitempty"`
	Assignment      *models.Assignment   `json:"assignment,omitempty"`
}

// AcceptUnit 承运人抢单。
// 胜负只由用车单上的一条条件更新裁决：同一车位的并发请求恰有一个
// 改写成功，其余受影响行数为 0，各自拿到 already_resolved。
// 指派单、订单进度、车辆占用与抢单写入同一事务，要么全成要么全退。
func (s *DispatchService) AcceptUnit(ctx context.Context, input AcceptUnitInput) (*AcceptUnitResult, error) {
	if input.TruckRequestID == 0 || input.TransporterID == 0 || input.VehicleID == 0 || input.DriverID == 0 {
		return nil, ErrValidation
	}

	transporter, err := s.transporterRepo.GetByID(input.TransporterID)
	if err != nil {
		return nil, err
	}
	if transporter == nil {
		return nil, ErrTransporterNotFound
	}
	if transporter.Status != constants.TransporterStatusActive {
		return nil, ErrForbidden
	}

	request, err := s.truckRequestRepo.GetByIDWithOrder(input.TruckRequestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, ErrUnitNotFound
	}
	if request.Order == nil {
		return nil, ErrOrderNotFound
	}
	if request.Status != constants.TruckRequestStatusSearching {
		return s.resolveLostAccept(request.ID)
	}

	vehicle, err := s.vehicleRepo.GetByIDAndTransporter(input.VehicleID, input.TransporterID)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, ErrVehicleMismatch
	}
	if vehicle.VehicleType != request.VehicleType {
		return nil, ErrVehicleMismatch
	}
	if request.VehicleSubtype != "" && vehicle.VehicleSubtype != request.VehicleSubtype {
		return nil, ErrVehicleMismatch
	}
	if vehicle.Status != constants.VehicleStatusIdle {
		return nil, ErrInvalidStatus
	}

	driver, err := s.driverRepo.GetByIDAndTransporter(input.DriverID, input.TransporterID)
	if err != nil {
		return nil, err
	}
	if driver == nil || driver.Status != constants.DriverStatusActive {
		return nil, ErrValidation
	}

	now := time.Now()
	tripID := generateTripID()
	assignment := &models.Assignment{
		OrderID:        request.OrderID,
		TruckRequestID: request.ID,
		TransporterID:  input.TransporterID,
		VehicleID:      input.VehicleID,
		DriverID:       input.DriverID,
		TripID:         tripID,
		Status:         constants.AssignmentStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	lost := false
	err = s.db.Transaction(func(tx *gorm.DB) error {
		affected, err := s.truckRequestRepo.WithTx(tx).Assign(request.ID, repository.AssignParams{
			TransporterID: input.TransporterID,
			VehicleID:     input.VehicleID,
			DriverID:      input.DriverID,
			TripID:        tripID,
			AssignedAt:    now,
		})
		if err != nil {
			return err
		}
		if affected == 0 {
			// 输掉竞争，事务内尚无任何写入，直接放行
			lost = true
			return nil
		}

		if err := s.assignmentRepo.WithTx(tx).Create(assignment); err != nil {
			return err
		}

		filled, err := s.orderRepo.WithTx(tx).FillUnit(request.OrderID)
		if err != nil {
			return err
		}
		if filled == 0 {
			// 订单已被取消或收口，回滚放弃本次成交
			return ErrInvalidStatus
		}

		return s.vehicleRepo.WithTx(tx).UpdateStatus(input.VehicleID, constants.VehicleStatusInTransit)
	})
	if err != nil {
		return nil, err
	}
	if lost {
		return s.resolveLostAccept(request.ID)
	}

	fresh, err := s.truckRequestRepo.GetByIDWithOrder(request.ID)
	if err != nil || fresh == nil || fresh.Order == nil {
		logger.Warnw("dispatch_accept_reload_failed", "truck_request_id", request.ID, "error", err)
		fresh = request
	}
	s.notifyAccepted(fresh, assignment)

	logger.Infow("dispatch_unit_accepted",
		"order_id", request.OrderID,
		"truck_request_id", request.ID,
		"transporter_id", input.TransporterID,
		"trip_id", tripID,
	)
	return &AcceptUnitResult{TruckRequest: fresh, Assignment: assignment}, nil
}

// resolveLostAccept 给输掉竞争的一方定性：车位被抢走返回 already_resolved，
// 被过期或取消关闭则按状态错误处理。
func (s *DispatchService) resolveLostAccept(truckRequestID uint) (*AcceptUnitResult, error) {
	fresh, err := s.truckRequestRepo.GetByIDWithOrder(truckRequestID)
	if err != nil {
		return nil, err
	}
	if fresh == nil {
		return nil, ErrUnitNotFound
	}
	if fresh.Status == constants.TruckRequestStatusAssigned {
		return &AcceptUnitResult{AlreadyResolved: true, TruckRequest: fresh}, nil
	}
	return nil, ErrInvalidStatus
}

// notifyAccepted 成交后的三路通知：承运人收行程、货主收成交、全网收进度。
func (s *DispatchService) notifyAccepted(request *models.TruckRequest, assignment *models.Assignment) {
	if s.notifier == nil || request.Order == nil {
		return
	}
	order := request.Order

	s.notifier.SendToTransporter(assignment.TransporterID, notifier.NewEvent(constants.EventTripAssigned, notifier.TripAssignedPayload{
		TripID:         assignment.TripID,
		TruckRequestID: request.ID,
		OrderID:        order.ID,
		TransporterID:  assignment.TransporterID,
		VehicleID:      assignment.VehicleID,
		DriverID:       assignment.DriverID,
		PickupLocation: order.PickupLocation,
		DropLocation:   order.DropLocation,
		Price:          request.Price,
	}).WithDedupe(fmt.Sprintf("trip:%s", assignment.TripID)))

	s.notifier.SendToUser(order.UserID, notifier.NewEvent(constants.EventUnitConfirmed, notifier.UnitConfirmedPayload{
		OrderID:        order.ID,
		TruckRequestID: request.ID,
		Seq:            request.Seq,
		TransporterID:  assignment.TransporterID,
		UnitsFilled:    order.UnitsFilled,
		TotalUnits:     order.TotalUnits,
	}))

	s.notifier.BroadcastTransporters(notifier.NewEvent(constants.EventUnitsRemaining, notifier.UnitsRemainingPayload{
		OrderID:        order.ID,
		TruckRequestID: request.ID,
		UnitsFilled:    order.UnitsFilled,
		TotalUnits:     order.TotalUnits,
		Remaining:      order.TotalUnits - order.UnitsFilled,
	}))
}
