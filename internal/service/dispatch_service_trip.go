package service

import (
	"context"

	"github.com/huoyun-next/internal/constants"
	"github.com/huoyun-next/internal/logger"
	"github.com/huoyun-next/internal/models"
	"github.com/huoyun-next/internal/notifier"
	"github.com/huoyun-next/internal/repository"

	"gorm.io/gorm"
)

// tripTransitions 行程状态机。装货后（in_transit）不可再取消，只能走完。
var tripTransitions = map[string]map[string]bool{
	constants.AssignmentStatusPending: {
		constants.AssignmentStatusDriverAccepted: true,
		constants.AssignmentStatusCancelled:      true,
	},
	constants.AssignmentStatusDriverAccepted: {
		constants.AssignmentStatusEnRoute:   true,
		constants.AssignmentStatusCancelled: true,
	},
	constants.AssignmentStatusEnRoute: {
		constants.AssignmentStatusAtPickup:  true,
		constants.AssignmentStatusCancelled: true,
	},
	constants.AssignmentStatusAtPickup: {
		constants.AssignmentStatusInTransit: true,
		constants.AssignmentStatusCancelled: true,
	},
	constants.AssignmentStatusInTransit: {
		constants.AssignmentStatusCompleted: true,
	},
}

func isTripTransitionAllowed(current, target string) bool {
	nexts, ok := tripTransitions[current]
	if !ok {
		return false
	}
	return nexts[target]
}

// UpdateTripInput 行程状态更新参数
type UpdateTripInput struct {
	TripID        string
	TransporterID uint
	Status        string
}

// UpdateTripStatus 承运人推进行程状态。
// 同态请求幂等放行；取消与完结带各自的连带处理。
func (s *DispatchService) UpdateTripStatus(ctx context.Context, input UpdateTripInput) (*models.Assignment, error) {
	assignment, err := s.getOwnedTrip(input.TripID, input.TransporterID)
	if err != nil {
		return nil, err
	}
	if assignment.Status == input.Status {
		return assignment, nil
	}
	if !isTripTransitionAllowed(assignment.Status, input.Status) {
		return nil, ErrInvalidStatus
	}

	switch input.Status {
	case constants.AssignmentStatusCancelled:
		return s.cancelTrip(ctx, assignment)
	case constants.AssignmentStatusCompleted:
		return s.completeTrip(ctx, assignment)
	default:
		affected, err := s.assignmentRepo.TransitionStatus(assignment.ID,
			[]string{assignment.Status}, input.Status, nil)
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, ErrInvalidStatus
		}
		return s.reloadTrip(assignment.ID)
	}
}

// completeTrip 行程完结：释放车辆，全部行程跑完后把订单落成 completed。
func (s *DispatchService) completeTrip(ctx context.Context, assignment *models.Assignment) (*models.Assignment, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		affected, err := s.assignmentRepo.WithTx(tx).TransitionStatus(assignment.ID,
			[]string{constants.AssignmentStatusInTransit}, constants.AssignmentStatusCompleted, nil)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrInvalidStatus
		}
		return s.vehicleRepo.WithTx(tx).UpdateStatus(assignment.VehicleID, constants.VehicleStatusIdle)
	})
	if err != nil {
		return nil, err
	}

	s.maybeCompleteOrder(assignment.OrderID)

	logger.Infow("dispatch_trip_completed",
		"trip_id", assignment.TripID,
		"order_id", assignment.OrderID,
		"transporter_id", assignment.TransporterID,
	)
	return s.reloadTrip(assignment.ID)
}

// maybeCompleteOrder 没有在途行程也没有寻车中车位时，订单整体完结。
func (s *DispatchService) maybeCompleteOrder(orderID uint) {
	requests, err := s.truckRequestRepo.ListByOrder(orderID)
	if err != nil {
		logger.Warnw("dispatch_order_complete_check_failed", "order_id", orderID, "error", err)
		return
	}
	completedTrips := 0
	for i := range requests {
		if requests[i].Status == constants.TruckRequestStatusSearching {
			return
		}
	}

	assignments, _, err := s.assignmentRepo.List(repository.AssignmentListFilter{OrderID: orderID})
	if err != nil {
		logger.Warnw("dispatch_order_complete_check_failed", "order_id", orderID, "error", err)
		return
	}
	for i := range assignments {
		switch assignments[i].Status {
		case constants.AssignmentStatusCompleted:
			completedTrips++
		case constants.AssignmentStatusCancelled:
			// 已取消的行程不挡完结
		default:
			return
		}
	}
	if completedTrips == 0 {
		return
	}

	affected, err := s.orderRepo.TransitionStatus(orderID,
		[]string{constants.OrderStatusFullyFilled, constants.OrderStatusPartiallyFilled},
		constants.OrderStatusCompleted, nil)
	if err != nil {
		logger.Warnw("dispatch_order_complete_failed", "order_id", orderID, "error", err)
		return
	}
	if affected > 0 {
		logger.Infow("dispatch_order_completed", "order_id", orderID)
	}
}

// cancelTrip 行程取消：释放车辆；订单还开放就把车位放回重新找车，
// 订单已收口则车位随单关闭，成交历史留在指派单上。
func (s *DispatchService) cancelTrip(ctx context.Context, assignment *models.Assignment) (*models.Assignment, error) {
	reopened := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		affected, err := s.assignmentRepo.WithTx(tx).TransitionStatus(assignment.ID,
			[]string{
				constants.AssignmentStatusPending,
				constants.AssignmentStatusDriverAccepted,
				constants.AssignmentStatusEnRoute,
				constants.AssignmentStatusAtPickup,
			}, constants.AssignmentStatusCancelled, nil)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrInvalidStatus
		}

		if err := s.vehicleRepo.WithTx(tx).UpdateStatus(assignment.VehicleID, constants.VehicleStatusIdle); err != nil {
			return err
		}

		released, err := s.orderRepo.WithTx(tx).ReleaseUnit(assignment.OrderID)
		if err != nil {
			return err
		}
		if released > 0 {
			opened, err := s.truckRequestRepo.WithTx(tx).Release(assignment.TruckRequestID)
			if err != nil {
				return err
			}
			if opened == 0 {
				return ErrInvalidStatus
			}
			reopened = true
			return nil
		}

		// 回退落空说明订单已超时收口，车位随单镜像关闭不再放出
		_, err = s.truckRequestRepo.WithTx(tx).CloseUnit(assignment.TruckRequestID, constants.TruckRequestStatusExpired)
		return err
	})
	if err != nil {
		return nil, err
	}

	if reopened {
		s.reofferUnit(ctx, assignment.TruckRequestID)
	}

	logger.Infow("dispatch_trip_cancelled",
		"trip_id", assignment.TripID,
		"order_id", assignment.OrderID,
		"reopened", reopened,
	)
	return s.reloadTrip(assignment.ID)
}

// reofferUnit 车位重新放出后再走一轮扇出，并把最新进度同步给货主。
func (s *DispatchService) reofferUnit(ctx context.Context, truckRequestID uint) {
	request, err := s.truckRequestRepo.GetByIDWithOrder(truckRequestID)
	if err != nil || request == nil || request.Order == nil {
		logger.Warnw("dispatch_reoffer_load_failed", "truck_request_id", truckRequestID, "error", err)
		return
	}
	if request.Status != constants.TruckRequestStatusSearching {
		return
	}
	order := request.Order

	if s.notifier != nil {
		s.notifier.SendToUser(order.UserID, notifier.NewEvent(constants.EventUnitsRemaining, notifier.UnitsRemainingPayload{
			OrderID:        order.ID,
			TruckRequestID: request.ID,
			UnitsFilled:    order.UnitsFilled,
			TotalUnits:     order.TotalUnits,
			Remaining:      order.TotalUnits - order.UnitsFilled,
		}))
	}

	s.offerUnit(ctx, order, request)
}

// GetTrip 行程详情，仅限行程归属的承运人。
func (s *DispatchService) GetTrip(ctx context.Context, tripID string, transporterID uint) (*models.Assignment, error) {
	return s.getOwnedTrip(tripID, transporterID)
}

// ListTrips 行程列表
func (s *DispatchService) ListTrips(ctx context.Context, filter repository.AssignmentListFilter) ([]models.Assignment, int64, error) {
	return s.assignmentRepo.List(filter)
}

func (s *DispatchService) getOwnedTrip(tripID string, transporterID uint) (*models.Assignment, error) {
	if tripID == "" {
		return nil, ErrAssignmentNotFound
	}
	assignment, err := s.assignmentRepo.GetByTripID(tripID)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, ErrAssignmentNotFound
	}
	if assignment.TransporterID != transporterID {
		// 不暴露他人行程的存在
		return nil, ErrAssignmentNotFound
	}
	return assignment, nil
}

func (s *DispatchService) reloadTrip(id uint) (*models.Assignment, error) {
	fresh, err := s.assignmentRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if fresh == nil {
		return nil, ErrAssignmentNotFound
	}
	return fresh, nil
}
