package service

import (
	"context"

	"github.com/huoyun-next/internal/models"
	"github.com/huoyun-next/internal/repository"
)

// GetOrder 货主订单详情（带车位明细），仅限本人订单。
func (s *DispatchService) GetOrder(ctx context.Context, orderID, userID uint) (*models.Order, error) {
	if orderID == 0 {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrders 货主订单列表
func (s *DispatchService) ListOrders(ctx context.Context, filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListByUser(filter)
}

// ListOpenUnits 承运人可接车位列表：只展示其车队覆盖车型的寻车中车位。
// 细分车型不在列表层过滤，真正的匹配在抢单时按所选车辆校验。
func (s *DispatchService) ListOpenUnits(ctx context.Context, transporterID uint, filter repository.OpenUnitListFilter) ([]models.TruckRequest, int64, error) {
	vehicles, err := s.vehicleRepo.ListByTransporter(transporterID)
	if err != nil {
		return nil, 0, err
	}
	if len(vehicles) == 0 {
		return []models.TruckRequest{}, 0, nil
	}

	fleetTypes := make([]string, 0, len(vehicles))
	seen := make(map[string]struct{}, len(vehicles))
	for _, vehicle := range vehicles {
		if _, ok := seen[vehicle.VehicleType]; ok {
			continue
		}
		seen[vehicle.VehicleType] = struct{}{}
		fleetTypes = append(fleetTypes, vehicle.VehicleType)
	}

	if len(filter.VehicleTypes) > 0 {
		// 请求方可以再收窄，但收窄不出车队能力之外
		narrowed := make([]string, 0, len(filter.VehicleTypes))
		for _, vt := range filter.VehicleTypes {
			if _, ok := seen[vt]; ok {
				narrowed = append(narrowed, vt)
			}
		}
		if len(narrowed) == 0 {
			return []models.TruckRequest{}, 0, nil
		}
		filter.VehicleTypes = narrowed
	} else {
		filter.VehicleTypes = fleetTypes
	}
	filter.WithOrder = true

	return s.truckRequestRepo.ListOpen(filter)
}

// GetUnit 车位详情（带所属订单）
func (s *DispatchService) GetUnit(ctx context.Context, truckRequestID uint) (*models.TruckRequest, error) {
	if truckRequestID == 0 {
		return nil, ErrUnitNotFound
	}
	request, err := s.truckRequestRepo.GetByIDWithOrder(truckRequestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, ErrUnitNotFound
	}
	return request, nil
}
