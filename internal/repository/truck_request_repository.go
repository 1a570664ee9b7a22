package repository

import (
	"errors"
	"time"

	"github.com/huoyun-next/internal/constants"
	"github.com/huoyun-next/internal/models"

	"gorm.io/gorm"
)

// TruckRequestRepository 用车单数据访问接口
type TruckRequestRepository interface {
	GetByID(id uint) (*models.TruckRequest, error)
	GetByIDWithOrder(id uint) (*models.TruckRequest, error)
	ListByOrder(orderID uint) ([]models.TruckRequest, error)
	ListOpen(filter OpenUnitListFilter) ([]models.TruckRequest, int64, error)
	Assign(id uint, assignment AssignParams) (int64, error)
	Release(id uint) (int64, error)
	CloseUnit(id uint, status string) (int64, error)
	CloseSearchingByOrder(orderID uint, status string) (int64, error)
	UpdateNotified(id uint, notified models.UintArray) error
	WithTx(tx *gorm.DB) *GormTruckRequestRepository
}

// AssignParams 成交写入的承运信息
type AssignParams struct {
	TransporterID uint
	VehicleID     uint
	DriverID      uint
	TripID        string
	AssignedAt    time.Time
}

// GormTruckRequestRepository GORM 实现
type GormTruckRequestRepository struct {
	db *gorm.DB
}

// NewTruckRequestRepository 创建用车单仓库
func NewTruckRequestRepository(db *gorm.DB) *GormTruckRequestRepository {
	return &GormTruckRequestRepository{db: db}
}

// WithTx 绑定事务
func (r *GormTruckRequestRepository) WithTx(tx *gorm.DB) *GormTruckRequestRepository {
	if tx == nil {
		return r
	}
	return &GormTruckRequestRepository{db: tx}
}

// GetByID 根据 ID 获取用车单
func (r *GormTruckRequestRepository) GetByID(id uint) (*models.TruckRequest, error) {
	var request models.TruckRequest
	if err := r.db.First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// GetByIDWithOrder 根据 ID 获取用车单并带出所属订单
func (r *GormTruckRequestRepository) GetByIDWithOrder(id uint) (*models.TruckRequest, error) {
	var request models.TruckRequest
	if err := r.db.Preload("Order").First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// ListByOrder 按订单获取全部用车单，按订单内序号排序。
func (r *GormTruckRequestRepository) ListByOrder(orderID uint) ([]models.TruckRequest, error) {
	var requests []models.TruckRequest
	if err := r.db.Where("order_id = ?", orderID).Order("seq ASC").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// ListOpen 获取仍在寻车中的用车单，可按车型集合过滤。
func (r *GormTruckRequestRepository) ListOpen(filter OpenUnitListFilter) ([]models.TruckRequest, int64, error) {
	query := r.db.Model(&models.TruckRequest{}).
		Where("status = ?", constants.TruckRequestStatusSearching)

	if len(filter.VehicleTypes) > 0 {
		query = query.Where("vehicle_type IN ?", filter.VehicleTypes)
	}
	if filter.OrderID > 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Scopes(paginate(filter.Page, filter.PageSize))
	if filter.WithOrder {
		query = query.Preload("Order")
	}

	var requests []models.TruckRequest
	if err := query.Order("id DESC").Find(&requests).Error; err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

// Assign 以单条条件更新完成抢单成交：仅当用车单仍处于 searching 时写入承运信息并置为 assigned。
// 返回受影响行数，0 表示该车位已被并发抢走或已关闭，调用方据此回滚。
func (r *GormTruckRequestRepository) Assign(id uint, assignment AssignParams) (int64, error) {
	if id == 0 || assignment.TransporterID == 0 {
		return 0, errors.New("invalid assign params")
	}
	result := r.db.Model(&models.TruckRequest{}).
		Where("id = ? AND status = ?", id, constants.TruckRequestStatusSearching).
		Updates(map[string]interface{}{
			"status":         constants.TruckRequestStatusAssigned,
			"transporter_id": assignment.TransporterID,
			"vehicle_id":     assignment.VehicleID,
			"driver_id":      assignment.DriverID,
			"trip_id":        assignment.TripID,
			"assigned_at":    assignment.AssignedAt,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Release 把已成交的用车单放回寻车中（行程被取消且订单仍开放）。
// 清空承运信息重新放出，历史留在指派单里。
func (r *GormTruckRequestRepository) Release(id uint) (int64, error) {
	result := r.db.Model(&models.TruckRequest{}).
		Where("id = ? AND status = ?", id, constants.TruckRequestStatusAssigned).
		Updates(map[string]interface{}{
			"status":         constants.TruckRequestStatusSearching,
			"transporter_id": nil,
			"vehicle_id":     nil,
			"driver_id":      nil,
			"trip_id":        "",
			"assigned_at":    nil,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CloseUnit 关闭已成交的用车单（行程取消但订单已收口，不再放回）。
// 保留承运信息供查证。
func (r *GormTruckRequestRepository) CloseUnit(id uint, status string) (int64, error) {
	result := r.db.Model(&models.TruckRequest{}).
		Where("id = ? AND status = ?", id, constants.TruckRequestStatusAssigned).
		Updates(map[string]interface{}{"status": status})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CloseSearchingByOrder 批量关闭订单下仍在寻车中的用车单（过期或取消）。
func (r *GormTruckRequestRepository) CloseSearchingByOrder(orderID uint, status string) (int64, error) {
	result := r.db.Model(&models.TruckRequest{}).
		Where("order_id = ? AND status = ?", orderID, constants.TruckRequestStatusSearching).
		Updates(map[string]interface{}{"status": status})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// UpdateNotified 记录已通知的承运人集合
func (r *GormTruckRequestRepository) UpdateNotified(id uint, notified models.UintArray) error {
	return r.db.Model(&models.TruckRequest{}).
		Where("id = ?", id).
		Update("notified_ids", notified).Error
}
