package repository

import (
	"errors"
	"time"

	"github.com/huoyun-next/internal/constants"
	"github.com/huoyun-next/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order, requests []models.TruckRequest) error
	GetByID(id uint) (*models.Order, error)
	GetByIDAndUser(id uint, userID uint) (*models.Order, error)
	ListByUser(filter OrderListFilter) ([]models.Order, int64, error)
	ListExpirable(now time.Time, limit int) ([]models.Order, error)
	UpdateStatus(id uint, status string, updates map[string]interface{}) error
	TransitionStatus(id uint, fromStatuses []string, status string, updates map[string]interface{}) (int64, error)
	FillUnit(id uint) (int64, error)
	ReleaseUnit(id uint) (int64, error)
	MarkExpired(id uint, expiredAt time.Time) (int64, error)
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

func (r *GormOrderRepository) withRequests(query *gorm.DB) *gorm.DB {
	return query.Preload("TruckRequests")
}

// Create 创建订单与逐车次的运力需求
func (r *GormOrderRepository) Create(order *models.Order, requests []models.TruckRequest) error {
	if err := r.db.Create(order).Error; err != nil {
		return err
	}
	for i := range requests {
		requests[i].OrderID = order.ID
	}
	if len(requests) > 0 {
		if err := r.db.Create(&requests).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetByID 根据 ID 获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	query := r.withRequests(r.db)
	if err := query.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDAndUser 根据 ID 获取指定用户的订单
func (r *GormOrderRepository) GetByIDAndUser(id uint, userID uint) (*models.Order, error) {
	var order models.Order
	query := r.withRequests(r.db)
	if err := query.Where("user_id = ?", userID).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ListByUser 用户订单列表
func (r *GormOrderRepository) ListByUser(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})

	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OrderNo != "" {
		query = query.Where("order_no = ?", filter.OrderNo)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Scopes(paginate(filter.Page, filter.PageSize))
	if filter.WithRequests {
		query = r.withRequests(query)
	}

	var orders []models.Order
	if err := query.Order("id DESC").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListExpirable 获取已到截止时间、仍在进行中且未收口的订单，供过期巡检批量处理。
// 部分成交后超时的订单状态仍是 partially_filled，靠 expired_at 把它挡在下一轮之外。
func (r *GormOrderRepository) ListExpirable(now time.Time, limit int) ([]models.Order, error) {
	query := r.db.
		Where("status IN ?", []string{constants.OrderStatusActive, constants.OrderStatusPartiallyFilled}).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Where("expired_at IS NULL").
		Order("expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus 更新订单状态
func (r *GormOrderRepository) UpdateStatus(id uint, status string, updates map[string]interface{}) error {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = status
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

// TransitionStatus 条件更新订单状态，仅当当前状态在 fromStatuses 内时生效。
// 返回受影响行数，0 表示订单已被并发流转走。
func (r *GormOrderRepository) TransitionStatus(id uint, fromStatuses []string, status string, updates map[string]interface{}) (int64, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = status
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND status IN ?", id, fromStatuses).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// FillUnit 累加一个已成交车次并按进度刷新订单状态。
// SET 子句读取旧值，units_filled + 1 与 total_units 的比较发生在同一条语句内；
// 仅对进行中的订单生效，返回受影响行数。
func (r *GormOrderRepository) FillUnit(id uint) (int64, error) {
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND status IN ?", id, []string{constants.OrderStatusActive, constants.OrderStatusPartiallyFilled}).
		Updates(map[string]interface{}{
			"units_filled": gorm.Expr("units_filled + 1"),
			"status": gorm.Expr("CASE WHEN units_filled + 1 >= total_units THEN ? ELSE ? END",
				constants.OrderStatusFullyFilled, constants.OrderStatusPartiallyFilled),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ReleaseUnit 回退一个已成交车次（行程被取消）。
// 仅对未收口的进行中订单生效，进度与状态在同一条语句内回算；
// 已取消或已超时收口的订单不再回退，返回受影响行数 0。
func (r *GormOrderRepository) ReleaseUnit(id uint) (int64, error) {
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND units_filled > 0 AND expired_at IS NULL AND status IN ?",
			id, []string{constants.OrderStatusPartiallyFilled, constants.OrderStatusFullyFilled}).
		Updates(map[string]interface{}{
			"units_filled": gorm.Expr("units_filled - 1"),
			"status": gorm.Expr("CASE WHEN units_filled - 1 <= 0 THEN ? ELSE ? END",
				constants.OrderStatusActive, constants.OrderStatusPartiallyFilled),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// MarkExpired 订单找车超时收口：有成交车次的落 partially_filled，
// 一辆未成的落 expired，判定在同一条语句内完成。
// 仅对进行中且未收口的订单生效，重复调用受影响行数为 0。
func (r *GormOrderRepository) MarkExpired(id uint, expiredAt time.Time) (int64, error) {
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND status IN ? AND expired_at IS NULL",
			id, []string{constants.OrderStatusActive, constants.OrderStatusPartiallyFilled}).
		Updates(map[string]interface{}{
			"status": gorm.Expr("CASE WHEN units_filled > 0 THEN ? ELSE ? END",
				constants.OrderStatusPartiallyFilled, constants.OrderStatusExpired),
			"expired_at": expiredAt,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
