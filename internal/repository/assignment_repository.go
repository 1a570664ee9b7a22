package repository

import (
	"errors"

	"github.com/huoyun-next/internal/models"

	"gorm.io/gorm"
)

// AssignmentRepository 指派记录数据访问接口
type AssignmentRepository interface {
	Create(assignment *models.Assignment) error
	GetByID(id uint) (*models.Assignment, error)
	GetByTripID(tripID string) (*models.Assignment, error)
	List(filter AssignmentListFilter) ([]models.Assignment, int64, error)
	TransitionStatus(id uint, fromStatuses []string, status string, updates map[string]interface{}) (int64, error)
	WithTx(tx *gorm.DB) *GormAssignmentRepository
}

// GormAssignmentRepository GORM 实现
type GormAssignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository 创建指派记录仓库
func NewAssignmentRepository(db *gorm.DB) *GormAssignmentRepository {
	return &GormAssignmentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAssignmentRepository) WithTx(tx *gorm.DB) *GormAssignmentRepository {
	if tx == nil {
		return r
	}
	return &GormAssignmentRepository{db: tx}
}

// Create 创建指派记录
func (r *GormAssignmentRepository) Create(assignment *models.Assignment) error {
	return r.db.Create(assignment).Error
}

// GetByID 根据 ID 获取指派记录
func (r *GormAssignmentRepository) GetByID(id uint) (*models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.First(&assignment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &assignment, nil
}

// GetByTripID 根据行程号获取指派记录
func (r *GormAssignmentRepository) GetByTripID(tripID string) (*models.Assignment, error) {
	if tripID == "" {
		return nil, nil
	}
	var assignment models.Assignment
	if err := r.db.Where("trip_id = ?", tripID).First(&assignment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &assignment, nil
}

// List 指派记录列表
func (r *GormAssignmentRepository) List(filter AssignmentListFilter) ([]models.Assignment, int64, error) {
	query := r.db.Model(&models.Assignment{})

	if filter.OrderID > 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.TransporterID > 0 {
		query = query.Where("transporter_id = ?", filter.TransporterID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Scopes(paginate(filter.Page, filter.PageSize))

	var assignments []models.Assignment
	if err := query.Order("id DESC").Find(&assignments).Error; err != nil {
		return nil, 0, err
	}
	return assignments, total, nil
}

// TransitionStatus 条件更新行程状态，仅当当前状态在 fromStatuses 内时生效。
func (r *GormAssignmentRepository) TransitionStatus(id uint, fromStatuses []string, status string, updates map[string]interface{}) (int64, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = status
	result := r.db.Model(&models.Assignment{}).
		Where("id = ? AND status IN ?", id, fromStatuses).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
