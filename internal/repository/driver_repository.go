package repository

import (
	"errors"

	"github.com/huoyun-next/internal/models"

	"gorm.io/gorm"
)

// DriverRepository 司机数据访问接口
type DriverRepository interface {
	GetByIDAndTransporter(id uint, transporterID uint) (*models.Driver, error)
}

// GormDriverRepository GORM 实现
type GormDriverRepository struct {
	db *gorm.DB
}

// NewDriverRepository 创建司机仓库
func NewDriverRepository(db *gorm.DB) *GormDriverRepository {
	return &GormDriverRepository{db: db}
}

// GetByIDAndTransporter 根据 ID 获取指定承运方名下的司机。
// 司机归属即抢单资格，跨承运方的 ID 一律视为不存在。
func (r *GormDriverRepository) GetByIDAndTransporter(id uint, transporterID uint) (*models.Driver, error) {
	var driver models.Driver
	if err := r.db.Where("transporter_id = ?", transporterID).First(&driver, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &driver, nil
}
