package repository

import (
	"errors"

	"github.com/huoyun-next/internal/models"

	"gorm.io/gorm"
)

// VehicleRepository 车辆数据访问接口
type VehicleRepository interface {
	GetByIDAndTransporter(id uint, transporterID uint) (*models.Vehicle, error)
	ListByTransporter(transporterID uint) ([]models.Vehicle, error)
	UpdateStatus(id uint, status string) error
	WithTx(tx *gorm.DB) *GormVehicleRepository
}

// GormVehicleRepository GORM 实现
type GormVehicleRepository struct {
	db *gorm.DB
}

// NewVehicleRepository 创建车辆仓库
func NewVehicleRepository(db *gorm.DB) *GormVehicleRepository {
	return &GormVehicleRepository{db: db}
}

// WithTx 绑定事务
func (r *GormVehicleRepository) WithTx(tx *gorm.DB) *GormVehicleRepository {
	if tx == nil {
		return r
	}
	return &GormVehicleRepository{db: tx}
}

// GetByIDAndTransporter 根据 ID 获取指定承运方名下的车辆
func (r *GormVehicleRepository) GetByIDAndTransporter(id uint, transporterID uint) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	if err := r.db.Where("transporter_id = ?", transporterID).First(&vehicle, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vehicle, nil
}

// ListByTransporter 获取承运方名下全部车辆
func (r *GormVehicleRepository) ListByTransporter(transporterID uint) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	if err := r.db.Where("transporter_id = ?", transporterID).Order("id ASC").Find(&vehicles).Error; err != nil {
		return nil, err
	}
	return vehicles, nil
}

// UpdateStatus 更新车辆状态
func (r *GormVehicleRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&models.Vehicle{}).
		Where("id = ?", id).
		Update("status", status).Error
}
