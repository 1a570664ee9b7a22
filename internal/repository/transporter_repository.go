package repository

import (
	"errors"

	"github.com/huoyun-next/internal/constants"
	"github.com/huoyun-next/internal/models"

	"gorm.io/gorm"
)

// TransporterRepository 承运方数据访问接口
type TransporterRepository interface {
	GetByID(id uint) (*models.Transporter, error)
	GetByPhone(phone string) (*models.Transporter, error)
	Create(transporter *models.Transporter) error
	ListCandidateIDs(vehicleType, vehicleSubtype string) ([]uint, error)
	ListAvailableIDs(ids []uint) ([]uint, error)
	UpdateAvailable(id uint, available bool) error
}

// GormTransporterRepository GORM 实现
type GormTransporterRepository struct {
	db *gorm.DB
}

// NewTransporterRepository 创建承运方仓库
func NewTransporterRepository(db *gorm.DB) *GormTransporterRepository {
	return &GormTransporterRepository{db: db}
}

// GetByID 根据 ID 获取承运方
func (r *GormTransporterRepository) GetByID(id uint) (*models.Transporter, error) {
	var transporter models.Transporter
	if err := r.db.First(&transporter, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &transporter, nil
}

// GetByPhone 根据手机号获取承运方
func (r *GormTransporterRepository) GetByPhone(phone string) (*models.Transporter, error) {
	var transporter models.Transporter
	if err := r.db.Where("phone = ?", phone).First(&transporter).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &transporter, nil
}

// Create 创建承运方
func (r *GormTransporterRepository) Create(transporter *models.Transporter) error {
	return r.db.Create(transporter).Error
}

// ListCandidateIDs 获取具备指定车型运力且接单开关打开的承运方 ID，升序返回保证通知顺序稳定。
// 手动 JOIN 不会自动带上软删过滤，需显式排除已删除车辆。
func (r *GormTransporterRepository) ListCandidateIDs(vehicleType, vehicleSubtype string) ([]uint, error) {
	query := r.db.Model(&models.Transporter{}).
		Joins("JOIN vehicles ON vehicles.transporter_id = transporters.id").
		Where("transporters.status = ?", constants.TransporterStatusActive).
		Where("transporters.available = ?", true).
		Where("vehicles.vehicle_type = ?", vehicleType).
		Where("vehicles.deleted_at IS NULL")
	if vehicleSubtype != "" {
		query = query.Where("vehicles.vehicle_subtype = ?", vehicleSubtype)
	}

	var ids []uint
	if err := query.Distinct().Order("transporters.id ASC").Pluck("transporters.id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// ListAvailableIDs 过滤出接单开关仍打开的承运方 ID，保持入参顺序。
// Redis 在线集合不可用时的兜底判定。
func (r *GormTransporterRepository) ListAvailableIDs(ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return []uint{}, nil
	}
	var available []uint
	if err := r.db.Model(&models.Transporter{}).
		Where("id IN ?", ids).
		Where("status = ?", constants.TransporterStatusActive).
		Where("available = ?", true).
		Pluck("id", &available).Error; err != nil {
		return nil, err
	}

	keep := make(map[uint]struct{}, len(available))
	for _, id := range available {
		keep[id] = struct{}{}
	}
	ordered := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := keep[id]; ok {
			ordered = append(ordered, id)
		}
	}
	return ordered, nil
}

// UpdateAvailable 更新接单开关
func (r *GormTransporterRepository) UpdateAvailable(id uint, available bool) error {
	return r.db.Model(&models.Transporter{}).
		Where("id = ?", id).
		Update("available", available).Error
}
