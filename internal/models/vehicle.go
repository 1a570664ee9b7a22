package models

import (
	"time"

	"gorm.io/gorm"
)

// Vehicle 车辆表
type Vehicle struct {
	ID             uint           `gorm:"primarykey" json:"id"`                        // 主键
	TransporterID  uint           `gorm:"index;not null" json:"transporter_id"`        // 所属承运人ID
	VehicleType    string         `gorm:"index;not null" json:"vehicle_type"`          // 车型
	VehicleSubtype string         `gorm:"index;default:''" json:"vehicle_subtype"`     // 车型细分（载重/厢长等）
	RegistrationNo string         `gorm:"uniqueIndex;not null" json:"registration_no"` // 车牌号
	Status         string         `gorm:"index;default:'idle'" json:"status"`          // 车辆状态
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                     // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                     // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                              // 软删除时间
}

// TableName 指定表名
func (Vehicle) TableName() string {
	return "vehicles"
}
