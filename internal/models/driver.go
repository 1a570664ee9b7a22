package models

import (
	"time"

	"gorm.io/gorm"
)

// Driver 司机表
type Driver struct {
	ID            uint           `gorm:"primarykey" json:"id"`                 // 主键
	TransporterID uint           `gorm:"index;not null" json:"transporter_id"` // 所属承运人ID
	Name          string         `gorm:"not null" json:"name"`                 // 姓名
	Phone         string         `gorm:"index;not null" json:"phone"`          // 手机号
	LicenseNo     string         `gorm:"default:''" json:"license_no"`         // 驾驶证号
	Status        string         `gorm:"index;default:'active'" json:"status"` // 状态
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`              // 创建时间
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`              // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                       // 软删除时间
}

// TableName 指定表名
func (Driver) TableName() string {
	return "drivers"
}
