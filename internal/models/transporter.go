package models

import (
	"time"

	"gorm.io/gorm"
)

// Transporter 承运人表
type Transporter struct {
	ID          uint           `gorm:"primarykey" json:"id"`                 // 主键
	Phone       string         `gorm:"uniqueIndex;not null" json:"phone"`    // 手机号
	Name        string         `gorm:"default:''" json:"name"`               // 联系人姓名
	CompanyName string         `gorm:"default:''" json:"company_name"`       // 公司名称
	Available   bool           `gorm:"index;default:false" json:"available"` // 接单开关（持久化的在线意愿，作为共享存储不可用时的兜底）
	Status      string         `gorm:"default:'active'" json:"status"`       // 账号状态
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`              // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`              // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                       // 软删除时间

	Vehicles []Vehicle `gorm:"foreignKey:TransporterID" json:"vehicles,omitempty"` // 名下车辆
	Drivers  []Driver  `gorm:"foreignKey:TransporterID" json:"drivers,omitempty"`  // 名下司机
}

// TableName 指定表名
func (Transporter) TableName() string {
	return "transporters"
}
