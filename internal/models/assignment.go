package models

import (
	"time"

	"gorm.io/gorm"
)

// Assignment 指派单表：车位每次成交各落一条记录。行程取消后记录保留，
// 车位重新放出再成交时另起新行，同一车位同一时刻至多一条在途指派，
// 由用车单上的条件更新串行化保证。
type Assignment struct {
	ID             uint           `gorm:"primarykey" json:"id"`                        // 主键
	OrderID        uint           `gorm:"index;not null" json:"order_id"`              // 所属订单ID
	TruckRequestID uint           `gorm:"index;not null" json:"truck_request_id"`      // 用车单ID
	TransporterID  uint           `gorm:"index;not null" json:"transporter_id"`        // 承运人ID
	VehicleID      uint           `gorm:"index;not null" json:"vehicle_id"`            // 车辆ID
	DriverID       uint           `gorm:"index;not null" json:"driver_id"`             // 司机ID
	TripID         string         `gorm:"uniqueIndex;not null" json:"trip_id"`         // 行程号
	Status         string         `gorm:"index;not null" json:"status"`                // 行程状态
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                     // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                     // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                              // 软删除时间
}

// TableName 指定表名
func (Assignment) TableName() string {
	return "assignments"
}
