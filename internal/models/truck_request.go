package models

import (
	"time"

	"gorm.io/gorm"
)

// TruckRequest 用车单，一条记录对应订单里的一个车位。
// 状态只能从 searching 单向流转到 assigned/expired/cancelled，
// 且同一车位至多绑定一条指派记录（由条件更新保证）。
type TruckRequest struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                // 主键
	OrderID        uint           `gorm:"index;not null" json:"order_id"`                      // 所属订单ID
	Seq            int            `gorm:"not null" json:"seq"`                                 // 订单内序号（1 起）
	VehicleType    string         `gorm:"index;not null" json:"vehicle_type"`                  // 需求车型
	VehicleSubtype string         `gorm:"index;default:''" json:"vehicle_subtype"`             // 需求车型细分
	Price          Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"`  // 单车价格
	Status         string         `gorm:"index;not null" json:"status"`                        // 状态
	NotifiedIDs    UintArray      `gorm:"type:json" json:"notified_ids,omitempty"`             // 已通知承运人ID集合
	TransporterID  *uint          `gorm:"index" json:"transporter_id,omitempty"`               // 成交承运人ID
	VehicleID      *uint          `gorm:"index" json:"vehicle_id,omitempty"`                   // 成交车辆ID
	DriverID       *uint          `gorm:"index" json:"driver_id,omitempty"`                    // 成交司机ID
	TripID         string         `gorm:"index;default:''" json:"trip_id,omitempty"`           // 行程号
	AssignedAt     *time.Time     `gorm:"index" json:"assigned_at,omitempty"`                  // 成交时间
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                             // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                             // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                      // 软删除时间

	Order *Order `gorm:"foreignKey:OrderID" json:"order,omitempty"` // 所属订单
}

// TableName 指定表名
func (TruckRequest) TableName() string {
	return "truck_requests"
}
