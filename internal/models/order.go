package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 用车订单表
type Order struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                  // 主键
	OrderNo        string         `gorm:"uniqueIndex;not null" json:"order_no"`                  // 订单编号
	UserID         uint           `gorm:"index;not null" json:"user_id"`                         // 货主用户ID
	PickupLocation string         `gorm:"not null" json:"pickup_location"`                       // 装货地
	DropLocation   string         `gorm:"not null" json:"drop_location"`                         // 卸货地
	DistanceKm     float64        `gorm:"not null;default:0" json:"distance_km"`                 // 运距（公里）
	TotalUnits     int            `gorm:"not null;default:0" json:"total_units"`                 // 总车位数
	UnitsFilled    int            `gorm:"not null;default:0" json:"units_filled"`                // 已成交车位数
	TotalPrice     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"` // 总价
	Status         string         `gorm:"index;not null" json:"status"`                          // 订单状态
	Note           string         `gorm:"default:''" json:"note"`                                // 备注
	ExpiresAt      *time.Time     `gorm:"index" json:"expires_at"`                               // 找车截止时间
	ExpiredAt      *time.Time     `json:"expired_at,omitempty"`                                  // 超时收口时间，非空表示已处理过
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                               // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                               // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                        // 软删除时间

	TruckRequests []TruckRequest `gorm:"foreignKey:OrderID" json:"truck_requests,omitempty"` // 车位明细
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
