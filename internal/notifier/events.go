package notifier

import (
	"time"

	"github.com/huoyun-next/internal/models"
)

// Event 推送给客户端的实时消息信封。
// 实时通道尽力而为（at-most-once），消费方需容忍丢失与重复。
// Dedupe 标识同一业务事件，外发推送按它去重，不参与序列化。
type Event struct {
	Event  string      `json:"event"`
	Data   interface{} `json:"data"`
	Ts     int64       `json:"ts"`
	Dedupe string      `json:"-"`
}

// NewEvent 创建实时消息
func NewEvent(name string, data interface{}) Event {
	return Event{Event: name, Data: data, Ts: time.Now().Unix()}
}

// WithDedupe 设置业务去重标识
func (e Event) WithDedupe(key string) Event {
	e.Dedupe = key
	return e
}

// UnitAvailablePayload 新车位可接载荷（发给候选承运人）
type UnitAvailablePayload struct {
	TruckRequestID uint         `json:"truck_request_id"`
	OrderID        uint         `json:"order_id"`
	VehicleType    string       `json:"vehicle_type"`
	VehicleSubtype string       `json:"vehicle_subtype,omitempty"`
	PickupLocation string       `json:"pickup_location"`
	DropLocation   string       `json:"drop_location"`
	DistanceKm     float64      `json:"distance_km"`
	Price          models.Money `json:"price"`
	ExpiresAt      *time.Time   `json:"expires_at,omitempty"`
}

// TripAssignedPayload 行程指派载荷（发给成交承运人）
type TripAssignedPayload struct {
	TripID         string       `json:"trip_id"`
	TruckRequestID uint         `json:"truck_request_id"`
	OrderID        uint         `json:"order_id"`
	TransporterID  uint         `json:"transporter_id"`
	VehicleID      uint         `json:"vehicle_id"`
	DriverID       uint         `json:"driver_id"`
	PickupLocation string       `json:"pickup_location"`
	DropLocation   string       `json:"drop_location"`
	Price          models.Money `json:"price"`
}

// UnitConfirmedPayload 车位成交载荷（发给货主）
type UnitConfirmedPayload struct {
	OrderID        uint `json:"order_id"`
	TruckRequestID uint `json:"truck_request_id"`
	Seq            int  `json:"seq"`
	TransporterID  uint `json:"transporter_id"`
	UnitsFilled    int  `json:"units_filled"`
	TotalUnits     int  `json:"total_units"`
}

// UnitsRemainingPayload 剩余车位载荷（发给货主并广播给承运人，便于下架失效车位）
type UnitsRemainingPayload struct {
	OrderID        uint `json:"order_id"`
	TruckRequestID uint `json:"truck_request_id"`
	UnitsFilled    int  `json:"units_filled"`
	TotalUnits     int  `json:"total_units"`
	Remaining      int  `json:"remaining"`
}

// UnitExpiredPayload 车位过期载荷
type UnitExpiredPayload struct {
	TruckRequestID uint `json:"truck_request_id"`
	OrderID        uint `json:"order_id"`
}

// OrderExpiredPayload 订单找车超时载荷（发给货主）
type OrderExpiredPayload struct {
	OrderID     uint `json:"order_id"`
	UnitsFilled int  `json:"units_filled"`
	TotalUnits  int  `json:"total_units"`
}

// AvailabilityChangedPayload 接单开关变更载荷
type AvailabilityChangedPayload struct {
	TransporterID uint `json:"transporter_id"`
	Available     bool `json:"available"`
}
