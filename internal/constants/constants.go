package constants

// 订单状态常量
const (
	OrderStatusActive          = "active"
	OrderStatusPartiallyFilled = "partially_filled"
	OrderStatusFullyFilled     = "fully_filled"
	OrderStatusExpired         = "expired"
	OrderStatusCancelled       = "cancelled"
	OrderStatusCompleted       = "completed"
)

// 用车单（单台车位）状态常量
const (
	TruckRequestStatusSearching = "searching"
	TruckRequestStatusAssigned  = "assigned"
	TruckRequestStatusExpired   = "expired"
	TruckRequestStatusCancelled = "cancelled"
)

// 指派单状态常量
const (
	AssignmentStatusPending        = "pending"
	AssignmentStatusDriverAccepted = "driver_accepted"
	AssignmentStatusEnRoute        = "en_route"
	AssignmentStatusAtPickup       = "at_pickup"
	AssignmentStatusInTransit      = "in_transit"
	AssignmentStatusCompleted      = "completed"
	AssignmentStatusCancelled      = "cancelled"
)

// 车辆状态常量
const (
	VehicleStatusIdle        = "idle"
	VehicleStatusInTransit   = "in_transit"
	VehicleStatusMaintenance = "maintenance"
)

// 司机状态常量
const (
	DriverStatusActive   = "active"
	DriverStatusDisabled = "disabled"
)

// 承运人状态常量
const (
	TransporterStatusActive   = "active"
	TransporterStatusDisabled = "disabled"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 角色常量（JWT claims）
const (
	RoleUser        = "user"
	RoleTransporter = "transporter"
	RoleDriver      = "driver"
)

// 车型常量
const (
	VehicleTypeTipper    = "tipper"
	VehicleTypeContainer = "container"
	VehicleTypeTrailer   = "trailer"
	VehicleTypeTanker    = "tanker"
	VehicleTypeOpenBody  = "open_body"
)

// 实时事件常量
const (
	EventNewUnitAvailable    = "new-unit-available"
	EventTripAssigned        = "trip-assigned"
	EventUnitConfirmed       = "unit-confirmed"
	EventUnitsRemaining      = "units-remaining-update"
	EventUnitExpired         = "unit-expired"
	EventOrderExpired        = "order-expired"
	EventAvailabilityChanged = "availability-changed"
)

// 队列常量
const (
	QueueCritical  = "critical"
	QueueDefault   = "default"
	QueueBroadcast = "broadcast"

	TaskOrderExpire     = "dispatch:order_expire"
	TaskNotifyCandidate = "dispatch:notify_candidate"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "hy"
)
