package repository

import "time"

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page         int
	PageSize     int
	UserID       uint
	Status       string
	OrderNo      string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	WithRequests bool
}

// OpenUnitListFilter 查询可接运力需求列表的过滤条件
type OpenUnitListFilter struct {
	Page         int
	PageSize     int
	VehicleTypes []string
	OrderID      uint
	WithOrder    bool
}

// AssignmentListFilter 查询运单列表的过滤条件
type AssignmentListFilter struct {
	Page          int
	PageSize      int
	OrderID       uint
	TransporterID uint
	Status        string
}
