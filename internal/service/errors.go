package service

import "errors"

// 业务错误定义，处理器层按 errors.Is 映射为响应码。
var (
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = errors.New("order not found")
	// ErrUnitNotFound 用车单不存在
	ErrUnitNotFound = errors.New("truck request not found")
	// ErrUserNotFound 货主不存在
	ErrUserNotFound = errors.New("user not found")
	// ErrTransporterNotFound 承运方不存在
	ErrTransporterNotFound = errors.New("transporter not found")
	// ErrAssignmentNotFound 指派记录不存在
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrForbidden 资源归属或角色不匹配
	ErrForbidden = errors.New("no permission for this resource")
	// ErrValidation 请求参数非法
	ErrValidation = errors.New("invalid request parameters")
	// ErrVehicleMismatch 车辆与用车单车型不匹配
	ErrVehicleMismatch = errors.New("vehicle does not match the requested type")
	// ErrInvalidStatus 当前状态不允许该操作
	ErrInvalidStatus = errors.New("status does not allow this operation")
	// ErrAlreadyResolved 车位已被抢走，正常业务结果而非异常
	ErrAlreadyResolved = errors.New("unit already taken")
	// ErrRateLimited 触发频率限制
	ErrRateLimited = errors.New("too many requests")
	// ErrLockContention 同类操作正在进行中
	ErrLockContention = errors.New("operation already in progress")
)
