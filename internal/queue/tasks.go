package queue

import (
	"encoding/json"

	"github.com/huoyun-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderExpire 订单找车超时任务
	TaskOrderExpire = constants.TaskOrderExpire
	// TaskNotifyCandidate 候选承运人通知扇出任务
	TaskNotifyCandidate = constants.TaskNotifyCandidate
)

// OrderExpirePayload 订单找车超时任务载荷
type OrderExpirePayload struct {
	OrderID uint `json:"order_id"`
}

// NotifyCandidatePayload 候选承运人通知扇出任务载荷，一个任务携带一批候选人。
type NotifyCandidatePayload struct {
	TruckRequestID uint   `json:"truck_request_id"`
	TransporterIDs []uint `json:"transporter_ids"`
}

// NewOrderExpireTask 创建订单找车超时任务
func NewOrderExpireTask(payload OrderExpirePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderExpire, body), nil
}

// NewNotifyCandidateTask 创建候选承运人通知扇出任务
func NewNotifyCandidateTask(payload NotifyCandidatePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotifyCandidate, body), nil
}
