package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/huoyun-next/internal/logger"
	"github.com/huoyun-next/internal/provider"
	"github.com/huoyun-next/internal/queue"
	"github.com/huoyun-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderExpire, c.handleOrderExpire)
	mux.HandleFunc(queue.TaskNotifyCandidate, c.handleNotifyCandidate)
}

func (c *Consumer) handleOrderExpire(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_expire_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderExpirePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_expire_unmarshal_failed", "error", err)
		// 负载损坏重试也无法恢复，直接归档
		return fmt.Errorf("unmarshal order expire payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_expire_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.DispatchService == nil {
		logger.Warnw("worker_order_expire_skip_dispatch_service_nil", "order_id", payload.OrderID)
		return nil
	}
	if err := c.DispatchService.ExpireOrder(ctx, payload.OrderID); err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			logger.Debugw("worker_order_expire_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		default:
			logger.Warnw("worker_order_expire_failed", "order_id", payload.OrderID, "error", err)
			return err
		}
	}
	return nil
}

func (c *Consumer) handleNotifyCandidate(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_notify_candidate_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.NotifyCandidatePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_notify_candidate_unmarshal_failed", "error", err)
		return fmt.Errorf("unmarshal notify candidate payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.TruckRequestID == 0 {
		logger.Debugw("worker_notify_candidate_skip_invalid_payload", "truck_request_id", payload.TruckRequestID)
		return nil
	}
	if len(payload.TransporterIDs) == 0 {
		logger.Debugw("worker_notify_candidate_skip_empty_targets", "truck_request_id", payload.TruckRequestID)
		return nil
	}
	if c.DispatchService == nil {
		logger.Warnw("worker_notify_candidate_skip_dispatch_service_nil", "truck_request_id", payload.TruckRequestID)
		return nil
	}
	if err := c.DispatchService.NotifyUnit(ctx, payload.TruckRequestID, payload.TransporterIDs); err != nil {
		switch {
		// 用车单已被接走或订单已结束，扇出自然作废
		case errors.Is(err, service.ErrUnitNotFound):
			logger.Debugw("worker_notify_candidate_skip_unit_not_found", "truck_request_id", payload.TruckRequestID)
			return nil
		case errors.Is(err, service.ErrOrderNotFound):
			logger.Debugw("worker_notify_candidate_skip_order_not_found", "truck_request_id", payload.TruckRequestID)
			return nil
		default:
			logger.Warnw("worker_notify_candidate_failed", "truck_request_id", payload.TruckRequestID, "error", err)
			return err
		}
	}
	return nil
}
