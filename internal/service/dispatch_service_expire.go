package service

import (
	"context"
	"time"

	"github.com/huoyun-next/internal/constants"
	"github.com/huoyun-next/internal/logger"
	"github.com/huoyun-next/internal/models"
	"github.com/huoyun-next/internal/notifier"
	"github.com/huoyun-next/internal/store"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const expirySweepLockTTL = 30 * time.Second

// ExpireOrder 订单找车超时收口：关闭仍在寻车的车位并按进度落终态。
// 延时任务与周期巡检都会调到这里，收口由条件更新保证恰好执行一次，
// 已成交满员或已取消的订单直接放行。
func (s *DispatchService) ExpireOrder(ctx context.Context, orderID uint) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusActive && order.Status != constants.OrderStatusPartiallyFilled {
		return nil
	}
	if order.ExpiresAt != nil && order.ExpiresAt.After(time.Now()) {
		logger.Warnw("dispatch_expire_not_due", "order_id", orderID, "expires_at", order.ExpiresAt)
		return nil
	}

	done := false
	err = s.db.Transaction(func(tx *gorm.DB) error {
		affected, err := s.orderRepo.WithTx(tx).MarkExpired(orderID, time.Now())
		if err != nil {
			return err
		}
		if affected == 0 {
			// 并发收口或状态已流转，别人已经处理完
			done = true
			return nil
		}
		_, err = s.truckRequestRepo.WithTx(tx).CloseSearchingByOrder(orderID, constants.TruckRequestStatusExpired)
		return err
	})
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	fresh, err := s.orderRepo.GetByID(orderID)
	if err != nil || fresh == nil {
		logger.Warnw("dispatch_expire_reload_failed", "order_id", orderID, "error", err)
		return nil
	}
	s.notifyExpired(fresh)

	logger.Infow("dispatch_order_expired",
		"order_id", fresh.ID,
		"order_no", fresh.OrderNo,
		"units_filled", fresh.UnitsFilled,
		"total_units", fresh.TotalUnits,
	)
	return nil
}

// notifyExpired 超时收口后的通知：货主收超时结果，承运人侧广播车位下架。
func (s *DispatchService) notifyExpired(order *models.Order) {
	if s.notifier == nil {
		return
	}
	for i := range order.TruckRequests {
		request := &order.TruckRequests[i]
		if request.Status != constants.TruckRequestStatusExpired {
			continue
		}
		s.notifier.BroadcastTransporters(notifier.NewEvent(constants.EventUnitExpired, notifier.UnitExpiredPayload{
			TruckRequestID: request.ID,
			OrderID:        order.ID,
		}))
	}
	s.notifier.SendToUser(order.UserID, notifier.NewEvent(constants.EventOrderExpired, notifier.OrderExpiredPayload{
		OrderID:     order.ID,
		UnitsFilled: order.UnitsFilled,
		TotalUnits:  order.TotalUnits,
	}))
}

// SweepExpired 过期巡检：兜底处理延时任务丢失的到期订单。
// 持单飞锁逐单收口，单个订单失败不中断整轮。
func (s *DispatchService) SweepExpired(ctx context.Context) (int, error) {
	token := uuid.NewString()
	acquired, err := store.AcquireLock(ctx, s.store, store.ExpirySweepLockKey(), token, expirySweepLockTTL)
	if err != nil {
		return 0, err
	}
	if !acquired {
		return 0, nil
	}
	defer func() {
		if _, err := store.ReleaseLock(ctx, s.store, store.ExpirySweepLockKey(), token); err != nil {
			logger.Warnw("dispatch_expiry_sweep_unlock_failed", "error", err)
		}
	}()

	orders, err := s.orderRepo.ListExpirable(time.Now(), s.sweepBatch)
	if err != nil {
		return 0, err
	}

	processed := 0
	for i := range orders {
		if err := s.ExpireOrder(ctx, orders[i].ID); err != nil {
			logger.Errorw("dispatch_expiry_sweep_order_failed", "order_id", orders[i].ID, "error", err)
			continue
		}
		processed++
	}
	if processed > 0 {
		logger.Infow("dispatch_expiry_sweep_done", "processed", processed)
	}
	return processed, nil
}

// CancelOrder 货主取消订单。只有还没有任何成交的在投订单可以整单取消；
// 一旦有车位成交，订单随行程走完或到期收口，不再支持取消。
func (s *DispatchService) CancelOrder(ctx context.Context, orderID, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusActive {
		return nil, ErrInvalidStatus
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// 读检查之后有车位并发成交时，条件更新落空
		affected, err := s.orderRepo.WithTx(tx).TransitionStatus(orderID,
			[]string{constants.OrderStatusActive},
			constants.OrderStatusCancelled, nil)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrInvalidStatus
		}
		_, err = s.truckRequestRepo.WithTx(tx).CloseSearchingByOrder(orderID, constants.TruckRequestStatusCancelled)
		return err
	})
	if err != nil {
		return nil, err
	}

	fresh, err := s.orderRepo.GetByID(orderID)
	if err != nil || fresh == nil {
		logger.Warnw("dispatch_cancel_reload_failed", "order_id", orderID, "error", err)
		return order, nil
	}

	// 广播车位下架，让还开着列表的承运人及时撤掉
	if s.notifier != nil {
		for i := range fresh.TruckRequests {
			request := &fresh.TruckRequests[i]
			if request.Status != constants.TruckRequestStatusCancelled {
				continue
			}
			s.notifier.BroadcastTransporters(notifier.NewEvent(constants.EventUnitExpired, notifier.UnitExpiredPayload{
				TruckRequestID: request.ID,
				OrderID:        fresh.ID,
			}))
		}
	}

	logger.Infow("dispatch_order_cancelled",
		"order_id", fresh.ID,
		"order_no", fresh.OrderNo,
		"user_id", userID,
	)
	return fresh, nil
}
