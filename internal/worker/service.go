package worker

import (
	"context"
	"errors"
	"time"

	"github.com/huoyun-next/internal/config"
	"github.com/huoyun-next/internal/logger"
	"github.com/huoyun-next/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	defaultExpirySweepInterval   = time.Minute
	defaultPresenceSweepInterval = 2 * time.Minute
)

// Service 异步队列与周期巡检服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建 worker 服务。队列未启用时只保留周期巡检，延迟任务由巡检兜底。
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	s := &Service{
		name:     "worker",
		consumer: consumer,
	}
	if cfg != nil && cfg.Enabled {
		opt, serverCfg := queue.BuildServerConfig(cfg)
		s.server = asynq.NewServer(opt, serverCfg)
		s.mux = asynq.NewServeMux()
		consumer.Register(s.mux)
	} else {
		logger.Warnw("worker_queue_disabled", "fallback", "sweep_only")
	}
	return s, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.consumer == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer.DispatchService != nil {
		go s.runExpirySweepLoop(ctx)
	}
	if s.consumer.PresenceService != nil {
		go s.runPresenceSweepLoop(ctx)
	}
	if s.server == nil || s.mux == nil {
		<-ctx.Done()
		return nil
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runExpirySweepLoop 周期扫描到期订单。即使延迟任务丢失，订单也会在这里被关闭。
func (s *Service) runExpirySweepLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.DispatchService == nil {
		return
	}
	interval := defaultExpirySweepInterval
	if s.consumer.Config != nil && s.consumer.Config.Dispatch.ExpirySweepSeconds > 0 {
		interval = time.Duration(s.consumer.Config.Dispatch.ExpirySweepSeconds) * time.Second
	}
	runOnce := func() {
		if _, err := s.consumer.DispatchService.SweepExpired(ctx); err != nil {
			logger.Warnw("worker_expiry_sweep_failed", "error", err)
		}
	}
	runOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

// runPresenceSweepLoop 周期清理心跳过期但仍挂在在线集合里的幽灵承运人
func (s *Service) runPresenceSweepLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.PresenceService == nil {
		return
	}
	interval := defaultPresenceSweepInterval
	if s.consumer.Config != nil && s.consumer.Config.Presence.SweepSeconds > 0 {
		interval = time.Duration(s.consumer.Config.Presence.SweepSeconds) * time.Second
	}
	runOnce := func() {
		if _, err := s.consumer.PresenceService.CleanStale(ctx); err != nil {
			logger.Warnw("worker_presence_sweep_failed", "error", err)
		}
	}
	runOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
