package app

import (
	"context"

	"github.com/huoyun-next/internal/notifier"
)

// HubService 推送中枢生命周期封装：随进程退出关闭全部长连接。
type HubService struct {
	hub *notifier.Hub
}

// NewHubService 创建推送中枢服务
func NewHubService(hub *notifier.Hub) *HubService {
	return &HubService{hub: hub}
}

// Name 服务名称
func (s *HubService) Name() string {
	return "notifier_hub"
}

// Start 阻塞运行直到 ctx 结束
func (s *HubService) Start(ctx context.Context) error {
	if s == nil || s.hub == nil {
		<-ctx.Done()
		return nil
	}
	s.hub.Run(ctx)
	return nil
}

// Stop 停止（连接关闭已在 Run 退出路径完成）
func (s *HubService) Stop(ctx context.Context) error {
	return nil
}
