package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/huoyun-next/internal/config"
	"github.com/huoyun-next/internal/constants"
	"github.com/huoyun-next/internal/logger"
	"github.com/huoyun-next/internal/store"
)

// Sender 外部推送通道（短信/推送服务商的适配点）
type Sender interface {
	Send(ctx context.Context, role string, id uint, event Event) error
}

// LogSender 仅落日志的推送通道，未接入服务商时的默认实现。
type LogSender struct{}

// Send 记录推送内容
func (LogSender) Send(_ context.Context, role string, id uint, event Event) error {
	logger.Infow("push_sent", "role", role, "id", id, "event", event.Event)
	return nil
}

// PushSink 尽力而为的外发推送出口：失败只记日志，不向调用方传播；
// 带 Dedupe 标识的事件经共享存储 SetNX 去重，重试风暴下同一事件只推一次。
type PushSink struct {
	store  store.Store
	sender Sender
	cfg    *config.PushConfig
}

// NewPushSink 创建推送出口
func NewPushSink(s store.Store, sender Sender, cfg *config.PushConfig) *PushSink {
	if sender == nil {
		sender = LogSender{}
	}
	return &PushSink{store: s, sender: sender, cfg: cfg}
}

// Enabled 判断是否启用
func (p *PushSink) Enabled() bool {
	return p != nil && p.cfg != nil && p.cfg.Enabled
}

func (p *PushSink) deliver(role string, id uint, event Event) {
	if !p.Enabled() {
		return
	}

	timeout := 3 * time.Second
	if p.cfg.SendTimeoutMillis > 0 {
		timeout = time.Duration(p.cfg.SendTimeoutMillis) * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if event.Dedupe != "" && p.store != nil {
		ttl := 60 * time.Second
		if p.cfg.DedupeTTLSeconds > 0 {
			ttl = time.Duration(p.cfg.DedupeTTLSeconds) * time.Second
		}
		subject := fmt.Sprintf("%s:%d:%s", role, id, event.Dedupe)
		ok, err := p.store.SetNX(ctx, store.PushDedupeKey(event.Event, subject), "1", ttl)
		if err != nil {
			// 去重失败按未推送处理，宁可重复也不丢。
			logger.Warnw("push_dedupe_failed", "key", subject, "error", err)
		} else if !ok {
			return
		}
	}

	if err := p.sender.Send(ctx, role, id, event); err != nil {
		logger.Warnw("push_send_failed", "role", role, "id", id, "event", event.Event, "error", err)
	}
}

// SendToUser 推送给货主
func (p *PushSink) SendToUser(userID uint, event Event) {
	p.deliver(constants.RoleUser, userID, event)
}

// SendToTransporter 推送给承运人
func (p *PushSink) SendToTransporter(transporterID uint, event Event) {
	p.deliver(constants.RoleTransporter, transporterID, event)
}

// BroadcastTransporters 外发通道不做全员广播，广播只走实时连接。
func (p *PushSink) BroadcastTransporters(Event) {}
