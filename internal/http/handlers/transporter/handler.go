package transporter

import "github.com/huoyun-next/internal/provider"

// Handler 承运人侧接口处理器入口
// 说明：该处理器仅用于承运人看单、抢单、行程与在线状态类 API。
type Handler struct {
	*provider.Container
}

// New 创建承运人侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
