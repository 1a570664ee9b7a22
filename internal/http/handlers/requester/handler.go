package requester

import "github.com/huoyun-next/internal/provider"

// Handler 货主侧接口处理器入口
// 说明：该处理器仅用于货主发单、查单、撤单类 API。
type Handler struct {
	*provider.Container
}

// New 创建货主侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
