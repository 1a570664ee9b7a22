package realtime

import (
	"net/http"

	handlershared "github.com/huoyun-next/internal/http/handlers/shared"
	"github.com/huoyun-next/internal/http/response"
	"github.com/huoyun-next/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Handler 实时通道处理器：把鉴权后的长连接挂进推送中枢。
type Handler struct {
	*provider.Container
}

// New 创建实时通道处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

// 鉴权由 JWT 中间件完成，升级阶段不再按 Origin 拦截。
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Serve 将请求升级为 websocket 并注册到推送中枢。
// 同一主体允许多条连接并存，事件逐条复制投递。
func (h *Handler) Serve(c *gin.Context) {
	id, ok := handlershared.GetSubjectID(c)
	if !ok {
		return
	}
	role := handlershared.GetSubjectRole(c)
	if role == "" {
		response.Unauthorized(c, "authentication required")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// 升级失败时响应已由升级器写出，这里只记录
		handlershared.RequestLog(c).Warnw("ws_upgrade_failed",
			"role", role,
			"subject_id", id,
			"error", err,
		)
		return
	}

	h.Hub.Register(role, id, conn)
}
