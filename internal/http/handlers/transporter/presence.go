package transporter

import (
	"github.com/huoyun-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// HeartbeatRequest 在线心跳请求，payload 为客户端自带的位置快照
type HeartbeatRequest struct {
	Payload string `json:"payload"`
}

// Heartbeat 在线心跳：仅当在线记录仍存在时续期。
// 返回 online=false 表示记录已过期或已显式下线，客户端应重新开启接单。
func (h *Handler) Heartbeat(c *gin.Context) {
	tid, ok := getTransporterID(c)
	if !ok {
		return
	}

	var req HeartbeatRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "invalid request payload", err)
			return
		}
	}

	renewed, err := h.PresenceService.Heartbeat(c.Request.Context(), tid, req.Payload)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to record heartbeat", err)
		return
	}

	response.Success(c, gin.H{"online": renewed})
}
