package transporter

import (
	"github.com/huoyun-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ToggleAvailabilityRequest 接单开关请求
type ToggleAvailabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

// ToggleAvailability 切换接单开关。
// 同态请求幂等放行；真正的切换受冷却、窗口与互斥锁保护。
func (h *Handler) ToggleAvailability(c *gin.Context) {
	tid, ok := getTransporterID(c)
	if !ok {
		return
	}

	var req ToggleAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request payload", err)
		return
	}

	result, err := h.AvailabilityService.Toggle(c.Request.Context(), tid, *req.Available)
	if err != nil {
		respondAvailabilityToggleError(c, err)
		return
	}

	response.Success(c, result)
}
