package transporter

import (
	"strconv"
	"strings"

	"github.com/huoyun-next/internal/http/response"
	"github.com/huoyun-next/internal/repository"
	"github.com/huoyun-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListOpenUnits 可接车位列表：只返回车队车型覆盖的寻车中车位
func (h *Handler) ListOpenUnits(c *gin.Context) {
	tid, ok := getTransporterID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.OpenUnitListFilter{
		Page:     page,
		PageSize: pageSize,
	}
	if vehicleType := strings.TrimSpace(c.Query("vehicle_type")); vehicleType != "" {
		filter.VehicleTypes = []string{vehicleType}
	}

	units, total, err := h.DispatchService.ListOpenUnits(c.Request.Context(), tid, filter)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch truck requests", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, units, pagination)
}

// AcceptUnitRequest 抢单请求
type AcceptUnitRequest struct {
	VehicleID uint `json:"vehicle_id" binding:"required"`
	DriverID  uint `json:"driver_id" binding:"required"`
}

// AcceptUnit 抢单。并发竞争同一车位时恰有一人成功，
// 落败方拿到 already_resolved 标记而非错误。
func (h *Handler) AcceptUnit(c *gin.Context) {
	tid, ok := getTransporterID(c)
	if !ok {
		return
	}

	truckRequestID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || truckRequestID == 0 {
		respondError(c, response.CodeBadRequest, "invalid truck request id", nil)
		return
	}

	var req AcceptUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request payload", err)
		return
	}

	result, err := h.DispatchService.AcceptUnit(c.Request.Context(), service.AcceptUnitInput{
		TruckRequestID: uint(truckRequestID),
		TransporterID:  tid,
		VehicleID:      req.VehicleID,
		DriverID:       req.DriverID,
	})
	if err != nil {
		respondAcceptError(c, err)
		return
	}

	response.Success(c, result)
}
