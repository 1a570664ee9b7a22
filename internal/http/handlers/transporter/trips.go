package transporter

import (
	"errors"
	"strconv"
	"strings"

	"github.com/huoyun-next/internal/http/response"
	"github.com/huoyun-next/internal/repository"
	"github.com/huoyun-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListTrips 行程列表
func (h *Handler) ListTrips(c *gin.Context) {
	tid, ok := getTransporterID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	status := strings.TrimSpace(c.Query("status"))

	trips, total, err := h.DispatchService.ListTrips(c.Request.Context(), repository.AssignmentListFilter{
		Page:          page,
		PageSize:      pageSize,
		TransporterID: tid,
		Status:        status,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch trips", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, trips, pagination)
}

// GetTrip 行程详情
func (h *Handler) GetTrip(c *gin.Context) {
	tid, ok := getTransporterID(c)
	if !ok {
		return
	}

	tripID := strings.TrimSpace(c.Param("trip_id"))
	if tripID == "" {
		respondError(c, response.CodeBadRequest, "invalid trip id", nil)
		return
	}

	trip, err := h.DispatchService.GetTrip(c.Request.Context(), tripID, tid)
	if err != nil {
		if errors.Is(err, service.ErrAssignmentNotFound) {
			respondError(c, response.CodeNotFound, "trip not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "failed to fetch trip", err)
		return
	}

	response.Success(c, trip)
}

// UpdateTripStatusRequest 行程状态更新请求
type UpdateTripStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateTripStatus 推进行程状态，非法跃迁被拒绝
func (h *Handler) UpdateTripStatus(c *gin.Context) {
	tid, ok := getTransporterID(c)
	if !ok {
		return
	}

	tripID := strings.TrimSpace(c.Param("trip_id"))
	if tripID == "" {
		respondError(c, response.CodeBadRequest, "invalid trip id", nil)
		return
	}

	var req UpdateTripStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request payload", err)
		return
	}

	trip, err := h.DispatchService.UpdateTripStatus(c.Request.Context(), service.UpdateTripInput{
		TripID:        tripID,
		TransporterID: tid,
		Status:        strings.TrimSpace(req.Status),
	})
	if err != nil {
		respondTripUpdateError(c, err)
		return
	}

	response.Success(c, trip)
}
