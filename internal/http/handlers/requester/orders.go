package requester

import (
	"errors"
	"strconv"
	"strings"

	"github.com/huoyun-next/internal/http/response"
	"github.com/huoyun-next/internal/models"
	"github.com/huoyun-next/internal/repository"
	"github.com/huoyun-next/internal/service"

	"github.com/gin-gonic/gin"
)

// TruckGroupRequest 订单内的车型需求行
type TruckGroupRequest struct {
	VehicleType    string       `json:"vehicle_type" binding:"required"`
	VehicleSubtype string       `json:"vehicle_subtype"`
	Units          int          `json:"units" binding:"required"`
	PricePerUnit   models.Money `json:"price_per_unit"`
}

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	PickupLocation string              `json:"pickup_location" binding:"required"`
	DropLocation   string              `json:"drop_location" binding:"required"`
	DistanceKm     float64             `json:"distance_km"`
	Note           string              `json:"note"`
	Groups         []TruckGroupRequest `json:"groups" binding:"required"`
}

// CreateOrder 创建订单并触发车位分发
func (h *Handler) CreateOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request payload", err)
		return
	}

	var groups []service.TruckGroupInput
	for _, group := range req.Groups {
		groups = append(groups, service.TruckGroupInput{
			VehicleType:    group.VehicleType,
			VehicleSubtype: group.VehicleSubtype,
			Units:          group.Units,
			PricePerUnit:   group.PricePerUnit,
		})
	}

	result, err := h.DispatchService.CreateOrder(c.Request.Context(), service.CreateOrderInput{
		UserID:         uid,
		PickupLocation: req.PickupLocation,
		DropLocation:   req.DropLocation,
		DistanceKm:     req.DistanceKm,
		Note:           req.Note,
		Groups:         groups,
	})
	if err != nil {
		respondOrderCreateError(c, err)
		return
	}

	response.Success(c, result)
}

// ListOrders 货主订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	status := strings.TrimSpace(c.Query("status"))
	orderNo := strings.TrimSpace(c.Query("order_no"))

	orders, total, err := h.DispatchService.ListOrders(c.Request.Context(), repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Status:   status,
		OrderNo:  orderNo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch orders", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, orders, pagination)
}

// GetOrder 订单详情（带车位明细）
func (h *Handler) GetOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}

	order, err := h.DispatchService.GetOrder(c.Request.Context(), uint(orderID), uid)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "order not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "failed to fetch order", err)
		return
	}

	response.Success(c, order)
}

// CancelOrder 取消订单，仅限还没有任何成交的订单
func (h *Handler) CancelOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}

	order, err := h.DispatchService.CancelOrder(c.Request.Context(), uint(orderID), uid)
	if err != nil {
		respondOrderCancelError(c, err)
		return
	}

	response.Success(c, order)
}
