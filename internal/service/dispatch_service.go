package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/huoyun-next/internal/config"
	"github.com/huoyun-next/internal/constants"
	"github.com/huoyun-next/internal/logger"
	"github.com/huoyun-next/internal/models"
	"github.com/huoyun-next/internal/notifier"
	"github.com/huoyun-next/internal/queue"
	"github.com/huoyun-next/internal/repository"
	"github.com/huoyun-next/internal/store"

	"gorm.io/gorm"
)

// DispatchService 调度服务：订单创建与扇出、抢单成交、超时收口、行程流转。
// 成交竞争全部落在数据库的条件更新上，实时通道只做加速，不承载正确性。
type DispatchService struct {
	db               *gorm.DB
	store            store.Store
	orderRepo        repository.OrderRepository
	truckRequestRepo repository.TruckRequestRepository
	assignmentRepo   repository.AssignmentRepository
	userRepo         repository.UserRepository
	transporterRepo  repository.TransporterRepository
	vehicleRepo      repository.VehicleRepository
	driverRepo       repository.DriverRepository
	candidates       *CandidateService
	presence         *PresenceService
	notifier         notifier.Notifier
	queueClient      *queue.Client
	catalog          *VehicleCatalog

	expireMinutes     int
	directNotifyLimit int
	sweepBatch        int
	notifyMaxRetry    int
}

// NewDispatchService 创建调度服务
func NewDispatchService(
	db *gorm.DB,
	sharedStore store.Store,
	orderRepo repository.OrderRepository,
	truckRequestRepo repository.TruckRequestRepository,
	assignmentRepo repository.AssignmentRepository,
	userRepo repository.UserRepository,
	transporterRepo repository.TransporterRepository,
	vehicleRepo repository.VehicleRepository,
	driverRepo repository.DriverRepository,
	candidates *CandidateService,
	presence *PresenceService,
	n notifier.Notifier,
	queueClient *queue.Client,
	catalog *VehicleCatalog,
	cfg *config.DispatchConfig,
) *DispatchService {
	expireMinutes := 30
	directNotifyLimit := 20
	sweepBatch := 100
	notifyMaxRetry := 3
	if cfg != nil {
		if cfg.OrderExpireMinutes > 0 {
			expireMinutes = cfg.OrderExpireMinutes
		}
		if cfg.DirectNotifyLimit > 0 {
			directNotifyLimit = cfg.DirectNotifyLimit
		}
		if cfg.ExpirySweepBatch > 0 {
			sweepBatch = cfg.ExpirySweepBatch
		}
		if cfg.NotifyMaxRetry > 0 {
			notifyMaxRetry = cfg.NotifyMaxRetry
		}
	}
	if catalog == nil {
		catalog = DefaultVehicleCatalog()
	}
	return &DispatchService{
		db:                db,
		store:             sharedStore,
		orderRepo:         orderRepo,
		truckRequestRepo:  truckRequestRepo,
		assignmentRepo:    assignmentRepo,
		userRepo:          userRepo,
		transporterRepo:   transporterRepo,
		vehicleRepo:       vehicleRepo,
		driverRepo:        driverRepo,
		candidates:        candidates,
		presence:          presence,
		notifier:          n,
		queueClient:       queueClient,
		catalog:           catalog,
		expireMinutes:     expireMinutes,
		directNotifyLimit: directNotifyLimit,
		sweepBatch:        sweepBatch,
		notifyMaxRetry:    notifyMaxRetry,
	}
}

// TruckGroupInput 下单时的一组同车型用车需求
type TruckGroupInput struct {
	VehicleType    string       `json:"vehicle_type"`
	VehicleSubtype string       `json:"vehicle_subtype"`
	Units          int          `json:"units"`
	PricePerUnit   models.Money `json:"price_per_unit"`
}

// CreateOrderInput 下单参数
type CreateOrderInput struct {
	UserID         uint
	PickupLocation string
	DropLocation   string
	DistanceKm     float64
	Note           string
	Groups         []TruckGroupInput
}

// DispatchGroupResult 单组车型的扇出结果
type DispatchGroupResult struct {
	VehicleType    string `json:"vehicle_type"`
	VehicleSubtype string `json:"vehicle_subtype,omitempty"`
	Units          int    `json:"units"`
	Candidates     int    `json:"candidates"`
	NotifiedOnline int    `json:"notified_online"`
	Queued         bool   `json:"queued"`
}

// CreateOrderResult 下单结果
type CreateOrderResult struct {
	Order  *models.Order         `json:"order"`
	Groups []DispatchGroupResult `json:"groups"`
}

const maxUnitsPerOrder = 50

// CreateOrder 创建用车订单：按车型组展开成逐车位的用车单并扇出给候选承运人。
// 订单与用车单在同一事务内落库；扇出与超时任务都在事务之后，
// 任何一步失败只降级记录，订单照常创建（承运人仍能主动拉取车位列表）。
func (s *DispatchService) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	if input.UserID == 0 {
		return nil, ErrValidation
	}
	if strings.TrimSpace(input.PickupLocation) == "" || strings.TrimSpace(input.DropLocation) == "" {
		return nil, ErrValidation
	}
	if len(input.Groups) == 0 {
		return nil, ErrValidation
	}

	totalUnits := 0
	var totalPrice models.Money
	for _, group := range input.Groups {
		if group.Units <= 0 {
			return nil, ErrValidation
		}
		if !s.catalog.HasType(group.VehicleType) {
			return nil, ErrValidation
		}
		if !s.catalog.Valid(group.VehicleType, group.VehicleSubtype) {
			return nil, ErrValidation
		}
		if group.PricePerUnit.IsNegative() {
			return nil, ErrValidation
		}
		totalUnits += group.Units
		totalPrice = totalPrice.Plus(group.PricePerUnit.MulUnits(group.Units))
	}
	if totalUnits > maxUnitsPerOrder {
		return nil, ErrValidation
	}

	// 令牌只证明身份，货主档案状态在这里把关
	user, err := s.userRepo.GetByID(input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.Status != constants.UserStatusActive {
		return nil, ErrForbidden
	}

	now := time.Now()
	expiresAt := now.Add(time.Duration(s.expireMinutes) * time.Minute)
	order := &models.Order{
		OrderNo:        generateOrderNo(),
		UserID:         input.UserID,
		PickupLocation: strings.TrimSpace(input.PickupLocation),
		DropLocation:   strings.TrimSpace(input.DropLocation),
		DistanceKm:     input.DistanceKm,
		TotalUnits:     totalUnits,
		UnitsFilled:    0,
		TotalPrice:     totalPrice,
		Status:         constants.OrderStatusActive,
		Note:           input.Note,
		ExpiresAt:      &expiresAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	requests := make([]models.TruckRequest, 0, totalUnits)
	seq := 0
	for _, group := range input.Groups {
		for i := 0; i < group.Units; i++ {
			seq++
			requests = append(requests, models.TruckRequest{
				Seq:            seq,
				VehicleType:    group.VehicleType,
				VehicleSubtype: group.VehicleSubtype,
				Price:          group.PricePerUnit,
				Status:         constants.TruckRequestStatusSearching,
				CreatedAt:      now,
				UpdatedAt:      now,
			})
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.orderRepo.WithTx(tx).Create(order, requests)
	})
	if err != nil {
		logger.Errorw("dispatch_order_create_failed", "user_id", input.UserID, "error", err)
		return nil, err
	}

	if err := s.queueClient.EnqueueOrderExpire(queue.OrderExpirePayload{OrderID: order.ID}, time.Until(expiresAt)); err != nil {
		// 延时任务失败不回滚订单，过期巡检会兜底收口
		logger.Errorw("dispatch_enqueue_expire_failed",
			"order_id", order.ID,
			"order_no", order.OrderNo,
			"error", err,
		)
	}

	order.TruckRequests = requests
	results := s.fanOut(ctx, order, requests, input.Groups)

	logger.Infow("dispatch_order_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"user_id", input.UserID,
		"total_units", totalUnits,
	)
	return &CreateOrderResult{Order: order, Groups: results}, nil
}

// fanOut 按车型组把新车位推给候选承运人。
// 候选少时直接同步推送，人数超过阈值转入广播队列分批处理。
func (s *DispatchService) fanOut(ctx context.Context, order *models.Order, requests []models.TruckRequest, groups []TruckGroupInput) []DispatchGroupResult {
	results := make([]DispatchGroupResult, 0, len(groups))
	for _, group := range groups {
		result := DispatchGroupResult{
			VehicleType:    group.VehicleType,
			VehicleSubtype: group.VehicleSubtype,
			Units:          group.Units,
		}

		candidateIDs, err := s.candidates.Candidates(ctx, group.VehicleType, group.VehicleSubtype)
		if err != nil {
			logger.Errorw("dispatch_candidate_resolve_failed",
				"order_id", order.ID,
				"vehicle_type", group.VehicleType,
				"error", err,
			)
			results = append(results, result)
			continue
		}
		result.Candidates = len(candidateIDs)

		onlineIDs, err := s.presence.FilterOnline(ctx, candidateIDs)
		if err != nil {
			logger.Errorw("dispatch_presence_filter_failed",
				"order_id", order.ID,
				"vehicle_type", group.VehicleType,
				"error", err,
			)
			results = append(results, result)
			continue
		}
		result.NotifiedOnline = len(onlineIDs)

		if len(onlineIDs) == 0 {
			logger.Infow("dispatch_no_candidates_online",
				"order_id", order.ID,
				"vehicle_type", group.VehicleType,
				"vehicle_subtype", group.VehicleSubtype,
			)
			results = append(results, result)
			continue
		}

		for i := range requests {
			request := &requests[i]
			if request.VehicleType != group.VehicleType || request.VehicleSubtype != group.VehicleSubtype {
				continue
			}
			if len(onlineIDs) <= s.directNotifyLimit {
				s.notifyUnitDirect(order, request, onlineIDs)
			} else {
				result.Queued = true
				s.notifyUnitQueued(order, request, onlineIDs)
			}
		}
		results = append(results, result)
	}
	return results
}

// offerUnit 对单个寻车中车位做一轮完整扇出（解析候选、过滤在线、直推或入队）。
func (s *DispatchService) offerUnit(ctx context.Context, order *models.Order, request *models.TruckRequest) {
	candidateIDs, err := s.candidates.Candidates(ctx, request.VehicleType, request.VehicleSubtype)
	if err != nil {
		logger.Errorw("dispatch_candidate_resolve_failed",
			"order_id", order.ID,
			"truck_request_id", request.ID,
			"error", err,
		)
		return
	}
	onlineIDs, err := s.presence.FilterOnline(ctx, candidateIDs)
	if err != nil {
		logger.Errorw("dispatch_presence_filter_failed",
			"order_id", order.ID,
			"truck_request_id", request.ID,
			"error", err,
		)
		return
	}
	if len(onlineIDs) == 0 {
		logger.Infow("dispatch_no_candidates_online",
			"order_id", order.ID,
			"vehicle_type", request.VehicleType,
			"vehicle_subtype", request.VehicleSubtype,
		)
		return
	}
	if len(onlineIDs) <= s.directNotifyLimit {
		s.notifyUnitDirect(order, request, onlineIDs)
	} else {
		s.notifyUnitQueued(order, request, onlineIDs)
	}
}

// notifyUnitDirect 逐个承运人直接推送新车位，并记录通知名单。
func (s *DispatchService) notifyUnitDirect(order *models.Order, request *models.TruckRequest, transporterIDs []uint) {
	event := buildUnitAvailableEvent(order, request)
	if s.notifier != nil {
		for _, transporterID := range transporterIDs {
			s.notifier.SendToTransporter(transporterID, event)
		}
	}
	s.markNotified(request, transporterIDs)
}

// notifyUnitQueued 候选过多时改走广播队列，由 worker 分批推送。
func (s *DispatchService) notifyUnitQueued(order *models.Order, request *models.TruckRequest, transporterIDs []uint) {
	err := s.queueClient.EnqueueNotifyCandidate(queue.NotifyCandidatePayload{
		TruckRequestID: request.ID,
		TransporterIDs: transporterIDs,
	})
	if err != nil {
		logger.Errorw("dispatch_notify_enqueue_failed",
			"order_id", order.ID,
			"truck_request_id", request.ID,
			"error", err,
		)
		// 队列不可用就退回直接推送，宁慢不丢
		s.notifyUnitDirect(order, request, transporterIDs)
	}
}

// markNotified 合并记录该车位已通知的承运人集合
func (s *DispatchService) markNotified(request *models.TruckRequest, transporterIDs []uint) {
	merged := request.NotifiedIDs.MergeUnique(transporterIDs)
	if err := s.truckRequestRepo.UpdateNotified(request.ID, merged); err != nil {
		logger.Warnw("dispatch_mark_notified_failed", "truck_request_id", request.ID, "error", err)
		return
	}
	request.NotifiedIDs = merged
}

// NotifyUnit 对单个车位补发新车位通知（worker 扇出与行程释放后的重新放出共用）。
func (s *DispatchService) NotifyUnit(ctx context.Context, truckRequestID uint, transporterIDs []uint) error {
	request, err := s.truckRequestRepo.GetByIDWithOrder(truckRequestID)
	if err != nil {
		return err
	}
	if request == nil {
		return ErrUnitNotFound
	}
	if request.Status != constants.TruckRequestStatusSearching {
		// 已成交或已关闭的车位不再打扰候选人
		return nil
	}
	if request.Order == nil {
		return ErrOrderNotFound
	}
	s.notifyUnitDirect(request.Order, request, transporterIDs)
	return nil
}

func buildUnitAvailableEvent(order *models.Order, request *models.TruckRequest) notifier.Event {
	return notifier.NewEvent(constants.EventNewUnitAvailable, notifier.UnitAvailablePayload{
		TruckRequestID: request.ID,
		OrderID:        order.ID,
		VehicleType:    request.VehicleType,
		VehicleSubtype: request.VehicleSubtype,
		PickupLocation: order.PickupLocation,
		DropLocation:   order.DropLocation,
		DistanceKm:     order.DistanceKm,
		Price:          request.Price,
		ExpiresAt:      order.ExpiresAt,
	}).WithDedupe(fmt.Sprintf("unit:%d", request.ID))
}

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("HY%s%s", now, randNumeric(6))
}

func generateTripID() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("TR%s%s", now, randNumeric(8))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}
