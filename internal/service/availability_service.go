package service

import (
	"context"
	"time"

	"github.com/huoyun-next/internal/config"
	"github.com/huoyun-next/internal/constants"
	"github.com/huoyun-next/internal/logger"
	"github.com/huoyun-next/internal/notifier"
	"github.com/huoyun-next/internal/repository"
	"github.com/huoyun-next/internal/store"

	"github.com/google/uuid"
)

// ToggleResult 接单开关切换结果
type ToggleResult struct {
	Available bool `json:"available"`
	Changed   bool `json:"changed"`
}

// AvailabilityService 承运人接单开关服务。
// 数据库的 available 字段是权威状态，在线存储按它对齐；
// 切换受冷却、滑动窗口和互斥锁保护，抖动打不垮下游缓存失效。
type AvailabilityService struct {
	store           store.Store
	transporterRepo repository.TransporterRepository
	vehicleRepo     repository.VehicleRepository
	presence        *PresenceService
	candidates      *CandidateService
	notifier        notifier.Notifier

	cooldown   time.Duration
	window     time.Duration
	maxToggles int
	lockTTL    time.Duration
}

// NewAvailabilityService 创建接单开关服务
func NewAvailabilityService(
	s store.Store,
	transporterRepo repository.TransporterRepository,
	vehicleRepo repository.VehicleRepository,
	presence *PresenceService,
	candidates *CandidateService,
	n notifier.Notifier,
	cfg *config.ToggleLimitConfig,
) *AvailabilityService {
	cooldown := 5 * time.Second
	window := 60 * time.Second
	maxToggles := 6
	lockTTL := 5 * time.Second
	if cfg != nil {
		if cfg.CooldownSeconds > 0 {
			cooldown = time.Duration(cfg.CooldownSeconds) * time.Second
		}
		if cfg.WindowSeconds > 0 {
			window = time.Duration(cfg.WindowSeconds) * time.Second
		}
		if cfg.MaxToggles > 0 {
			maxToggles = cfg.MaxToggles
		}
		if cfg.LockTTLSeconds > 0 {
			lockTTL = time.Duration(cfg.LockTTLSeconds) * time.Second
		}
	}
	return &AvailabilityService{
		store:           s,
		transporterRepo: transporterRepo,
		vehicleRepo:     vehicleRepo,
		presence:        presence,
		candidates:      candidates,
		notifier:        n,
		cooldown:        cooldown,
		window:          window,
		maxToggles:      maxToggles,
		lockTTL:         lockTTL,
	}
}

// Toggle 切换接单开关。
// 与当前状态相同的请求幂等放行，不消耗冷却和窗口配额；
// 真正的状态变更依次过冷却、滑动窗口、互斥锁三道闸。
func (s *AvailabilityService) Toggle(ctx context.Context, transporterID uint, available bool) (*ToggleResult, error) {
	transporter, err := s.transporterRepo.GetByID(transporterID)
	if err != nil {
		return nil, err
	}
	if transporter == nil {
		return nil, ErrTransporterNotFound
	}
	if transporter.Available == available {
		return &ToggleResult{Available: available, Changed: false}, nil
	}

	ok, err := s.store.SetNX(ctx, store.ToggleCooldownKey(transporterID), "1", s.cooldown)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRateLimited
	}

	count, _, err := s.store.IncrWithTTL(ctx, store.ToggleWindowKey(transporterID), s.window)
	if err != nil {
		return nil, err
	}
	if count > int64(s.maxToggles) {
		return nil, ErrRateLimited
	}

	token := uuid.NewString()
	acquired, err := store.AcquireLock(ctx, s.store, store.ToggleLockKey(transporterID), token, s.lockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrLockContention
	}
	defer func() {
		if _, err := store.ReleaseLock(ctx, s.store, store.ToggleLockKey(transporterID), token); err != nil {
			logger.Warnw("availability_unlock_failed", "transporter_id", transporterID, "error", err)
		}
	}()

	// 锁内复查：拿锁排队期间状态可能已被并发请求改过
	transporter, err = s.transporterRepo.GetByID(transporterID)
	if err != nil {
		return nil, err
	}
	if transporter == nil {
		return nil, ErrTransporterNotFound
	}
	if transporter.Available == available {
		return &ToggleResult{Available: available, Changed: false}, nil
	}

	if err := s.transporterRepo.UpdateAvailable(transporterID, available); err != nil {
		return nil, err
	}

	// 数据库已是权威状态，在线存储对齐失败只降级记录
	if available {
		if err := s.presence.MarkOnline(ctx, transporterID, ""); err != nil {
			logger.Warnw("availability_presence_online_failed", "transporter_id", transporterID, "error", err)
		}
	} else {
		if err := s.presence.MarkOffline(ctx, transporterID); err != nil {
			logger.Warnw("availability_presence_offline_failed", "transporter_id", transporterID, "error", err)
		}
	}

	s.invalidateFleetCaches(ctx, transporterID)

	if s.notifier != nil {
		s.notifier.SendToTransporter(transporterID, notifier.NewEvent(constants.EventAvailabilityChanged, notifier.AvailabilityChangedPayload{
			TransporterID: transporterID,
			Available:     available,
		}))
	}

	logger.Infow("availability_toggled",
		"transporter_id", transporterID,
		"available", available,
	)
	return &ToggleResult{Available: available, Changed: true}, nil
}

// invalidateFleetCaches 按车队覆盖的车型逐个失效候选缓存
func (s *AvailabilityService) invalidateFleetCaches(ctx context.Context, transporterID uint) {
	vehicles, err := s.vehicleRepo.ListByTransporter(transporterID)
	if err != nil {
		logger.Warnw("availability_fleet_load_failed", "transporter_id", transporterID, "error", err)
		return
	}
	seen := make(map[string]struct{}, len(vehicles))
	for _, vehicle := range vehicles {
		if _, ok := seen[vehicle.VehicleType]; ok {
			continue
		}
		seen[vehicle.VehicleType] = struct{}{}
		if err := s.candidates.Invalidate(ctx, vehicle.VehicleType); err != nil {
			logger.Warnw("availability_cache_invalidate_failed",
				"transporter_id", transporterID,
				"vehicle_type", vehicle.VehicleType,
				"error", err,
			)
		}
	}
}
