package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/huoyun-next/internal/config"
	"github.com/huoyun-next/internal/logger"
	"github.com/huoyun-next/internal/repository"
	"github.com/huoyun-next/internal/store"

	"github.com/google/uuid"
)

// PresenceService 在线状态服务。
// 在线记录带 TTL，在线集合镜像"当前可达"；两者顺序写入不保证原子，
// 漂移（进程崩溃、漏发下线）由带锁的周期清扫收敛。
type PresenceService struct {
	store           store.Store
	transporterRepo repository.TransporterRepository
	ttl             time.Duration
	sweepLockTTL    time.Duration
}

// NewPresenceService 创建在线状态服务
func NewPresenceService(s store.Store, transporterRepo repository.TransporterRepository, cfg *config.PresenceConfig) *PresenceService {
	ttl := 60 * time.Second
	sweepLockTTL := 10 * time.Second
	if cfg != nil {
		if cfg.TTLSeconds > 0 {
			ttl = time.Duration(cfg.TTLSeconds) * time.Second
		}
		if cfg.SweepLockSeconds > 0 {
			sweepLockTTL = time.Duration(cfg.SweepLockSeconds) * time.Second
		}
	}
	return &PresenceService{
		store:           s,
		transporterRepo: transporterRepo,
		ttl:             ttl,
		sweepLockTTL:    sweepLockTTL,
	}
}

// presenceRecord 在线记录内容
type presenceRecord struct {
	Since    int64  `json:"since"`
	LastBeat int64  `json:"last_beat"`
	Payload  string `json:"payload,omitempty"`
}

func presenceMember(transporterID uint) string {
	return strconv.FormatUint(uint64(transporterID), 10)
}

func marshalPresence(record presenceRecord) (string, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// MarkOnline 标记上线：写入带 TTL 的在线记录并加入在线集合。
func (s *PresenceService) MarkOnline(ctx context.Context, transporterID uint, payload string) error {
	now := time.Now().Unix()
	record := presenceRecord{Since: now, LastBeat: now, Payload: payload}
	if err := store.SetJSON(ctx, s.store, store.PresenceKey(transporterID), record, s.ttl); err != nil {
		return err
	}
	return s.store.SAdd(ctx, store.OnlineSetKey(), presenceMember(transporterID))
}

// MarkOffline 标记下线：先删在线记录再移出集合，中途崩溃由清扫兜底。
func (s *PresenceService) MarkOffline(ctx context.Context, transporterID uint) error {
	if err := s.store.Delete(ctx, store.PresenceKey(transporterID)); err != nil {
		return err
	}
	return s.store.SRem(ctx, store.OnlineSetKey(), presenceMember(transporterID))
}

// Heartbeat 受保护的续期：仅当在线记录仍存在时重写并重置 TTL。
// 显式下线后到达的迟到心跳不会复活"幽灵在线"。返回是否完成续期。
func (s *PresenceService) Heartbeat(ctx context.Context, transporterID uint, payload string) (bool, error) {
	key := store.PresenceKey(transporterID)

	var record presenceRecord
	found, err := store.GetJSON(ctx, s.store, key, &record)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	record.LastBeat = time.Now().Unix()
	if payload != "" {
		record.Payload = payload
	}
	raw, err := marshalPresence(record)
	if err != nil {
		return false, err
	}
	// SetXX 是真正的防线：读取后被下线删除的记录不会被重建。
	return s.store.SetXX(ctx, key, raw, s.ttl)
}

// IsOnline 判断承运人当前是否可达
func (s *PresenceService) IsOnline(ctx context.Context, transporterID uint) (bool, error) {
	return s.store.SIsMember(ctx, store.OnlineSetKey(), presenceMember(transporterID))
}

// FilterOnline 过滤出当前可达的承运人，保持入参顺序，只返回入参的子集。
// 集合整体为空（冷启动或存储故障）时退回数据库的接单开关兜底。
func (s *PresenceService) FilterOnline(ctx context.Context, transporterIDs []uint) ([]uint, error) {
	if len(transporterIDs) == 0 {
		return []uint{}, nil
	}

	members, err := s.store.SMembers(ctx, store.OnlineSetKey())
	if err != nil {
		logger.Warnw("presence_filter_store_failed", "error", err)
		return s.transporterRepo.ListAvailableIDs(transporterIDs)
	}
	if len(members) == 0 {
		return s.transporterRepo.ListAvailableIDs(transporterIDs)
	}

	online := make(map[string]struct{}, len(members))
	for _, member := range members {
		online[member] = struct{}{}
	}

	filtered := make([]uint, 0, len(transporterIDs))
	for _, id := range transporterIDs {
		if _, ok := online[presenceMember(id)]; ok {
			filtered = append(filtered, id)
		}
	}
	return filtered, nil
}

// CleanStale 清理幽灵在线：在线集合里记录已过期的成员视为异常掉线，
// 移出集合并尽力把下线落库。全程持集中锁单飞，锁被占时立即返回 0。
func (s *PresenceService) CleanStale(ctx context.Context) (int, error) {
	token := uuid.NewString()
	acquired, err := store.AcquireLock(ctx, s.store, store.PresenceSweepLockKey(), token, s.sweepLockTTL)
	if err != nil {
		return 0, err
	}
	if !acquired {
		return 0, nil
	}
	defer func() {
		if _, err := store.ReleaseLock(ctx, s.store, store.PresenceSweepLockKey(), token); err != nil {
			logger.Warnw("presence_sweep_unlock_failed", "error", err)
		}
	}()

	members, err := s.store.SMembers(ctx, store.OnlineSetKey())
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, member := range members {
		id, err := strconv.ParseUint(member, 10, 64)
		if err != nil {
			// 脏成员直接清掉
			_ = s.store.SRem(ctx, store.OnlineSetKey(), member)
			continue
		}
		_, exists, err := s.store.Get(ctx, store.PresenceKey(uint(id)))
		if err != nil {
			logger.Warnw("presence_sweep_check_failed", "transporter_id", id, "error", err)
			continue
		}
		if exists {
			continue
		}
		if err := s.store.SRem(ctx, store.OnlineSetKey(), member); err != nil {
			logger.Warnw("presence_sweep_remove_failed", "transporter_id", id, "error", err)
			continue
		}
		// 单条落库失败不终止整轮清扫
		if err := s.transporterRepo.UpdateAvailable(uint(id), false); err != nil {
			logger.Warnw("presence_sweep_persist_failed", "transporter_id", id, "error", err)
		}
		removed++
	}

	if removed > 0 {
		logger.Infow("presence_sweep_done", "removed", removed)
	}
	return removed, nil
}
