package service

import (
	"context"
	"time"

	"github.com/huoyun-next/internal/config"
	"github.com/huoyun-next/internal/logger"
	"github.com/huoyun-next/internal/repository"
	"github.com/huoyun-next/internal/store"
)

// CandidateService 候选承运人解析服务。
// 按车型查"有对应车辆、账号正常、接单开关打开"的承运人，结果走缓存，
// 车队或开关变化时按索引失效。缓存只是加速，读写失败都退回数据库。
type CandidateService struct {
	store           store.Store
	transporterRepo repository.TransporterRepository
	cacheTTL        time.Duration
}

// NewCandidateService 创建候选承运人解析服务
func NewCandidateService(s store.Store, transporterRepo repository.TransporterRepository, cfg *config.PresenceConfig) *CandidateService {
	cacheTTL := 300 * time.Second
	if cfg != nil && cfg.CandidateCacheTTLSeconds > 0 {
		cacheTTL = time.Duration(cfg.CandidateCacheTTLSeconds) * time.Second
	}
	return &CandidateService{
		store:           s,
		transporterRepo: transporterRepo,
		cacheTTL:        cacheTTL,
	}
}

// Candidates 解析指定车型的候选承运人ID，缓存优先。
// 空结果同样缓存，避免冷门车型反复打到数据库。
func (s *CandidateService) Candidates(ctx context.Context, vehicleType, vehicleSubtype string) ([]uint, error) {
	key := store.CandidateKey(vehicleType, vehicleSubtype)

	var ids []uint
	hit, err := store.GetJSON(ctx, s.store, key, &ids)
	if err != nil {
		logger.Warnw("candidate_cache_read_failed", "key", key, "error", err)
	} else if hit {
		if ids == nil {
			ids = []uint{}
		}
		return ids, nil
	}

	ids, err = s.transporterRepo.ListCandidateIDs(vehicleType, vehicleSubtype)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []uint{}
	}

	if err := store.SetJSON(ctx, s.store, key, ids, s.cacheTTL); err != nil {
		logger.Warnw("candidate_cache_write_failed", "key", key, "error", err)
	} else if err := s.store.SAdd(ctx, store.CandidateIndexKey(vehicleType), key); err != nil {
		// 索引漏登记的条目等 TTL 自然过期
		logger.Warnw("candidate_index_add_failed", "key", key, "error", err)
	}
	return ids, nil
}

// Invalidate 使某车型下的全部候选缓存失效。
// 按索引集合逐个删除，不做模式扫描；单条删除失败只记日志，
// 残留条目最迟随 TTL 过期。
func (s *CandidateService) Invalidate(ctx context.Context, vehicleType string) error {
	indexKey := store.CandidateIndexKey(vehicleType)
	keys, err := s.store.SMembers(ctx, indexKey)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			logger.Warnw("candidate_cache_delete_failed", "key", key, "error", err)
		}
	}
	if err := s.store.Delete(ctx, indexKey); err != nil {
		logger.Warnw("candidate_index_delete_failed", "key", indexKey, "error", err)
	}
	return nil
}
