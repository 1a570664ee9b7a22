package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/huoyun-next/internal/config"
	"github.com/huoyun-next/internal/constants"
	"github.com/huoyun-next/internal/models"
	"github.com/huoyun-next/internal/repository"
	"github.com/huoyun-next/internal/store"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupCandidateServiceTest(t *testing.T) (*gorm.DB, *CandidateService) {
	t.Helper()

	dsn := fmt.Sprintf("file:candidate_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Transporter{}, &models.Vehicle{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	candidates := NewCandidateService(store.NewMemoryStore(), repository.NewTransporterRepository(db), &config.PresenceConfig{
		CandidateCacheTTLSeconds: 300,
	})
	return db, candidates
}

func TestCandidatesServedFromCacheUntilInvalidated(t *testing.T) {
	db, candidates := setupCandidateServiceTest(t)
	ctx := context.Background()

	carrier := createDispatchTransporter(t, db, "500001", true)
	createDispatchVehicle(t, db, carrier.ID, constants.VehicleTypeTipper, "14t")

	// 车型与细分是两个独立的缓存键
	ids, err := candidates.Candidates(ctx, constants.VehicleTypeTipper, "")
	if err != nil {
		t.Fatalf("Candidates error: %v", err)
	}
	if len(ids) != 1 || ids[0] != carrier.ID {
		t.Fatalf("expected [%d], got %v", carrier.ID, ids)
	}
	ids, err = candidates.Candidates(ctx, constants.VehicleTypeTipper, "14t")
	if err != nil {
		t.Fatalf("Candidates subtype error: %v", err)
	}
	if len(ids) != 1 || ids[0] != carrier.ID {
		t.Fatalf("expected [%d] for subtype, got %v", carrier.ID, ids)
	}

	// 绕过服务直接改库：命中缓存时不会察觉
	if err := db.Model(&models.Transporter{}).Where("id = ?", carrier.ID).
		Update("available", false).Error; err != nil {
		t.Fatalf("flip available failed: %v", err)
	}
	ids, err = candidates.Candidates(ctx, constants.VehicleTypeTipper, "")
	if err != nil {
		t.Fatalf("Candidates error: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("stale cache expected until invalidation, got %v", ids)
	}

	// 失效一个车型要连带清掉它的所有细分键
	if err := candidates.Invalidate(ctx, constants.VehicleTypeTipper); err != nil {
		t.Fatalf("Invalidate error: %v", err)
	}
	ids, err = candidates.Candidates(ctx, constants.VehicleTypeTipper, "")
	if err != nil {
		t.Fatalf("Candidates error: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected refreshed empty list, got %v", ids)
	}
	ids, err = candidates.Candidates(ctx, constants.VehicleTypeTipper, "14t")
	if err != nil {
		t.Fatalf("Candidates subtype error: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected refreshed empty subtype list, got %v", ids)
	}
}

func TestCandidatesCachesEmptyResult(t *testing.T) {
	db, candidates := setupCandidateServiceTest(t)
	ctx := context.Background()

	ids, err := candidates.Candidates(ctx, constants.VehicleTypeContainer, "")
	if err != nil {
		t.Fatalf("Candidates error: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no candidates, got %v", ids)
	}

	// 空结果也要缓存，否则冷门车型每次都打穿数据库
	carrier := createDispatchTransporter(t, db, "500011", true)
	createDispatchVehicle(t, db, carrier.ID, constants.VehicleTypeContainer, "20ft")
	ids, err = candidates.Candidates(ctx, constants.VehicleTypeContainer, "")
	if err != nil {
		t.Fatalf("Candidates error: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("negative cache should hold, got %v", ids)
	}

	if err := candidates.Invalidate(ctx, constants.VehicleTypeContainer); err != nil {
		t.Fatalf("Invalidate error: %v", err)
	}
	ids, err = candidates.Candidates(ctx, constants.VehicleTypeContainer, "")
	if err != nil {
		t.Fatalf("Candidates error: %v", err)
	}
	if len(ids) != 1 || ids[0] != carrier.ID {
		t.Fatalf("expected [%d] after invalidation, got %v", carrier.ID, ids)
	}
}
