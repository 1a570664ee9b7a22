package service

import (
	"context"
	"errors"
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

type availabilityFixture struct {
	db           *gorm.DB
	store        *store.MemoryStore
	recorder     *recordingNotifier
	presence     *PresenceService
	candidates   *CandidateService
	availability *AvailabilityService
}

func setupAvailabilityServiceTest(t *testing.T) *availabilityFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:availability_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Transporter{}, &models.Vehicle{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	memStore := store.NewMemoryStore()
	recorder := &recordingNotifier{}
	transporterRepo := repository.NewTransporterRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	presence := NewPresenceService(memStore, transporterRepo, &config.PresenceConfig{TTLSeconds: 60, SweepLockSeconds: 5})
	candidates := NewCandidateService(memStore, transporterRepo, &config.PresenceConfig{CandidateCacheTTLSeconds: 300})
	availability := NewAvailabilityService(
		memStore, transporterRepo, vehicleRepo, presence, candidates, recorder,
		&config.ToggleLimitConfig{WindowSeconds: 60, MaxToggles: 6, CooldownSeconds: 5, LockTTLSeconds: 5},
	)

	return &availabilityFixture{
		db:           db,
		store:        memStore,
		recorder:     recorder,
		presence:     presence,
		candidates:   candidates,
		availability: availability,
	}
}

func TestToggleSameStateIsIdempotent(t *testing.T) {
	f := setupAvailabilityServiceTest(t)
	transporter := createDispatchTransporter(t, f.db, "300001", false)

	// 与当前状态相同：直接放行，不消耗冷却
	result, err := f.availability.Toggle(context.Background(), transporter.ID, false)
	if err != nil {
		t.Fatalf("same-state toggle error: %v", err)
	}
	if result.Changed || result.Available {
		t.Fatalf("expected unchanged off state, got %+v", result)
	}

	// 紧接着的真实切换不应被冷却拦下
	result, err = f.availability.Toggle(context.Background(), transporter.ID, true)
	if err != nil {
		t.Fatalf("real toggle error: %v", err)
	}
	if !result.Changed || !result.Available {
		t.Fatalf("expected state change to on, got %+v", result)
	}

	var fresh models.Transporter
	if err := f.db.First(&fresh, transporter.ID).Error; err != nil {
		t.Fatalf("load transporter failed: %v", err)
	}
	if !fresh.Available {
		t.Fatalf("availability should persist")
	}
}

func TestToggleCooldownBlocksFlapping(t *testing.T) {
	f := setupAvailabilityServiceTest(t)
	transporter := createDispatchTransporter(t, f.db, "300002", false)

	if _, err := f.availability.Toggle(context.Background(), transporter.ID, true); err != nil {
		t.Fatalf("first toggle error: %v", err)
	}
	// 冷却期内的反向切换被拒
	if _, err := f.availability.Toggle(context.Background(), transporter.ID, false); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected rate limited, got %v", err)
	}

	var fresh models.Transporter
	if err := f.db.First(&fresh, transporter.ID).Error; err != nil {
		t.Fatalf("load transporter failed: %v", err)
	}
	if !fresh.Available {
		t.Fatalf("rejected toggle must not change state")
	}
}

func TestToggleWindowLimit(t *testing.T) {
	f := setupAvailabilityServiceTest(t)
	transporter := createDispatchTransporter(t, f.db, "300003", false)

	limited := &AvailabilityService{
		store:           f.store,
		transporterRepo: repository.NewTransporterRepository(f.db),
		vehicleRepo:     repository.NewVehicleRepository(f.db),
		presence:        f.presence,
		candidates:      f.candidates,
		notifier:        f.recorder,
		cooldown:        time.Millisecond,
		window:          time.Minute,
		maxToggles:      2,
		lockTTL:         time.Second,
	}

	states := []bool{true, false}
	for _, next := range states {
		if _, err := limited.Toggle(context.Background(), transporter.ID, next); err != nil {
			t.Fatalf("toggle to %v error: %v", next, err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	// 窗口配额用尽，第三次真实切换被拒
	if _, err := limited.Toggle(context.Background(), transporter.ID, true); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected window limit, got %v", err)
	}
}

func TestToggleSyncsPresenceAndCandidateCache(t *testing.T) {
	f := setupAvailabilityServiceTest(t)
	transporter := createDispatchTransporter(t, f.db, "300004", false)
	createDispatchVehicle(t, f.db, transporter.ID, constants.VehicleTypeTipper, "14t")

	// 预热候选缓存：开关关闭时不是候选
	ids, err := f.candidates.Candidates(context.Background(), constants.VehicleTypeTipper, "")
	if err != nil {
		t.Fatalf("warm candidates error: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("unavailable transporter must not be candidate, got %v", ids)
	}

	if _, err := f.availability.Toggle(context.Background(), transporter.ID, true); err != nil {
		t.Fatalf("toggle on error: %v", err)
	}

	online, err := f.presence.IsOnline(context.Background(), transporter.ID)
	if err != nil {
		t.Fatalf("IsOnline error: %v", err)
	}
	if !online {
		t.Fatalf("toggle on should mark presence online")
	}
	if got := f.recorder.count("transporter", transporter.ID, constants.EventAvailabilityChanged); got != 1 {
		t.Fatalf("expected 1 availability-changed event, got %d", got)
	}

	// 开关改变后候选缓存必须失效并重查
	ids, err = f.candidates.Candidates(context.Background(), constants.VehicleTypeTipper, "")
	if err != nil {
		t.Fatalf("reload candidates error: %v", err)
	}
	if len(ids) != 1 || ids[0] != transporter.ID {
		t.Fatalf("expected refreshed candidate list, got %v", ids)
	}
}
