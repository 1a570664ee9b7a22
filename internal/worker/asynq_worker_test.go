package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/huoyun-next/internal/config"
	"github.com/huoyun-next/internal/constants"
	"github.com/huoyun-next/internal/models"
	"github.com/huoyun-next/internal/notifier"
	"github.com/huoyun-next/internal/provider"
	"github.com/huoyun-next/internal/queue"
	"github.com/huoyun-next/internal/repository"
	"github.com/huoyun-next/internal/service"
	"github.com/huoyun-next/internal/store"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type capturedEvent struct {
	target string
	id     uint
	name   string
}

type stubNotifier struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (n *stubNotifier) SendToUser(userID uint, event notifier.Event) {
	n.record("user", userID, event.Event)
}

func (n *stubNotifier) SendToTransporter(transporterID uint, event notifier.Event) {
	n.record("transporter", transporterID, event.Event)
}

func (n *stubNotifier) BroadcastTransporters(event notifier.Event) {
	n.record("broadcast", 0, event.Event)
}

func (n *stubNotifier) record(target string, id uint, name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, capturedEvent{target: target, id: id, name: name})
}

func (n *stubNotifier) count(target string, id uint, name string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	total := 0
	for _, e := range n.events {
		if e.target == target && e.id == id && e.name == name {
			total++
		}
	}
	return total
}

func (n *stubNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = nil
}

type workerFixture struct {
	db       *gorm.DB
	recorder *stubNotifier
	consumer *Consumer
	dispatch *service.DispatchService
}

func setupWorkerTest(t *testing.T) *workerFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:worker_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Transporter{},
		&models.Vehicle{},
		&models.Driver{},
		&models.Order{},
		&models.TruckRequest{},
		&models.Assignment{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	memStore := store.NewMemoryStore()
	recorder := &stubNotifier{}
	transporterRepo := repository.NewTransporterRepository(db)
	presence := service.NewPresenceService(memStore, transporterRepo, &config.PresenceConfig{TTLSeconds: 60, SweepLockSeconds: 5})
	candidates := service.NewCandidateService(memStore, transporterRepo, &config.PresenceConfig{CandidateCacheTTLSeconds: 300})
	queueClient, err := queue.NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("create queue client failed: %v", err)
	}

	dispatch := service.NewDispatchService(
		db,
		memStore,
		repository.NewOrderRepository(db),
		repository.NewTruckRequestRepository(db),
		repository.NewAssignmentRepository(db),
		repository.NewUserRepository(db),
		transporterRepo,
		repository.NewVehicleRepository(db),
		repository.NewDriverRepository(db),
		candidates,
		presence,
		recorder,
		queueClient,
		service.DefaultVehicleCatalog(),
		&config.DispatchConfig{OrderExpireMinutes: 30, DirectNotifyLimit: 20, ExpirySweepBatch: 50},
	)

	container := &provider.Container{
		Config:           &config.Config{},
		Store:            memStore,
		QueueClient:      queueClient,
		Notifier:         recorder,
		TransporterRepo:  transporterRepo,
		PresenceService:  presence,
		CandidateService: candidates,
		DispatchService:  dispatch,
	}

	return &workerFixture{
		db:       db,
		recorder: recorder,
		consumer: NewConsumer(container),
		dispatch: dispatch,
	}
}

func createWorkerOrder(t *testing.T, f *workerFixture, units int) *models.Order {
	t.Helper()

	user := models.User{
		Phone:  fmt.Sprintf("7%d", time.Now().UnixNano()%1000000000),
		Name:   "shipper",
		Status: constants.UserStatusActive,
	}
	if err := f.db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	result, err := f.dispatch.CreateOrder(context.Background(), service.CreateOrderInput{
		UserID:         user.ID,
		PickupLocation: "Hubballi",
		DropLocation:   "Belagavi",
		DistanceKm:     96,
		Groups: []service.TruckGroupInput{
			{
				VehicleType:  constants.VehicleTypeTipper,
				Units:        units,
				PricePerUnit: models.NewMoneyFromDecimal(decimal.NewFromInt(9000)),
			},
		},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return result.Order
}

func createWorkerTransporter(t *testing.T, f *workerFixture) models.Transporter {
	t.Helper()

	transporter := models.Transporter{
		Phone:     fmt.Sprintf("8%d", time.Now().UnixNano()%1000000000),
		Name:      "carrier",
		Available: true,
		Status:    constants.TransporterStatusActive,
	}
	if err := f.db.Create(&transporter).Error; err != nil {
		t.Fatalf("create transporter failed: %v", err)
	}
	return transporter
}

func forceWorkerOrderDue(t *testing.T, db *gorm.DB, orderID uint) {
	t.Helper()

	past := time.Now().Add(-time.Minute)
	if err := db.Model(&models.Order{}).Where("id = ?", orderID).
		Update("expires_at", past).Error; err != nil {
		t.Fatalf("force order due failed: %v", err)
	}
}

func TestHandleOrderExpireClosesDueOrder(t *testing.T) {
	f := setupWorkerTest(t)
	order := createWorkerOrder(t, f, 1)
	forceWorkerOrderDue(t, f.db, order.ID)

	task, err := queue.NewOrderExpireTask(queue.OrderExpirePayload{OrderID: order.ID})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := f.consumer.handleOrderExpire(context.Background(), task); err != nil {
		t.Fatalf("handleOrderExpire error: %v", err)
	}

	var reloaded models.Order
	if err := f.db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusExpired {
		t.Fatalf("expected expired order, got %s", reloaded.Status)
	}
}

func TestHandleOrderExpireSkipsBenignCases(t *testing.T) {
	f := setupWorkerTest(t)

	t.Run("malformed payload archives task", func(t *testing.T) {
		task := asynq.NewTask(queue.TaskOrderExpire, []byte("{not json"))
		err := f.consumer.handleOrderExpire(context.Background(), task)
		if err == nil {
			t.Fatalf("expected error for malformed payload")
		}
		if !errors.Is(err, asynq.SkipRetry) {
			t.Fatalf("malformed payload must not be retried, got %v", err)
		}
	})

	t.Run("zero order id", func(t *testing.T) {
		task, err := queue.NewOrderExpireTask(queue.OrderExpirePayload{})
		if err != nil {
			t.Fatalf("build task failed: %v", err)
		}
		if err := f.consumer.handleOrderExpire(context.Background(), task); err != nil {
			t.Fatalf("expected nil for zero order id, got %v", err)
		}
	})

	t.Run("order already gone", func(t *testing.T) {
		task, err := queue.NewOrderExpireTask(queue.OrderExpirePayload{OrderID: 424242})
		if err != nil {
			t.Fatalf("build task failed: %v", err)
		}
		if err := f.consumer.handleOrderExpire(context.Background(), task); err != nil {
			t.Fatalf("expected nil for missing order, got %v", err)
		}
	})
}

func TestHandleNotifyCandidateOffersSearchingUnit(t *testing.T) {
	f := setupWorkerTest(t)
	carrier := createWorkerTransporter(t, f)
	order := createWorkerOrder(t, f, 1)
	f.recorder.reset()

	unit := order.TruckRequests[0]
	task, err := queue.NewNotifyCandidateTask(queue.NotifyCandidatePayload{
		TruckRequestID: unit.ID,
		TransporterIDs: []uint{carrier.ID},
	})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := f.consumer.handleNotifyCandidate(context.Background(), task); err != nil {
		t.Fatalf("handleNotifyCandidate error: %v", err)
	}

	if got := f.recorder.count("transporter", carrier.ID, constants.EventNewUnitAvailable); got != 1 {
		t.Fatalf("expected 1 offer for carrier, got %d", got)
	}

	var reloaded models.TruckRequest
	if err := f.db.First(&reloaded, unit.ID).Error; err != nil {
		t.Fatalf("reload truck request failed: %v", err)
	}
	if !reloaded.NotifiedIDs.Contains(carrier.ID) {
		t.Fatalf("expected carrier in notified set, got %v", reloaded.NotifiedIDs)
	}
}

func TestHandleNotifyCandidateSkipsSettledUnit(t *testing.T) {
	f := setupWorkerTest(t)
	carrier := createWorkerTransporter(t, f)
	order := createWorkerOrder(t, f, 1)
	unit := order.TruckRequests[0]

	if err := f.db.Model(&models.TruckRequest{}).Where("id = ?", unit.ID).
		Update("status", constants.TruckRequestStatusAssigned).Error; err != nil {
		t.Fatalf("settle truck request failed: %v", err)
	}
	f.recorder.reset()

	task, err := queue.NewNotifyCandidateTask(queue.NotifyCandidatePayload{
		TruckRequestID: unit.ID,
		TransporterIDs: []uint{carrier.ID},
	})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := f.consumer.handleNotifyCandidate(context.Background(), task); err != nil {
		t.Fatalf("expected nil for settled unit, got %v", err)
	}
	if got := f.recorder.count("transporter", carrier.ID, constants.EventNewUnitAvailable); got != 0 {
		t.Fatalf("settled unit must not be re-offered, got %d offers", got)
	}

	missing, err := queue.NewNotifyCandidateTask(queue.NotifyCandidatePayload{
		TruckRequestID: 424242,
		TransporterIDs: []uint{carrier.ID},
	})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := f.consumer.handleNotifyCandidate(context.Background(), missing); err != nil {
		t.Fatalf("expected nil for missing unit, got %v", err)
	}
}

func TestServiceSweepsWithQueueDisabled(t *testing.T) {
	f := setupWorkerTest(t)
	order := createWorkerOrder(t, f, 1)
	forceWorkerOrderDue(t, f.db, order.ID)

	svc, err := NewService(&config.QueueConfig{Enabled: false}, f.consumer)
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}
	if svc.Name() != "worker" {
		t.Fatalf("unexpected service name: %s", svc.Name())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.Start(ctx)
	}()

	deadline := time.Now().Add(3 * time.Second)
	for {
		var reloaded models.Order
		if err := f.db.First(&reloaded, order.ID).Error; err == nil &&
			reloaded.Status == constants.OrderStatusExpired {
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("expiry sweep did not close the due order")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("worker returned error on shutdown: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("worker did not stop after context cancel")
	}
}

func TestNewServiceRequiresConsumer(t *testing.T) {
	if _, err := NewService(&config.QueueConfig{Enabled: false}, nil); err == nil {
		t.Fatalf("expected error for nil consumer")
	}
}
