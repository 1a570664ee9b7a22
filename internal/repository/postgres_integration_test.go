//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/huoyun-next/internal/constants"
	"github.com/huoyun-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.Assignment{},
		&models.TruckRequest{},
		&models.Order{},
		&models.Vehicle{},
		&models.Driver{},
		&models.Transporter{},
		&models.User{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Transporter{},
		&models.Vehicle{},
		&models.Driver{},
		&models.Order{},
		&models.TruckRequest{},
		&models.Assignment{},
	); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresCandidateQueries(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewTransporterRepository(db)

	transporters := []*models.Transporter{
		{Phone: "13800000001", Name: "北方车队", Available: true, Status: constants.TransporterStatusActive},
		{Phone: "13800000002", Name: "南方车队", Available: true, Status: constants.TransporterStatusActive},
		{Phone: "13800000003", Name: "停接车队", Available: false, Status: constants.TransporterStatusActive},
		{Phone: "13800000004", Name: "禁用车队", Available: true, Status: constants.TransporterStatusDisabled},
	}
	for _, transporter := range transporters {
		if err := repo.Create(transporter); err != nil {
			t.Fatalf("create transporter failed: %v", err)
		}
	}

	vehicles := []*models.Vehicle{
		{TransporterID: transporters[0].ID, VehicleType: constants.VehicleTypeTipper, RegistrationNo: "PG-TIP-001"},
		{TransporterID: transporters[0].ID, VehicleType: constants.VehicleTypeTipper, RegistrationNo: "PG-TIP-002"},
		{TransporterID: transporters[1].ID, VehicleType: constants.VehicleTypeTipper, RegistrationNo: "PG-TIP-003"},
		{TransporterID: transporters[1].ID, VehicleType: constants.VehicleTypeContainer, RegistrationNo: "PG-CON-001"},
		{TransporterID: transporters[2].ID, VehicleType: constants.VehicleTypeTipper, RegistrationNo: "PG-TIP-004"},
		{TransporterID: transporters[3].ID, VehicleType: constants.VehicleTypeTipper, RegistrationNo: "PG-TIP-005"},
	}
	for _, vehicle := range vehicles {
		if err := db.Create(vehicle).Error; err != nil {
			t.Fatalf("create vehicle failed: %v", err)
		}
	}

	ids, err := repo.ListCandidateIDs(constants.VehicleTypeTipper, "")
	if err != nil {
		t.Fatalf("list candidate ids failed: %v", err)
	}
	// 两辆自卸车的车队只出现一次，停接与禁用的都被过滤。
	if len(ids) != 2 {
		t.Fatalf("candidate ids len want 2 got %d (%v)", len(ids), ids)
	}
	if ids[0] != transporters[0].ID || ids[1] != transporters[1].ID {
		t.Fatalf("candidate ids want [%d %d] got %v", transporters[0].ID, transporters[1].ID, ids)
	}

	ids, err = repo.ListCandidateIDs(constants.VehicleTypeContainer, "")
	if err != nil {
		t.Fatalf("list container candidates failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != transporters[1].ID {
		t.Fatalf("container candidates want [%d] got %v", transporters[1].ID, ids)
	}
}

func TestPostgresConditionalAssignAndFill(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	orderRepo := NewOrderRepository(db)
	requestRepo := NewTruckRequestRepository(db)

	order := &models.Order{
		OrderNo:        "PG-DISPATCH-001",
		UserID:         1,
		PickupLocation: "上海",
		DropLocation:   "苏州",
		DistanceKm:     100,
		TotalUnits:     2,
		TotalPrice:     models.NewMoneyFromDecimal(decimal.NewFromInt(3000)),
		Status:         constants.OrderStatusActive,
	}
	requests := []models.TruckRequest{
		{Seq: 1, VehicleType: constants.VehicleTypeTipper, Price: models.NewMoneyFromDecimal(decimal.NewFromInt(1500)), Status: constants.TruckRequestStatusSearching},
		{Seq: 2, VehicleType: constants.VehicleTypeTipper, Price: models.NewMoneyFromDecimal(decimal.NewFromInt(1500)), Status: constants.TruckRequestStatusSearching},
	}
	if err := orderRepo.Create(order, requests); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	affected, err := requestRepo.Assign(requests[0].ID, AssignParams{
		TransporterID: 11,
		VehicleID:     21,
		DriverID:      31,
		TripID:        "PG-TRIP-A",
		AssignedAt:    time.Now(),
	})
	if err != nil || affected != 1 {
		t.Fatalf("assign failed: affected=%d err=%v", affected, err)
	}

	affected, err = requestRepo.Assign(requests[0].ID, AssignParams{
		TransporterID: 12,
		VehicleID:     22,
		DriverID:      32,
		TripID:        "PG-TRIP-B",
		AssignedAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("second assign failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("second assign affected want 0 got %d", affected)
	}

	affected, err = orderRepo.FillUnit(order.ID)
	if err != nil || affected != 1 {
		t.Fatalf("fill unit failed: affected=%d err=%v", affected, err)
	}
	stored, err := orderRepo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if stored.UnitsFilled != 1 || stored.Status != constants.OrderStatusPartiallyFilled {
		t.Fatalf("order progress want 1/partially_filled got %d/%s", stored.UnitsFilled, stored.Status)
	}
}
