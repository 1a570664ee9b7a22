package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/huoyun-next/internal/constants"
	"github.com/huoyun-next/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupOrderRepositoryTest(t *testing.T) (*GormOrderRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_repo_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.TruckRequest{}); err != nil {
		t.Fatalf("migrate order/truck_request failed: %v", err)
	}
	return NewOrderRepository(db), db
}

func createDispatchOrder(t *testing.T, repo *GormOrderRepository, orderNo string, totalUnits int, expiresAt *time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNo:        orderNo,
		UserID:         1,
		PickupLocation: "Mumbai",
		DropLocation:   "Delhi",
		DistanceKm:     1400,
		TotalUnits:     totalUnits,
		TotalPrice:     models.NewMoneyFromDecimal(decimal.NewFromInt(int64(totalUnits) * 20000)),
		Status:         constants.OrderStatusActive,
		ExpiresAt:      expiresAt,
	}
	requests := make([]models.TruckRequest, 0, totalUnits)
	for seq := 1; seq <= totalUnits; seq++ {
		requests = append(requests, models.TruckRequest{
			Seq:         seq,
			VehicleType: constants.VehicleTypeTipper,
			Price:       models.NewMoneyFromDecimal(decimal.NewFromInt(20000)),
			Status:      constants.TruckRequestStatusSearching,
		})
	}
	if err := repo.Create(order, requests); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func TestCreateOrderFansOutRequests(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)
	order := createDispatchOrder(t, repo, "HY-CREATE-001", 3, nil)

	stored, err := repo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if stored == nil {
		t.Fatalf("order should exist")
	}
	if len(stored.TruckRequests) != 3 {
		t.Fatalf("truck requests len want 3 got %d", len(stored.TruckRequests))
	}
	for i, request := range stored.TruckRequests {
		if request.OrderID != order.ID {
			t.Fatalf("request order id want %d got %d", order.ID, request.OrderID)
		}
		if request.Seq != i+1 {
			t.Fatalf("request seq want %d got %d", i+1, request.Seq)
		}
	}
}

func TestGetByIDAndUserScopesOwner(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)
	order := createDispatchOrder(t, repo, "HY-OWNER-001", 1, nil)

	stored, err := repo.GetByIDAndUser(order.ID, 1)
	if err != nil {
		t.Fatalf("get by id and user failed: %v", err)
	}
	if stored == nil {
		t.Fatalf("owner should see the order")
	}

	stored, err = repo.GetByIDAndUser(order.ID, 2)
	if err != nil {
		t.Fatalf("get by id and foreign user failed: %v", err)
	}
	if stored != nil {
		t.Fatalf("foreign user should not see the order")
	}
}

func TestFillUnitTracksProgress(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)
	order := createDispatchOrder(t, repo, "HY-FILL-001", 2, nil)

	affected, err := repo.FillUnit(order.ID)
	if err != nil {
		t.Fatalf("first fill failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("first fill affected want 1 got %d", affected)
	}
	stored, err := repo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if stored.UnitsFilled != 1 {
		t.Fatalf("units filled want 1 got %d", stored.UnitsFilled)
	}
	if stored.Status != constants.OrderStatusPartiallyFilled {
		t.Fatalf("status want partially_filled got %s", stored.Status)
	}

	affected, err = repo.FillUnit(order.ID)
	if err != nil {
		t.Fatalf("second fill failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("second fill affected want 1 got %d", affected)
	}
	stored, err = repo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if stored.UnitsFilled != 2 {
		t.Fatalf("units filled want 2 got %d", stored.UnitsFilled)
	}
	if stored.Status != constants.OrderStatusFullyFilled {
		t.Fatalf("status want fully_filled got %s", stored.Status)
	}

	affected, err = repo.FillUnit(order.ID)
	if err != nil {
		t.Fatalf("third fill failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("fill on full order affected want 0 got %d", affected)
	}
}

func TestTransitionStatusRequiresCurrentStatus(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)
	order := createDispatchOrder(t, repo, "HY-TRANS-001", 1, nil)

	affected, err := repo.TransitionStatus(order.ID,
		[]string{constants.OrderStatusActive, constants.OrderStatusPartiallyFilled},
		constants.OrderStatusCancelled, nil)
	if err != nil {
		t.Fatalf("cancel transition failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("cancel affected want 1 got %d", affected)
	}

	affected, err = repo.TransitionStatus(order.ID,
		[]string{constants.OrderStatusActive, constants.OrderStatusPartiallyFilled},
		constants.OrderStatusExpired, nil)
	if err != nil {
		t.Fatalf("expire transition failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expire on cancelled order affected want 0 got %d", affected)
	}
}

func TestListExpirablePicksDueOrders(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)
	now := time.Now()

	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)
	due := createDispatchOrder(t, repo, "HY-EXP-DUE", 1, &past)
	createDispatchOrder(t, repo, "HY-EXP-FUTURE", 1, &future)
	createDispatchOrder(t, repo, "HY-EXP-NONE", 1, nil)

	cancelled := createDispatchOrder(t, repo, "HY-EXP-CANCELLED", 1, &past)
	if err := repo.UpdateStatus(cancelled.ID, constants.OrderStatusCancelled, nil); err != nil {
		t.Fatalf("cancel order failed: %v", err)
	}

	orders, err := repo.ListExpirable(now, 10)
	if err != nil {
		t.Fatalf("list expirable failed: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expirable len want 1 got %d", len(orders))
	}
	if orders[0].ID != due.ID {
		t.Fatalf("expirable order want %d got %d", due.ID, orders[0].ID)
	}
}

func TestListByUserFiltersAndPaginates(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)
	for i := 1; i <= 5; i++ {
		createDispatchOrder(t, repo, fmt.Sprintf("HY-LIST-%03d", i), 1, nil)
	}

	orders, total, err := repo.ListByUser(OrderListFilter{Page: 1, PageSize: 2, UserID: 1})
	if err != nil {
		t.Fatalf("list by user failed: %v", err)
	}
	if total != 5 {
		t.Fatalf("total want 5 got %d", total)
	}
	if len(orders) != 2 {
		t.Fatalf("page len want 2 got %d", len(orders))
	}

	orders, total, err = repo.ListByUser(OrderListFilter{Page: 1, PageSize: 10, UserID: 99})
	if err != nil {
		t.Fatalf("list by foreign user failed: %v", err)
	}
	if total != 0 || len(orders) != 0 {
		t.Fatalf("foreign user should see nothing, got total=%d len=%d", total, len(orders))
	}
}
