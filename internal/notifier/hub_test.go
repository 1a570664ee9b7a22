package notifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/huoyun-next/internal/constants"

	"github.com/gorilla/websocket"
)

func setupHubTest(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role := r.URL.Query().Get("role")
		id, err := strconv.ParseUint(r.URL.Query().Get("id"), 10, 64)
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(role, uint(id), conn)
	}))

	t.Cleanup(func() {
		cancel()
		server.Close()
	})
	return hub, server
}

func dialHub(t *testing.T, server *httptest.Server, role string, id uint) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"/?role="+role+"&id="+strconv.FormatUint(uint64(id), 10), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitClientCount(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("client count want %d got %d", want, hub.ClientCount())
}

func TestHubSendReachesOnlyTarget(t *testing.T) {
	hub, server := setupHubTest(t)
	transporterConn := dialHub(t, server, constants.RoleTransporter, 1)
	userConn := dialHub(t, server, constants.RoleUser, 2)
	waitClientCount(t, hub, 2)

	hub.SendToTransporter(1, NewEvent(constants.EventNewUnitAvailable, UnitAvailablePayload{
		TruckRequestID: 42,
		OrderID:        7,
		VehicleType:    constants.VehicleTypeTipper,
	}))

	var event Event
	_ = transporterConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := transporterConn.ReadJSON(&event); err != nil {
		t.Fatalf("transporter read failed: %v", err)
	}
	if event.Event != constants.EventNewUnitAvailable {
		t.Fatalf("event want %s got %s", constants.EventNewUnitAvailable, event.Event)
	}
	data, ok := event.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("event data should be an object, got %T", event.Data)
	}
	if got, ok := data["truck_request_id"].(float64); !ok || got != 42 {
		t.Fatalf("truck_request_id want 42 got %v", data["truck_request_id"])
	}

	_ = userConn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if err := userConn.ReadJSON(&event); err == nil {
		t.Fatalf("user should not receive transporter event, got %+v", event)
	}
}

func TestHubBroadcastHitsAllTransporterConnections(t *testing.T) {
	hub, server := setupHubTest(t)
	first := dialHub(t, server, constants.RoleTransporter, 1)
	second := dialHub(t, server, constants.RoleTransporter, 2)
	// 同一承运人的第二条连接也要收到
	firstAgain := dialHub(t, server, constants.RoleTransporter, 1)
	waitClientCount(t, hub, 3)

	hub.BroadcastTransporters(NewEvent(constants.EventUnitsRemaining, UnitsRemainingPayload{
		OrderID: 7, UnitsFilled: 1, TotalUnits: 3, Remaining: 2,
	}))

	for _, conn := range []*websocket.Conn{first, second, firstAgain} {
		var event Event
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if err := conn.ReadJSON(&event); err != nil {
			t.Fatalf("broadcast read failed: %v", err)
		}
		if event.Event != constants.EventUnitsRemaining {
			t.Fatalf("event want %s got %s", constants.EventUnitsRemaining, event.Event)
		}
	}
}

func TestHubRemovesClosedConnections(t *testing.T) {
	hub, server := setupHubTest(t)
	conn := dialHub(t, server, constants.RoleTransporter, 1)
	waitClientCount(t, hub, 1)

	_ = conn.Close()
	waitClientCount(t, hub, 0)

	// 没有连接时发送不应出错或阻塞
	hub.SendToTransporter(1, NewEvent(constants.EventTripAssigned, TripAssignedPayload{TripID: "T-1"}))
}

func TestClientOfferDropsWhenBufferFull(t *testing.T) {
	client := &Client{
		send: make(chan Event, 1),
		done: make(chan struct{}),
		key:  "transporter:9",
	}

	client.offer(NewEvent(constants.EventUnitConfirmed, nil))
	client.offer(NewEvent(constants.EventUnitConfirmed, nil))

	if len(client.send) != 1 {
		t.Fatalf("buffered events want 1 got %d", len(client.send))
	}
}
