package queue

import (
	"testing"
	"time"

	"github.com/huoyun-next/internal/config"
)

func TestRetryDelayExponentialWithCap(t *testing.T) {
	cases := []struct {
		n    int
		want time.Duration
	}{
		{n: -1, want: time.Second},
		{n: 0, want: time.Second},
		{n: 1, want: 2 * time.Second},
		{n: 3, want: 8 * time.Second},
		{n: 9, want: 512 * time.Second},
		{n: 25, want: 512 * time.Second},
	}
	for _, tc := range cases {
		if got := RetryDelay(tc.n, nil, nil); got != tc.want {
			t.Fatalf("retry delay for n=%d want %v got %v", tc.n, tc.want, got)
		}
	}
}

func TestDisabledClientSkipsEnqueue(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new disabled client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("client should be disabled")
	}
	if err := client.EnqueueOrderExpire(OrderExpirePayload{OrderID: 1}, time.Minute); err != nil {
		t.Fatalf("disabled enqueue order expire should be a no-op, got %v", err)
	}
	if err := client.EnqueueNotifyCandidate(NotifyCandidatePayload{TruckRequestID: 1, TransporterIDs: []uint{2}}); err != nil {
		t.Fatalf("disabled enqueue notify should be a no-op, got %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close disabled client failed: %v", err)
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(&config.QueueConfig{Enabled: true})
	if opt.Addr != "127.0.0.1:6379" {
		t.Fatalf("default addr want 127.0.0.1:6379 got %s", opt.Addr)
	}
	if cfg.Concurrency != 10 {
		t.Fatalf("default concurrency want 10 got %d", cfg.Concurrency)
	}
	if len(cfg.Queues) != 1 || cfg.Queues[DefaultQueue] != 1 {
		t.Fatalf("default queues want {default:1} got %v", cfg.Queues)
	}

	opt, cfg = BuildServerConfig(&config.QueueConfig{
		Enabled:     true,
		Host:        "redis.internal",
		Port:        6380,
		Concurrency: 4,
		Queues:      map[string]int{"critical": 6, "default": 3, "broadcast": 1},
	})
	if opt.Addr != "redis.internal:6380" {
		t.Fatalf("addr want redis.internal:6380 got %s", opt.Addr)
	}
	if cfg.Concurrency != 4 {
		t.Fatalf("concurrency want 4 got %d", cfg.Concurrency)
	}
	if cfg.Queues["critical"] != 6 {
		t.Fatalf("critical weight want 6 got %d", cfg.Queues["critical"])
	}
}
