//go:build integration
// +build integration

package store

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// setupRedisIntegrationStore 初始化 Redis 集成测试存储。
func setupRedisIntegrationStore(t *testing.T) *RedisStore {
	t.Helper()

	addr := strings.TrimSpace(os.Getenv("TEST_REDIS_ADDR"))
	if addr == "" {
		t.Skip("skip redis integration test: TEST_REDIS_ADDR is empty")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 9})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("ping redis failed: %v", err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush redis test db failed: %v", err)
	}
	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})

	return NewRedisStoreWithClient(client, "hytest")
}

func TestRedisStoreStringOps(t *testing.T) {
	s := setupRedisIntegrationStore(t)
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("get missing key want absent, got ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	val, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || val != "v" {
		t.Fatalf("get want v, got val=%q ok=%v err=%v", val, ok, err)
	}

	if ok, _ := s.SetNX(ctx, "k", "other", time.Minute); ok {
		t.Fatalf("setnx on present key should fail")
	}
	if ok, _ := s.SetXX(ctx, "k", "v2", time.Minute); !ok {
		t.Fatalf("setxx on present key should succeed")
	}
	if ok, _ := s.SetXX(ctx, "absent", "v", time.Minute); ok {
		t.Fatalf("setxx on missing key should fail")
	}

	if ok, _ := s.CompareAndDelete(ctx, "k", "wrong"); ok {
		t.Fatalf("compare-and-delete with wrong value should fail")
	}
	if ok, _ := s.CompareAndDelete(ctx, "k", "v2"); !ok {
		t.Fatalf("compare-and-delete with matching value should succeed")
	}
}

func TestRedisStoreSetOps(t *testing.T) {
	s := setupRedisIntegrationStore(t)
	ctx := context.Background()

	if err := s.SAdd(ctx, "set", "1", "2"); err != nil {
		t.Fatalf("sadd failed: %v", err)
	}
	if ok, _ := s.SIsMember(ctx, "set", "1"); !ok {
		t.Fatalf("1 should be a member")
	}
	members, err := s.SMembers(ctx, "set")
	if err != nil || len(members) != 2 {
		t.Fatalf("smembers want 2 members, got %v err=%v", members, err)
	}
	if err := s.SRem(ctx, "set", "1"); err != nil {
		t.Fatalf("srem failed: %v", err)
	}
	if ok, _ := s.SIsMember(ctx, "set", "1"); ok {
		t.Fatalf("1 should be removed")
	}
}

func TestRedisStoreIncrWithTTL(t *testing.T) {
	s := setupRedisIntegrationStore(t)
	ctx := context.Background()

	count, ttl, err := s.IncrWithTTL(ctx, "counter", 30*time.Second)
	if err != nil || count != 1 {
		t.Fatalf("first incr want 1, got count=%d err=%v", count, err)
	}
	if ttl <= 0 || ttl > 30*time.Second {
		t.Fatalf("unexpected ttl after first incr: %v", ttl)
	}
	count, _, err = s.IncrWithTTL(ctx, "counter", 30*time.Second)
	if err != nil || count != 2 {
		t.Fatalf("second incr want 2, got count=%d err=%v", count, err)
	}
}
