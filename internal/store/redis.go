package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/huoyun-next/internal/config"
	"github.com/huoyun-next/internal/constants"

	"github.com/redis/go-redis/v9"
)

// incrWithTTLScript 自增并在首次创建时设置过期，返回 {当前计数, 剩余秒数}
var incrWithTTLScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("TTL", KEYS[1])
return {current, ttl}
`)

// compareAndDeleteScript 值匹配时删除，返回删除数量
var compareAndDeleteScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore 基于 go-redis 的共享存储实现
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore 创建 Redis 存储实例
func NewRedisStore(cfg *config.RedisConfig) *RedisStore {
	addr := strings.TrimSpace(cfg.Host)
	if addr == "" {
		addr = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = constants.RedisPrefixDefault
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", addr, port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisStore{client: client, prefix: prefix}
}

// NewRedisStoreWithClient 使用现有客户端创建（供测试注入）
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	if strings.TrimSpace(prefix) == "" {
		prefix = constants.RedisPrefixDefault
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Client 返回底层 Redis 客户端
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// Ping 探活
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close 关闭连接
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Get 读取字符串值
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.buildKey(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set 写入字符串值
func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, s.buildKey(key), value, ttl).Err()
}

// SetNX 不存在才写入
func (s *RedisStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, s.buildKey(key), value, ttl).Result()
}

// SetXX 存在才写入
func (s *RedisStore) SetXX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return s.client.SetXX(ctx, s.buildKey(key), value, ttl).Result()
}

// Delete 删除 key
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.buildKey(key)).Err()
}

// CompareAndDelete 值匹配才删除
func (s *RedisStore) CompareAndDelete(ctx context.Context, key, expect string) (bool, error) {
	result, err := compareAndDeleteScript.Run(ctx, s.client, []string{s.buildKey(key)}, expect).Result()
	if err != nil {
		return false, err
	}
	deleted, _ := toInt64(result)
	return deleted > 0, nil
}

// SAdd 向集合添加成员
func (s *RedisStore) SAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(members))
	for _, m := range members {
		args = append(args, m)
	}
	return s.client.SAdd(ctx, s.buildKey(key), args...).Err()
}

// SRem 从集合移除成员
func (s *RedisStore) SRem(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(members))
	for _, m := range members {
		args = append(args, m)
	}
	return s.client.SRem(ctx, s.buildKey(key), args...).Err()
}

// SIsMember 判断成员是否在集合中
func (s *RedisStore) SIsMember(ctx context.Context, key, member string) (bool, error) {
	return s.client.SIsMember(ctx, s.buildKey(key), member).Result()
}

// SMembers 返回集合全部成员
func (s *RedisStore) SMembers(ctx context.Context, key string) ([]string, error) {
	return s.client.SMembers(ctx, s.buildKey(key)).Result()
}

// IncrWithTTL 原子自增 + 首次设置过期
func (s *RedisStore) IncrWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	windowSeconds := int64(window / time.Second)
	if windowSeconds < 1 {
		windowSeconds = 1
	}
	result, err := incrWithTTLScript.Run(ctx, s.client, []string{s.buildKey(key)}, windowSeconds).Result()
	if err != nil {
		return 0, 0, err
	}
	values, ok := result.([]interface{})
	if !ok || len(values) < 2 {
		return 0, 0, fmt.Errorf("unexpected incr script result: %v", result)
	}
	count, ok := toInt64(values[0])
	if !ok {
		return 0, 0, fmt.Errorf("unexpected incr script count: %v", values[0])
	}
	ttlSeconds, _ := toInt64(values[1])
	if ttlSeconds < 0 {
		ttlSeconds = 0
	}
	return count, time.Duration(ttlSeconds) * time.Second, nil
}

func (s *RedisStore) buildKey(key string) string {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return s.prefix
	}
	return fmt.Sprintf("%s:%s", s.prefix, trimmed)
}

func toInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case uint32:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
