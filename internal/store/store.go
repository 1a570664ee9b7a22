package store

import (
	"context"
	"encoding/json"
	"time"
)

// Store 共享协调存储抽象：在线状态、候选缓存、限流计数与分布式锁都建立在
// 这组原语之上。多进程部署使用 Redis 实现，单进程与测试使用内存实现，
// 调用方不感知差异。
type Store interface {
	// Get 读取字符串值，第二个返回值表示 key 是否存在
	Get(ctx context.Context, key string) (string, bool, error)
	// Set 写入字符串值，ttl 为 0 表示不过期
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetNX 仅当 key 不存在时写入，返回是否写入成功
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// SetXX 仅当 key 已存在时覆盖写入并重置 TTL，返回是否写入成功
	SetXX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// Delete 删除 key，key 不存在时不报错
	Delete(ctx context.Context, key string) error
	// CompareAndDelete 仅当存储值等于 expect 时删除，返回是否删除
	CompareAndDelete(ctx context.Context, key, expect string) (bool, error)

	// SAdd 向集合添加成员
	SAdd(ctx context.Context, key string, members ...string) error
	// SRem 从集合移除成员
	SRem(ctx context.Context, key string, members ...string) error
	// SIsMember 判断成员是否在集合中
	SIsMember(ctx context.Context, key, member string) (bool, error)
	// SMembers 返回集合全部成员
	SMembers(ctx context.Context, key string) ([]string, error)

	// IncrWithTTL 原子自增，首次创建时设置过期；返回当前计数与剩余窗口
	IncrWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// GetJSON 读取 JSON 值并反序列化到 dest，返回 key 是否存在
func GetJSON(ctx context.Context, s Store, key string, dest interface{}) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON 序列化 value 并写入
func SetJSON(ctx context.Context, s Store, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, string(payload), ttl)
}
