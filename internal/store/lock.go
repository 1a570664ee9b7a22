package store

import (
	"context"
	"time"
)

// AcquireLock 获取租约锁：key 不存在时写入持有者 token 并设置 TTL。
// 返回 false 表示锁已被其他持有者占用。
func AcquireLock(ctx context.Context, s Store, key, token string, ttl time.Duration) (bool, error) {
	return s.SetNX(ctx, key, token, ttl)
}

// ReleaseLock 释放租约锁：仅当存储的 token 与调用方一致时删除，
// 防止进程释放不属于自己的锁（例如锁已超时被他人抢占）。
func ReleaseLock(ctx context.Context, s Store, key, token string) (bool, error) {
	return s.CompareAndDelete(ctx, key, token)
}
