package store

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value    string
	expireAt time.Time // 零值表示不过期
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}

type memoryCounter struct {
	count    int64
	expireAt time.Time
}

// MemoryStore 进程内存储实现：互斥锁保护的 map，访问时惰性清理过期项。
// 单进程部署与测试用它替代 Redis，语义与 RedisStore 保持一致。
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[string]memoryEntry
	sets     map[string]map[string]struct{}
	counters map[string]memoryCounter
}

// NewMemoryStore 创建内存存储实例
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:  make(map[string]memoryEntry),
		sets:     make(map[string]map[string]struct{}),
		counters: make(map[string]memoryCounter),
	}
}

// Get 读取字符串值
func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		return "", false, nil
	}
	if entry.expired(time.Now()) {
		delete(s.entries, key)
		return "", false, nil
	}
	return entry.value, true, nil
}

// Set 写入字符串值
func (s *MemoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = newMemoryEntry(value, ttl)
	return nil
}

// SetNX 不存在才写入
func (s *MemoryStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[key]; ok && !entry.expired(time.Now()) {
		return false, nil
	}
	s.entries[key] = newMemoryEntry(value, ttl)
	return true, nil
}

// SetXX 存在才写入
func (s *MemoryStore) SetXX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok || entry.expired(time.Now()) {
		delete(s.entries, key)
		return false, nil
	}
	s.entries[key] = newMemoryEntry(value, ttl)
	return true, nil
}

// Delete 删除 key
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// CompareAndDelete 值匹配才删除
func (s *MemoryStore) CompareAndDelete(ctx context.Context, key, expect string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok || entry.expired(time.Now()) {
		delete(s.entries, key)
		return false, nil
	}
	if entry.value != expect {
		return false, nil
	}
	delete(s.entries, key)
	return true, nil
}

// SAdd 向集合添加成员
func (s *MemoryStore) SAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]struct{})
		s.sets[key] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
	return nil
}

// SRem 从集合移除成员
func (s *MemoryStore) SRem(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[key]
	if !ok {
		return nil
	}
	for _, m := range members {
		delete(set, m)
	}
	if len(set) == 0 {
		delete(s.sets, key)
	}
	return nil
}

// SIsMember 判断成员是否在集合中
func (s *MemoryStore) SIsMember(ctx context.Context, key, member string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[key]
	if !ok {
		return false, nil
	}
	_, exists := set[member]
	return exists, nil
}

// SMembers 返回集合全部成员
func (s *MemoryStore) SMembers(ctx context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[key]
	if !ok {
		return nil, nil
	}
	members := make([]string, 0, len(set))
	for m := range set {
		members = append(members, m)
	}
	return members, nil
}

// IncrWithTTL 自增 + 首次设置过期
func (s *MemoryStore) IncrWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if window < time.Second {
		window = time.Second
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	counter, ok := s.counters[key]
	if !ok || now.After(counter.expireAt) {
		counter = memoryCounter{count: 0, expireAt: now.Add(window)}
	}
	counter.count++
	s.counters[key] = counter
	return counter.count, counter.expireAt.Sub(now), nil
}

func newMemoryEntry(value string, ttl time.Duration) memoryEntry {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expireAt = time.Now().Add(ttl)
	}
	return entry
}
