package store

import "fmt"

// 共享存储 key 布局。所有 key 统一经由这里拼装，避免散落的裸字符串。

// PresenceKey 承运人在线记录（TTL 约 60 秒，过期即视为离线）
func PresenceKey(transporterID uint) string {
	return fmt.Sprintf("presence:transporter:%d", transporterID)
}

// OnlineSetKey 在线承运人ID集合
func OnlineSetKey() string {
	return "presence:online"
}

// PresenceSweepLockKey 幽灵在线清理的单飞锁
func PresenceSweepLockKey() string {
	return "presence:sweep:lock"
}

// ToggleCooldownKey 上下线切换冷却标记（TTL 约 5 秒）
func ToggleCooldownKey(transporterID uint) string {
	return fmt.Sprintf("availability:cooldown:%d", transporterID)
}

// ToggleWindowKey 上下线切换滑动窗口计数
func ToggleWindowKey(transporterID uint) string {
	return fmt.Sprintf("availability:window:%d", transporterID)
}

// ToggleLockKey 上下线切换互斥锁
func ToggleLockKey(transporterID uint) string {
	return fmt.Sprintf("availability:lock:%d", transporterID)
}

// CandidateKey 指定车型的候选承运人缓存（TTL 约 5 分钟）
func CandidateKey(vehicleType, vehicleSubtype string) string {
	if vehicleSubtype == "" {
		return fmt.Sprintf("candidates:vtype:%s", vehicleType)
	}
	return fmt.Sprintf("candidates:vtype:%s:%s", vehicleType, vehicleSubtype)
}

// CandidateIndexKey 某车型下已写入的候选缓存 key 索引集合，
// 失效时按索引逐个删除而不是模式扫描
func CandidateIndexKey(vehicleType string) string {
	return fmt.Sprintf("candidates:keys:%s", vehicleType)
}

// ExpirySweepLockKey 订单过期扫描的单飞锁
func ExpirySweepLockKey() string {
	return "dispatch:expiry_sweep:lock"
}

// PushDedupeKey 推送去重标记
func PushDedupeKey(event, subject string) string {
	return fmt.Sprintf("push:dedupe:%s:%s", event, subject)
}

// APIRateLimitKey 热点接口限流计数
func APIRateLimitKey(route, subject string) string {
	return fmt.Sprintf("ratelimit:%s:%s", route, subject)
}
