package config

import (
	"fmt"
	"strings"

	"github.com/huoyun-next/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Queue    QueueConfig    `mapstructure:"queue"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Security SecurityConfig `mapstructure:"security"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Presence PresenceConfig `mapstructure:"presence"`
	Push     PushConfig     `mapstructure:"push"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN    string             `mapstructure:"dsn"`    // 数据库连接串
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig JWT 配置：令牌由上游签发，本服务只做校验
type JWTConfig struct {
	SecretKey string `mapstructure:"secret"`
}

// RedisConfig Redis 配置（共享协调存储）
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// DispatchConfig 调度配置
type DispatchConfig struct {
	OrderExpireMinutes int `mapstructure:"order_expire_minutes"` // 订单找车超时时间
	DirectNotifyLimit  int `mapstructure:"direct_notify_limit"`  // 小于等于该人数直接推送，否则走队列扇出
	ExpirySweepSeconds int `mapstructure:"expiry_sweep_seconds"` // 过期扫描周期
	ExpirySweepBatch   int `mapstructure:"expiry_sweep_batch"`   // 单次扫描处理的订单上限
	NotifyMaxRetry     int `mapstructure:"notify_max_retry"`     // 扇出任务最大重试次数
}

// PresenceConfig 在线状态配置
type PresenceConfig struct {
	TTLSeconds               int `mapstructure:"ttl_seconds"`                 // 在线记录 TTL
	SweepSeconds             int `mapstructure:"sweep_seconds"`               // 幽灵在线清理周期
	SweepLockSeconds         int `mapstructure:"sweep_lock_seconds"`          // 清理锁 TTL
	CandidateCacheTTLSeconds int `mapstructure:"candidate_cache_ttl_seconds"` // 候选承运人缓存 TTL
}

// PushConfig 推送外发配置（尽力而为）
type PushConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	DedupeTTLSeconds  int  `mapstructure:"dedupe_ttl_seconds"`
	SendTimeoutMillis int  `mapstructure:"send_timeout_millis"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	ToggleLimit  ToggleLimitConfig  `mapstructure:"toggle_limit"`
	APIRateLimit APIRateLimitConfig `mapstructure:"api_rate_limit"`
}

// ToggleLimitConfig 上线/下线切换限制
type ToggleLimitConfig struct {
	WindowSeconds   int `mapstructure:"window_seconds"`   // 滑动窗口
	MaxToggles      int `mapstructure:"max_toggles"`      // 窗口内允许的切换次数
	CooldownSeconds int `mapstructure:"cooldown_seconds"` // 两次切换之间的最小间隔
	LockTTLSeconds  int `mapstructure:"lock_ttl_seconds"` // 切换互斥锁 TTL
}

// APIRateLimitConfig 热点接口限流
type APIRateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
}

// Load 从 config.yml 加载配置
func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")     // 从当前目录查找
	viper.AddConfigPath("./")    // 备用路径
	viper.AddConfigPath("../")   // 如果从 cmd/server 运行
	viper.AddConfigPath("./etc") // etc 文件夹

	// 设置默认值（可选）
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("log.dir", "")
	viper.SetDefault("log.filename", "dispatch.log")
	viper.SetDefault("log.max_size_mb", 100)
	viper.SetDefault("log.max_backups", 7)
	viper.SetDefault("log.max_age_days", 30)
	viper.SetDefault("log.compress", true)
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.dsn", "./db/huoyun.db")
	viper.SetDefault("database.pool.max_open_conns", 1)
	viper.SetDefault("database.pool.max_idle_conns", 1)
	viper.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	viper.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.host", "127.0.0.1")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.prefix", "hy")
	viper.SetDefault("queue.enabled", true)
	viper.SetDefault("queue.host", "127.0.0.1")
	viper.SetDefault("queue.port", 6379)
	viper.SetDefault("queue.password", "")
	viper.SetDefault("queue.db", 1)
	viper.SetDefault("queue.concurrency", 10)
	viper.SetDefault("queue.queues", map[string]int{
		"critical":  6,
		"default":   3,
		"broadcast": 1,
	})
	viper.SetDefault("dispatch.order_expire_minutes", 30)
	viper.SetDefault("dispatch.direct_notify_limit", 20)
	viper.SetDefault("dispatch.expiry_sweep_seconds", 60)
	viper.SetDefault("dispatch.expiry_sweep_batch", 100)
	viper.SetDefault("dispatch.notify_max_retry", 3)
	viper.SetDefault("presence.ttl_seconds", 60)
	viper.SetDefault("presence.sweep_seconds", 120)
	viper.SetDefault("presence.sweep_lock_seconds", 30)
	viper.SetDefault("presence.candidate_cache_ttl_seconds", 300)
	viper.SetDefault("push.enabled", false)
	viper.SetDefault("push.dedupe_ttl_seconds", 60)
	viper.SetDefault("push.send_timeout_millis", 2000)
	viper.SetDefault("cors.allowed_origins", []string{"*"})
	viper.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	viper.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-CSRF-Token",
	})
	viper.SetDefault("cors.allow_credentials", true)
	viper.SetDefault("cors.max_age", 600)
	viper.SetDefault("security.toggle_limit.window_seconds", 60)
	viper.SetDefault("security.toggle_limit.max_toggles", 6)
	viper.SetDefault("security.toggle_limit.cooldown_seconds", 5)
	viper.SetDefault("security.toggle_limit.lock_ttl_seconds", 5)
	viper.SetDefault("security.api_rate_limit.window_seconds", 60)
	viper.SetDefault("security.api_rate_limit.max_requests", 30)

	// 环境变量支持
	viper.SetEnvPrefix("HUOYUN")
	viper.AutomaticEnv()                                   // 自动读取环境变量
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // 将 . 替换为 _ (例如 server.port -> HUOYUN_SERVER_PORT)

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}

	return &cfg
}
