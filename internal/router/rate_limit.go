package router

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/huoyun-next/internal/http/response"
	"github.com/huoyun-next/internal/logger"
	"github.com/huoyun-next/internal/store"

	"github.com/gin-gonic/gin"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 限流规则
type RateLimitRule struct {
	Route         string
	WindowSeconds int
	MaxRequests   int
	Message       string
}

// RateLimitMiddleware 固定窗口限流中间件。
// 共享存储不可用时放行：限流是保护手段，不能反过来把入口打挂。
func RateLimitMiddleware(s store.Store, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s == nil || rule.WindowSeconds <= 0 || rule.MaxRequests <= 0 {
			c.Next()
			return
		}

		subject := ""
		if keyFunc != nil {
			subject = strings.TrimSpace(keyFunc(c))
		}
		if subject == "" {
			subject = c.ClientIP()
		}
		key := store.APIRateLimitKey(rule.Route, subject)

		window := time.Duration(rule.WindowSeconds) * time.Second
		count, ttl, err := s.IncrWithTTL(c.Request.Context(), key, window)
		if err != nil {
			logger.Warnw("rate_limit_store_unavailable", "key", key, "error", err)
			c.Next()
			return
		}

		if count > int64(rule.MaxRequests) {
			waitSeconds := int(ttl / time.Second)
			if waitSeconds < 1 {
				waitSeconds = rule.WindowSeconds
			}
			if waitSeconds < 1 {
				waitSeconds = 1
			}
			c.Writer.Header().Set("Retry-After", strconv.Itoa(waitSeconds))
			msg := strings.TrimSpace(rule.Message)
			if msg == "" {
				msg = fmt.Sprintf("too many requests, retry in %d seconds", waitSeconds)
			}
			response.TooManyRequests(c, msg)
			c.Abort()
			return
		}

		c.Next()
	}
}

// KeyByIP 使用 IP 作为限流 key
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyBySubject 已鉴权主体按 ID 限流，匿名请求回退 IP
func KeyBySubject(c *gin.Context) string {
	if id := getSubjectID(c); id != 0 {
		return fmt.Sprintf("subject:%d", id)
	}
	return c.ClientIP()
}
