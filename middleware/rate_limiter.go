package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"topvalidation-http-service/internal/error/code"
	"topvalidation-http-service/internal/error/response"
)

// tokenBucket 简单的令牌桶限流器
type tokenBucket struct {
	rate       float64   // 每秒填充的令牌数
	capacity   int       // 桶的容量
	tokens     float64   // 当前令牌数
	lastRefill time.Time // 上次填充时间
	lastSeen   time.Time // 最近一次使用时间，用于清理
	mu         sync.Mutex
}

func newTokenBucket(rate float64, capacity int) *tokenBucket {
	now := time.Now()
	return &tokenBucket{
		rate:       rate,
		capacity:   capacity,
		tokens:     float64(capacity),
		lastRefill: now,
		lastSeen:   now,
	}
}

// allow 尝试获取令牌
func (tb *tokenBucket) allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.lastRefill = now
	tb.lastSeen = now

	// 填充令牌
	tb.tokens += elapsed * tb.rate
	if tb.tokens > float64(tb.capacity) {
		tb.tokens = float64(tb.capacity)
	}

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

var (
	limiters   = make(map[string]*tokenBucket)
	limitersMu sync.Mutex
)

func getLimiter(key string, rate float64, burst int) *tokenBucket {
	limitersMu.Lock()
	defer limitersMu.Unlock()

	limiter, exists := limiters[key]
	if !exists {
		limiter = newTokenBucket(rate, burst)
		limiters[key] = limiter
	}
	return limiter
}

// RateLimiter 创建限流中间件。
// 已登录请求按用户限流，匿名请求退回到按IP限流
func RateLimiter(rate float64, burst int) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString("userID")
		if key == "" {
			key = c.ClientIP()
		}

		if !getLimiter(key, rate, burst).allow() {
			response.Fail(c, code.ErrTooManyRequests, "请求频率过高，请稍后再试", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// 定期清理长时间未使用的限流器
func init() {
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			cutoff := time.Now().Add(-1 * time.Hour)
			limitersMu.Lock()
			for key, limiter := range limiters {
				limiter.mu.Lock()
				stale := limiter.lastSeen.Before(cutoff)
				limiter.mu.Unlock()
				if stale {
					delete(limiters, key)
				}
			}
			limitersMu.Unlock()
		}
	}()
}
