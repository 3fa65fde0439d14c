package middleware

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"faqdesk/internal/pkg/logger"
	"faqdesk/internal/ratelimit"
	"faqdesk/internal/transport/http/response"
)

const (
	HeaderClientID  = "X-Client-Id"
	defaultClientID = "no-client"
	maxClientIDLen  = 128

	MessageTooManyRequests = "Bạn thao tác quá nhanh. Vui lòng thử lại sau."
)

// Limiter is satisfied by *ratelimit.Limiter.
type Limiter interface {
	Allow(ctx context.Context, key string) (ratelimit.Decision, error)
}

// ClientKey identifies a caller as "<ip>|<client id>".
func ClientKey(c *gin.Context) string {
	id := strings.TrimSpace(c.GetHeader(HeaderClientID))
	if id == "" {
		id = defaultClientID
	}
	if len(id) > maxClientIDLen {
		id = id[:maxClientIDLen]
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return ip + "|" + id
}

// RateLimit rejects requests over the limit with 429 and Retry-After. A
// failing limiter store lets the request through.
func RateLimit(l Limiter, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := l.Allow(c.Request.Context(), ClientKey(c))
		if err != nil {
			log.Warn("rate limiter unavailable", "error", err)
			c.Next()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			c.Header("Retry-After", RetryAfterSeconds(d.RetryAfter))
			response.Error(c, 429, response.CodeTooManyRequests, MessageTooManyRequests)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RetryAfterSeconds rounds up to whole seconds, minimum one.
func RetryAfterSeconds(d time.Duration) string {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
