package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"faqdesk/internal/pkg/logger"
	"faqdesk/internal/transport/http/middleware"
	"faqdesk/internal/transport/http/response"
)

// AIGate admits requests that will be answered by a generative provider.
// rate is the short AI window and may be nil when a middleware already
// applies it; quota is the long per-client allowance. Limiter failures
// let the request through.
type AIGate struct {
	rate  middleware.Limiter
	quota middleware.Limiter
	log   *logger.Logger
}

func NewAIGate(rate, quota middleware.Limiter, log *logger.Logger) *AIGate {
	if log == nil {
		log = logger.Nop()
	}
	return &AIGate{rate: rate, quota: quota, log: log}
}

// Admit writes the 429 response and returns false when the caller is over
// either limit. The quota is only consumed once the rate limit passes.
func (g *AIGate) Admit(c *gin.Context) bool {
	if g == nil {
		return true
	}
	key := middleware.ClientKey(c)

	if g.rate != nil {
		d, err := g.rate.Allow(c.Request.Context(), key)
		if err != nil {
			g.log.Warn("ai rate limiter unavailable", "error", err)
		} else {
			c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if !d.Allowed {
				c.Header("Retry-After", middleware.RetryAfterSeconds(d.RetryAfter))
				response.Error(c, http.StatusTooManyRequests, response.CodeTooManyRequests, middleware.MessageTooManyRequests)
				return false
			}
		}
	}

	if g.quota != nil {
		d, err := g.quota.Allow(c.Request.Context(), key)
		if err != nil {
			g.log.Warn("ai quota unavailable", "error", err)
			return true
		}
		c.Header(HeaderAILimit, strconv.Itoa(d.Limit))
		c.Header(HeaderAIRemaining, strconv.Itoa(d.Remaining))
		if !d.Allowed {
			c.Header("Retry-After", middleware.RetryAfterSeconds(d.RetryAfter))
			response.Error(c, http.StatusTooManyRequests, response.CodeQuotaExceeded, messageQuotaExceeded)
			return false
		}
	}
	return true
}
