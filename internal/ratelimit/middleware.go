package ratelimit

import (
	"math"
	"strconv"
	"time"

	"todo-platform/internal/apperr"
	"todo-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// Middleware limits routes that have a policy, keyed by the matched route template.
// Register it globally; routes without a policy pass through untouched.
//
// Limited responses always carry X-RateLimit-Limit and X-RateLimit-Remaining.
// Denied responses add X-RateLimit-Reset (unix seconds) and Retry-After.
// Store failures reject the request with 503.
func Middleware(l *Limiter, policies *Policies, trustProxy bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		pol, ok := policies.Lookup(c.Request.Method, c.FullPath())
		if !ok {
			c.Next()
			return
		}

		key := Key(pol.Endpoint, pol.Method, ClientAddress(c.Request, trustProxy))
		res, err := l.CheckAndConsume(c.Request.Context(), key, pol.MaxRequests, pol.Window)
		if err != nil {
			decisionsTotal.WithLabelValues(pol.Endpoint, "error").Inc()
			logger.FromGin(c).Error("rate limit check failed", "endpoint", pol.Endpoint, "err", err)
			apperr.Abort(c, apperr.Wrap(apperr.KindUnavailable, "rate_limit_unavailable", "service temporarily unavailable", err))
			return
		}

		h := c.Writer.Header()
		h.Set(HeaderLimit, strconv.Itoa(res.Limit))
		h.Set(HeaderRemaining, strconv.Itoa(res.Remaining))

		if !res.Allowed {
			decisionsTotal.WithLabelValues(pol.Endpoint, "denied").Inc()
			h.Set(HeaderReset, strconv.FormatInt(ceilUnix(res.ResetAt), 10))
			h.Set(HeaderRetryAfter, strconv.FormatInt(ceilSeconds(res.RetryAfter), 10))
			logger.FromGin(c).Info("rate limit exceeded", "endpoint", pol.Endpoint, "retry_after_ms", res.RetryAfter.Milliseconds())
			apperr.Abort(c, apperr.New(apperr.KindRateLimited, "rate_limit_exceeded", "too many requests, please try again later"))
			return
		}

		decisionsTotal.WithLabelValues(pol.Endpoint, "allowed").Inc()
		c.Next()
	}
}

func ceilUnix(t time.Time) int64 {
	sec := t.Unix()
	if t.Nanosecond() > 0 {
		sec++
	}
	return sec
}

func ceilSeconds(d time.Duration) int64 {
	s := int64(math.Ceil(d.Seconds()))
	if s < 1 {
		s = 1
	}
	return s
}
