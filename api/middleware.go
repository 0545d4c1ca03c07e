package api

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/localink/localink/internal/domain"
	"github.com/localink/localink/internal/metrics"
	"go.uber.org/zap"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderUserID    = "X-User-ID"
	HeaderUserRole  = "X-User-Role"

	actorKey     = "actor"
	requestIDKey = "request_id"
)

type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// Logger writes one line per request. Errors attached with c.Error are
// logged at error level.
func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("client_ip", c.ClientIP()),
		}
		if actor, ok := actorFrom(c); ok {
			fields = append(fields, zap.String("actor_id", actor.ID))
		}
		if len(c.Errors) > 0 {
			log.Error("request failed", append(fields, zap.String("error", c.Errors.String()))...)
			return
		}
		log.Info("request", fields...)
	}
}

func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'self'; img-src 'self' https: data:; style-src 'self' 'unsafe-inline' https:; script-src 'self' 'unsafe-inline' https:")
		c.Next()
	}
}

// Identity reads the caller set by the session gateway. Requests without a
// valid identity continue anonymously; handlers that need one call
// requireActor.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderUserID)
		role := domain.Role(c.GetHeader(HeaderUserRole))
		if id != "" && role.Valid() {
			c.Set(actorKey, domain.Actor{ID: id, Role: role})
		}
		c.Next()
	}
}

// RateLimit applies limiter per client IP. Paths in exempt skip the check.
// A limiter failure lets the request through.
func RateLimit(limiter RateLimiter, log *zap.Logger, exempt ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if slices.Contains(exempt, c.Request.URL.Path) {
			c.Next()
			return
		}
		allowed, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			log.Warn("http rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			metrics.RateLimitRejections.WithLabelValues("http").Inc()
			respondError(c, fmt.Errorf("%w: too many requests", domain.ErrRateLimited))
			return
		}
		c.Next()
	}
}

func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func actorFrom(c *gin.Context) (domain.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return domain.Actor{}, false
	}
	actor, ok := v.(domain.Actor)
	return actor, ok
}

// requireActor aborts with 401 when the request carries no identity.
func requireActor(c *gin.Context) (domain.Actor, bool) {
	actor, ok := actorFrom(c)
	if !ok {
		respondError(c, fmt.Errorf("%w: sign in required", domain.ErrUnauthorized))
		return domain.Actor{}, false
	}
	return actor, true
}
