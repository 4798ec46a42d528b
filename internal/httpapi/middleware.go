package httpapi

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/logging"
	"github.com/nikolayk812/storefront/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	principalKey    = "principal"
)

// requestContext assigns a request id and stores a request-scoped logger in the request context.
func requestContext(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Header(requestIDHeader, rid)

		logger := base.With(zap.String("request_id", rid))
		c.Request = c.Request.WithContext(logging.ContextWithLogger(c.Request.Context(), logger))

		c.Next()
	}
}

// accessLog writes one line per request and records HTTP metrics labelled by route template.
func accessLog(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		labels := []string{c.Request.Method, route, strconv.Itoa(status)}
		m.HTTPRequests.WithLabelValues(labels...).Inc()
		m.HTTPDuration.WithLabelValues(labels...).Observe(elapsed.Seconds())

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", elapsed),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}

		logger := logging.FromContext(c.Request.Context())
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("http_access", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("http_access", fields...)
		default:
			logger.Info("http_access", fields...)
		}
	}
}

const minLimiterIdle = time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter keeps one token bucket per client IP. Buckets idle for longer than a full refill
// are indistinguishable from new ones and are dropped by a sweep that runs at most once per idle period.
type ipLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	rate      rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newIPLimiter(r rate.Limit, burst int) *ipLimiter {
	if burst < 1 {
		burst = 1
	}

	idle := minLimiterIdle
	if r > 0 && r != rate.Inf {
		if refill := time.Duration(float64(burst) / float64(r) * float64(time.Second)); refill > idle {
			idle = refill
		}
	}

	return &ipLimiter{
		clients:   make(map[string]*clientLimiter),
		rate:      r,
		burst:     burst,
		idle:      idle,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idle {
		for key, client := range l.clients {
			if now.Sub(client.lastSeen) >= l.idle {
				delete(l.clients, key)
			}
		}
		l.lastSweep = now
	}

	client, ok := l.clients[ip]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.clients[ip] = client
	}
	client.lastSeen = now

	return client.limiter
}

func rateLimit(l *ipLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// identity resolves the Authorization header. A missing or invalid token yields the anonymous principal;
// use cases decide whether that is acceptable.
func identity(resolver PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := domain.Anonymous()
		if resolver != nil {
			p = resolver.ResolveHeader(c.GetHeader("Authorization"))
		}
		c.Set(principalKey, p)

		if !p.IsAnonymous() {
			logger := logging.FromContext(c.Request.Context()).With(zap.String("user_id", p.UserID))
			c.Request = c.Request.WithContext(logging.ContextWithLogger(c.Request.Context(), logger))
		}

		c.Next()
	}
}

func principalFrom(c *gin.Context) domain.Principal {
	if p, ok := c.Get(principalKey); ok {
		if principal, ok := p.(domain.Principal); ok {
			return principal
		}
	}
	return domain.Anonymous()
}
