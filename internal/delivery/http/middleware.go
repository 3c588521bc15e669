package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"onlearn-client/internal/domain"
	"onlearn-client/pkg/logger"
	"onlearn-client/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "onlearn_devserver_requests_total",
	Help: "HTTP requests served by the dev backend.",
}, []string{"method", "route", "status"})

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "onlearn_devserver_request_duration_seconds",
	Help:    "HTTP request latency of the dev backend.",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "route"})

// AuthMiddleware validates the bearer token and stores user_id and role in
// the context. With roles given, any other role is rejected.
func AuthMiddleware(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			fail(c, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			fail(c, http.StatusUnauthorized, "Invalid auth header format")
			return
		}

		claims, err := utils.ValidateJWT(parts[1])
		if err != nil || claims.UserID == "" {
			fail(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		role := domain.Role(claims.Role)
		if len(roles) > 0 {
			allowed := false
			for _, r := range roles {
				if r == role {
					allowed = true
					break
				}
			}
			if !allowed {
				fail(c, http.StatusForbidden, "Forbidden access")
				return
			}
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", role)
		c.Next()
	}
}

// RequestLogger logs every request and feeds the request metrics.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		requestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		requestDuration.WithLabelValues(c.Request.Method, route).Observe(elapsed.Seconds())
		log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", elapsed,
		)
	}
}
