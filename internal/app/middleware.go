package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"

	"feedback_rag/internal/telemetry"
)

const RequestIDHeader = "X-Request-ID"

// RequestID берёт X-Request-ID клиента или выдаёт новый
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get("request_id"); exists {
		if str, ok := id.(string); ok {
			return str
		}
	}
	return ""
}

func CORS(origins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}

	for _, o := range origins {
		if o == "*" {
			config.AllowAllOrigins = true
			break
		}
	}
	if !config.AllowAllOrigins {
		config.AllowOrigins = origins
		config.AllowCredentials = true
	}

	return cors.New(config)
}

func Tracing() gin.HandlerFunc {
	return otelgin.Middleware(telemetry.ServiceName)
}

func Metrics(m *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := "success"
		if c.Writer.Status() >= 400 {
			status = "error"
		}
		m.RecordRequest(c.Request.Context(), c.Request.Method, c.FullPath(), status, time.Since(start).Seconds())
	}
}

// RateLimit - общий token bucket на процесс. Health и ready не лимитируются.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	limiter := rate.NewLimiter(limit, burst)

	return func(c *gin.Context) {
		if c.FullPath() == "/health" || c.FullPath() == "/ready" {
			c.Next()
			return
		}

		if !limiter.Allow() {
			c.Header("Retry-After", "1")
			respondWithError(c, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests. Please try again later.")
			return
		}
		c.Next()
	}
}

// Timeout ограничивает время обработки запроса через контекст
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
