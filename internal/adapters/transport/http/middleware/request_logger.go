package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RequestLogger tags every request with an ID and logs it without tokens or
// cookies.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(requestIDKey, reqID)
		c.Header(RequestIDHeader, reqID)

		reqHeaders, _ := json.Marshal(scrub(c.Request.Header))
		log.Debug("incoming request",
			zap.String("request_id", reqID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("origin", c.GetHeader("Origin")),
			zap.ByteString("hdr", reqHeaders),
		)

		ts := time.Now()
		c.Next()

		latency := time.Since(ts)
		respStatus := c.Writer.Status()

		if c.IsAborted() {
			log.Warn("aborted",
				zap.String("request_id", reqID),
				zap.Int("status", respStatus),
				zap.Duration("latency", latency),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
			)
			return
		}

		for _, e := range c.Errors {
			log.Error("handler error",
				zap.String("request_id", reqID),
				zap.Int("status", respStatus),
				zap.Error(e),
				zap.String("path", c.Request.URL.Path),
			)
		}

		log.Info("completed",
			zap.String("request_id", reqID),
			zap.Int("status", respStatus),
			zap.Duration("latency", latency),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
	}
}

func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

func scrub(h http.Header) http.Header {
	clone := h.Clone()
	for k := range clone {
		lk := strings.ToLower(k)
		if strings.Contains(lk, "authorization") || strings.Contains(lk, "cookie") {
			clone[k] = []string{"[redacted]"}
		}
	}
	return clone
}
