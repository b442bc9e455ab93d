package logging

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	RequestIDHeader = "X-Request-Id"
	requestIDKey    = "request_id"
	skipGinLogKey   = "__gin_skip_request_logging__"
)

// GinLogrusLogger logs one line per request with structured fields and
// propagates or assigns an X-Request-Id.
func GinLogrusLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		requestID := c.Request.Header.Get(RequestIDHeader)
		if strings.TrimSpace(requestID) == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)

		c.Next()

		if shouldSkipGinRequestLogging(c) {
			return
		}
		if raw != "" {
			path = path + "?" + raw
		}

		latency := time.Since(start).Truncate(time.Millisecond)
		statusCode := c.Writer.Status()
		clientIP := c.ClientIP()
		method := c.Request.Method

		logLine := fmt.Sprintf("[GIN] %3d | %13v | %15s | %-7s \"%s\"", statusCode, latency, clientIP, method, path)
		if msg := c.Errors.ByType(gin.ErrorTypePrivate).String(); msg != "" {
			logLine = logLine + " | " + msg
		}

		fields := log.Fields{
			"status":     statusCode,
			"latency_ms": latency.Milliseconds(),
			"client_ip":  clientIP,
			"method":     method,
			"path":       path,
			"request_id": requestID,
		}
		if ua := c.Request.UserAgent(); ua != "" {
			if len(ua) > 180 {
				ua = ua[:180] + "..."
			}
			fields["user_agent"] = ua
		}

		entry := log.WithFields(fields)
		switch {
		case statusCode >= http.StatusInternalServerError:
			entry.Error(logLine)
		case statusCode >= http.StatusBadRequest:
			entry.Warn(logLine)
		default:
			entry.Info(logLine)
		}
	}
}

// GinLogrusRecovery turns a handler panic into a logged 500.
func GinLogrusRecovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.WithFields(log.Fields{
			"panic": recovered,
			"stack": string(debug.Stack()),
			"path":  c.Request.URL.Path,
		}).Error("recovered from panic")

		c.AbortWithStatus(http.StatusInternalServerError)
	})
}

// RequestID returns the id GinLogrusLogger assigned to the request.
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// SkipGinRequestLogging suppresses the log line for this request. Used for
// health and metrics scrapes.
func SkipGinRequestLogging(c *gin.Context) {
	if c == nil {
		return
	}
	c.Set(skipGinLogKey, true)
}

func shouldSkipGinRequestLogging(c *gin.Context) bool {
	if c == nil {
		return false
	}
	return c.GetBool(skipGinLogKey)
}
