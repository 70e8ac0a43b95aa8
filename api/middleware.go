package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"green-roi/internal/errors"
	"green-roi/internal/metrics"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	unmatchedRoute  = "unmatched"
)

// requestID reuses the caller's X-Request-ID or assigns a new one
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// requestLogger logs and measures every request by route template
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		status := c.Writer.Status()
		metrics.ObserveRequest(route, strconv.Itoa(status), start)

		fields := []zap.Field{
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.Last().Error()))
		}
		if status >= http.StatusInternalServerError {
			logger.Error("request failed", fields...)
			return
		}
		logger.Info("request", fields...)
	}
}

// recovery turns a handler panic into an INTERNAL_ERROR response
func recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("handler panic",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Any("panic", recovered))
		writeError(c, errors.Internal("an unexpected error occurred", fmt.Errorf("panic: %v", recovered)))
	})
}

// errorBody is the JSON shape of every failed request
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// statusFor maps a domain error type to an HTTP status
func statusFor(t errors.Type) int {
	switch t {
	case errors.TypeInput, errors.TypePrecondition:
		return http.StatusBadRequest
	case errors.TypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	t := errors.TypeOf(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusFor(t), errorBody{
		Error: errorDetail{
			Code:    string(t),
			Message: err.Error(),
			Details: errors.Details(err),
		},
	})
}

func errNoRoute(path string) error {
	return errors.NotFound("route", path)
}
