package middleware

import (
	"time"

	"vault/infrastructure/logger"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request through the shared logrus logger.
func RequestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		entry := logger.GetLogger().WithFields(log.Fields{
			"method":   ctx.Request.Method,
			"path":     ctx.Request.URL.Path,
			"status":   ctx.Writer.Status(),
			"latency":  time.Since(start).String(),
			"clientIp": ctx.ClientIP(),
		})
		if len(ctx.Errors) > 0 {
			entry.WithField("errors", ctx.Errors.String()).Error("Request failed")
			return
		}
		if ctx.Writer.Status() >= 500 {
			entry.Warn("Request served with server error")
			return
		}
		entry.Debug("Request served")
	}
}
