package internalhttp

import (
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithField("ip", c.ClientIP()).WithField("method", c.Request.Method).
			WithField("path", c.Request.URL.Path).WithField("status", c.Writer.Status()).
			WithField("user-agent", c.Request.Header.Get("user-agent")).
			WithField("latency", time.Since(start)).
			Info("http request processed")
	}
}
