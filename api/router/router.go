// Package router wires the gin routes for the HTTP facade.
package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/orchestron-orchestrator/netcli/api/handler"
	"github.com/orchestron-orchestrator/netcli/internal/client"
	"github.com/orchestron-orchestrator/netcli/pkg/logger"
)

// SetupRouter builds the gin engine exposing the per-device operation
// endpoints and the session history endpoint, per SPEC_FULL.md §6.7.
func SetupRouter(registry *client.Registry) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(corsMiddleware())
	r.Use(requestIDMiddleware())
	r.Use(loggingMiddleware())

	deviceHandler := handler.NewDeviceHandler(registry)
	sessionHandler := handler.NewSessionHandler()

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"name": "netcli", "status": "running"})
	})

	v1 := r.Group("/api/v1")
	{
		devices := v1.Group("/devices")
		{
			devices.POST("/:name/command", deviceHandler.ExecuteCommand)
			devices.POST("/:name/configure", deviceHandler.Configure)
			devices.POST("/:name/rollback", deviceHandler.Rollback)
			devices.GET("/:name/state", deviceHandler.State)
		}
		v1.GET("/sessions", sessionHandler.List)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": "NOT_FOUND", "path": c.Request.URL.Path})
	})

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}
		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}

func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		requestID := c.GetString("request_id")
		status := c.Writer.Status()

		logger.WithFields(map[string]interface{}{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"duration":   duration,
		}).Info("http request")
	}
}

func generateRequestID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
