package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phuslu/log"
)

// NewRouter registers every route of the assistant API. metrics may be nil.
func NewRouter(c *AssistantController, metrics http.Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), cors())

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "assistant",
		})
	})
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	// Paths used by the original chat frontend.
	router.POST("/upload", c.UploadDocument)
	router.POST("/chat", c.Chat)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/documents", c.UploadDocument)
		apiV1.POST("/chat", c.Chat)
		apiV1.DELETE("/sessions/:id", c.ResetSession)
		apiV1.GET("/index", c.IndexStatus)
		apiV1.GET("/chunks", c.ListChunks)
	}
	return router
}

// requestLogger writes one log line per request.
func requestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		status := ctx.Writer.Status()
		entry := log.Info()
		if status >= http.StatusInternalServerError {
			entry = log.Error()
		} else if status >= http.StatusBadRequest {
			entry = log.Warn()
		}
		entry.Str("component", "http").
			Str("method", ctx.Request.Method).
			Str("path", ctx.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", ctx.ClientIP()).
			Msg("request")
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
