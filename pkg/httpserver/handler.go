package httpserver

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func (srv *HTTPServer) mapHandlers() {
	srv.gin.Use(gin.Recovery(), requestLogger())

	srv.gin.GET("/health", srv.healthCheck)
	srv.gin.GET("/ready", srv.readyCheck)

	if srv.mcp != nil {
		h := gin.WrapH(srv.mcp)
		srv.gin.GET("/mcp", h)
		srv.gin.POST("/mcp", h)
		srv.gin.DELETE("/mcp", h)
	}
	if srv.tools != nil {
		srv.gin.POST("/v1/tools/:tool", srv.tools.HandleTool)
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	}
}
