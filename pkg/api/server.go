// Package api exposes the HTTP surface: the streaming turn endpoint,
// conversation management, and health checks.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shreyasgm/ask-atlas-sub001/pkg/config"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/conversations"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/database"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/graph"
)

// Server wires the executor and stores into HTTP handlers.
type Server struct {
	executor      *graph.Executor
	conversations conversations.Store
	db            *database.Client // nil when running on in-memory stores
	cfg           *config.Config
}

// NewServer creates the API server. db may be nil.
func NewServer(executor *graph.Executor, store conversations.Store, db *database.Client, cfg *config.Config) *Server {
	return &Server{executor: executor, conversations: store, db: db, cfg: cfg}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.corsMiddleware())

	router.GET("/healthz", s.health)

	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/turns", s.streamTurn)
		apiGroup.GET("/sessions/:session_id/conversations", s.listConversations)
		apiGroup.GET("/conversations/:thread_id", s.getConversation)
		apiGroup.DELETE("/conversations/:thread_id", s.deleteConversation)
	}
	return router
}

// health reports process and database liveness.
func (s *Server) health(c *gin.Context) {
	status := gin.H{"status": "healthy"}
	if s.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
		status["database"] = "ok"
	}
	c.JSON(http.StatusOK, status)
}

// corsMiddleware allows the configured origins.
func (s *Server) corsMiddleware() gin.HandlerFunc {
	allowed := make(map[string]bool, len(s.cfg.CORSOrigins))
	for _, origin := range s.cfg.CORSOrigins {
		allowed[origin] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowed[origin] || allowed["*"]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type")
			c.Header("Access-Control-Max-Age", "3600")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// HTTPServer wraps the router in an http.Server with sane timeouts.
// Write timeout is disabled because turn streaming is long-lived.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              ":" + s.cfg.HTTPPort,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
