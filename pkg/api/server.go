// Package api provides the HTTP/WebSocket surface: posting chat messages
// into a room over REST and streaming room events out over WebSocket
// (spec §6 "events"). The write path is REST-only; the WebSocket
// connection never carries structured client -> server messages, only the
// server -> client event envelope the broadcast executor fans out.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/agentrooms/pkg/database"
	"github.com/codeready-toolchain/agentrooms/pkg/executor/broadcast"
	"github.com/codeready-toolchain/agentrooms/pkg/values"
	"github.com/codeready-toolchain/agentrooms/pkg/version"
)

// Sender is the one method of *runtime.Runtime this package depends on
// (declared locally to avoid an import cycle, same rationale as the
// executor packages' Sender interfaces).
type Sender interface {
	Send(target values.ActorAddress, msg any)
}

// Server is the HTTP API server.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server

	dbClient     *database.Client
	broadcastExc *broadcast.Executor
	sender       Sender

	allowedOrigins []string
}

// NewServer creates a new API server with Gin, wired to dbClient for health
// checks, broadcastExc for WebSocket registration/fan-out, and sender for
// delivering posted chat messages into the runtime. allowedOrigins
// restricts which Origin header a WebSocket upgrade accepts; an empty
// slice allows any origin (development default).
func NewServer(dbClient *database.Client, broadcastExc *broadcast.Executor, sender Sender, allowedOrigins []string) *Server {
	s := &Server{
		router:         gin.New(),
		dbClient:       dbClient,
		broadcastExc:   broadcastExc,
		sender:         sender,
		allowedOrigins: allowedOrigins,
	}
	s.router.Use(gin.Recovery())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler)

	v1 := s.router.Group("/api/v1")
	v1.POST("/rooms/:roomId/messages", s.sendMessageHandler)
	v1.GET("/ws", s.wsHandler)
}

// Start starts the HTTP server on addr (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.router}
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// StartWithListener starts the HTTP server on a pre-created listener,
// used by test infrastructure to serve on a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.router}
	err := s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	dbHealth, err := database.Health(reqCtx, s.dbClient.DB())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"version":  version.Full(),
			"database": dbHealth,
			"error":    err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"version":  version.Full(),
		"database": dbHealth,
	})
}

func (s *Server) originAllowed(origin string) bool {
	if len(s.allowedOrigins) == 0 {
		return true
	}
	for _, o := range s.allowedOrigins {
		if o == origin {
			return true
		}
	}
	return false
}
