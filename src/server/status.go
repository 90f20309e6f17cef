package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"quote-relay/src/logger"
	"quote-relay/src/models"
	"quote-relay/src/subscription"
	"quote-relay/src/unifeeder"
	"quote-relay/src/watchdog"
)

// -----------------------------------------------------------------------------
// StatusServer
// -----------------------------------------------------------------------------

// StatusServer exposes read-only observability over the relay: subscription
// states, downstream client count and a websocket stream of normalized
// quotes for dashboards. It never mutates relay state.
type StatusServer struct {
	Config *models.MConfig
	Logger *logger.Logger
	engine *gin.Engine

	hub     *Hub
	table   *subscription.Table
	feeder  *unifeeder.Server
	monitor *watchdog.Monitor
	started time.Time
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewStatusServer(cfg *models.MConfig, table *subscription.Table, feeder *unifeeder.Server, monitor *watchdog.Monitor) *StatusServer {
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &StatusServer{
		Config:  cfg,
		Logger:  logger.NewLogger("StatusServer"),
		engine:  gin.Default(),
		hub:     NewHub(),
		table:   table,
		feeder:  feeder,
		monitor: monitor,
		started: time.Now(),
	}

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *StatusServer) setupRoutes() {
	// REST API endpoints
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/subscriptions", s.getSubscriptions)
	s.engine.GET("/api/clients", s.getClients)
	s.engine.GET("/api/config", s.getConfig)

	// WebSocket quote stream
	s.engine.GET("/ws", s.hub.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *StatusServer) Start(ctx context.Context, wg *sync.WaitGroup) {
	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)
	s.Logger.Info("status server on %s", addr)

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.hub.run()
	}()
	go func() {
		<-ctx.Done()
		s.hub.stop()
	}()

	go func() {
		if err := s.engine.Run(addr); err != nil {
			s.Logger.Error("status server: %v", err)
		}
	}()
}

// -----------------------------------------------------------------------------

// PublishQuote forwards a changed quote into the websocket hub.
func (s *StatusServer) PublishQuote(q models.MPublishedQuote) {
	s.hub.PublishQuote(q)
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *StatusServer) getHealth(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":          "ok",
		"uptime_seconds":  int(time.Since(s.started).Seconds()),
		"clients":         s.feeder.ClientCount(),
		"subscriptions":   s.table.Len(),
		"critical_errors": s.monitor.Count(),
	})
}

// -----------------------------------------------------------------------------

func (s *StatusServer) getSubscriptions(c *gin.Context) {
	entries := s.table.Snapshot()

	out := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		out = append(out, gin.H{
			"symbol":     e.Symbol,
			"request_id": e.RequestID,
			"status":     e.Status.String(),
		})
	}
	c.JSON(200, gin.H{"subscriptions": out})
}

// -----------------------------------------------------------------------------

func (s *StatusServer) getClients(c *gin.Context) {
	c.JSON(200, gin.H{
		"tcp_clients":       s.feeder.ClientCount(),
		"websocket_clients": s.hub.ClientCount(),
	})
}

// -----------------------------------------------------------------------------

func (s *StatusServer) getConfig(c *gin.Context) {
	translates := make([]gin.H, 0, len(s.Config.UniFeeder.Translates))
	for _, t := range s.Config.UniFeeder.Translates {
		translates = append(translates, gin.H{
			"symbol": t.Symbol,
			"source": t.Source,
			"digits": t.Digits,
		})
	}
	c.JSON(200, gin.H{
		"name":       s.Config.Name,
		"translates": translates,
	})
}
