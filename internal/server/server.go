package server

import (
	"context"
	_ "embed"
	"errors"
	"log"
	"net/http"
	"strings"

	"CoinTerminal/internal/catalog"
	"CoinTerminal/internal/config"
	"CoinTerminal/internal/model"
	"CoinTerminal/internal/scheduler"
	"CoinTerminal/internal/snapshot"

	"github.com/gin-gonic/gin"
)

//go:embed web/index.html
var indexHTML []byte

// Server exposes the dashboard API and WebSocket push over gin.
type Server struct {
	cfg     *config.Config
	engine  *gin.Engine
	store   *snapshot.Store
	sched   *scheduler.Scheduler
	catalog catalog.Catalog
	hub     *Hub
	httpSrv *http.Server
}

// New creates the server and wires all routes.
func New(cfg *config.Config, store *snapshot.Store, sched *scheduler.Scheduler, cat catalog.Catalog) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:     cfg,
		engine:  gin.New(),
		store:   store,
		sched:   sched,
		catalog: cat,
		hub:     NewHub(),
	}
	s.engine.Use(gin.Recovery())
	s.engine.Use(s.cors())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/", s.index)

	api := s.engine.Group("/api")
	api.GET("/quotes", s.getQuotes)
	api.GET("/quotes/:symbol", s.getQuote)
	api.GET("/summary", s.getSummary)
	api.POST("/refresh", s.postRefresh)
	api.GET("/search", s.getSearch)
	api.GET("/health", s.getHealth)

	s.engine.GET("/ws", s.handleWebSocket)
}

func (s *Server) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) originAllowed(origin string) bool {
	if s.cfg.Server.CORSOrigin == "*" || origin == s.cfg.Server.CORSOrigin {
		return true
	}
	return strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:")
}

// Start runs the hub and blocks serving HTTP until Shutdown.
func (s *Server) Start() error {
	go s.hub.Run()

	s.httpSrv = &http.Server{Addr: s.cfg.Server.Addr, Handler: s.engine}
	log.Printf("[INFO] serving dashboard on %s", s.cfg.Server.Addr)
	if err := s.httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP listener and disconnects WebSocket clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Stop()
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Broadcast pushes a fresh snapshot to all connected dashboards.
func (s *Server) Broadcast(snap *model.Snapshot) {
	s.hub.Broadcast(snapshotMessage(snap))
}

func (s *Server) index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}
