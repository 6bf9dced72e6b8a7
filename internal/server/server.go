// Package server is the HTTP surface: auth endpoints plus the authenticated
// read and sync routes for transactions and goals.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/NgigiN/savepesa/internal/auth"
	"github.com/NgigiN/savepesa/internal/config"
	"github.com/NgigiN/savepesa/internal/storage"
	"github.com/NgigiN/savepesa/internal/syncer"
)

type Server struct {
	db     *storage.Database
	rec    *syncer.Reconciler
	issuer *auth.Issuer
	logger *slog.Logger
	http   *http.Server
	engine *gin.Engine
}

func New(cfg *config.Config, db *storage.Database) *Server {
	s := &Server{
		db:     db,
		rec:    syncer.NewReconciler(db),
		issuer: auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		logger: slog.Default(),
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), gin.Logger(), cors.Default(), requestID())
	s.registerRoutes(engine)

	s.engine = engine
	s.http = &http.Server{Addr: cfg.Addr, Handler: engine}
	return s
}

func (s *Server) registerRoutes(engine *gin.Engine) {
	engine.GET("/health", s.handleHealth)

	api := engine.Group("/api")
	api.POST("/register", s.handleRegister)
	api.POST("/login", s.handleLogin)

	authed := api.Group("", s.requireAuth())
	{
		authed.GET("/transactions", s.handleListTransactions)
		authed.POST("/transactions/sync", s.handleSyncTransactions)
		authed.POST("/transactions/parse", s.handleParseConfirmation)
		authed.GET("/goals", s.handleListGoals)
		authed.POST("/goals/sync", s.handleSyncGoals)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) Start() error { return s.http.ListenAndServe() }

func (s *Server) Shutdown(ctx context.Context) error { return s.http.Shutdown(ctx) }
