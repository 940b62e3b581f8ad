package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/emilythestrangee/recipe-votes/backend/internal/auth"
	"github.com/emilythestrangee/recipe-votes/backend/internal/config"
	"github.com/emilythestrangee/recipe-votes/backend/internal/handlers"
	"github.com/emilythestrangee/recipe-votes/backend/internal/middleware"
)

// HealthChecker reports the state of the storage layer.
type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}

type Server struct {
	cfg      *config.Config
	db       HealthChecker
	handler  *handlers.Handler
	verifier auth.Verifier
	logger   *zap.Logger
}

// NewServer creates and configures a new server
func NewServer(cfg *config.Config, db HealthChecker, handler *handlers.Handler, verifier auth.Verifier, logger *zap.Logger) *http.Server {
	newServer := &Server{
		cfg:      cfg,
		db:       db,
		handler:  handler,
		verifier: verifier,
		logger:   logger,
	}

	return &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      newServer.RegisterRoutes(),
		IdleTimeout:  cfg.Server.IdleTimeout,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorLog:     zap.NewStdLog(logger.Named("http")),
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(s.logger))

	// Credentialed requests cannot use a wildcard origin.
	allowAll := len(s.cfg.Server.CORSOrigins) == 0 || s.cfg.Server.CORSOrigins[0] == "*"
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: !allowAll,
		MaxAge:           12 * time.Hour,
	}
	if allowAll {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.cfg.Server.CORSOrigins
	}
	r.Use(cors.New(corsCfg))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		stats := s.db.Health(c.Request.Context())
		status := http.StatusOK
		if stats["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, stats)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	cookie := s.cfg.JWT.CookieName

	// API routes
	api := r.Group("/api")
	{
		// Public reads
		api.GET("/leaderboard", s.handler.Leaderboard.GetLeaderboard)
		api.GET("/recipes/top", s.handler.Leaderboard.GetTopRecipes)
		api.GET("/top-chefs", s.handler.Leaderboard.GetTopChefs)
		api.GET("/users/:id", s.handler.User.GetUserProfile)
		api.GET("/recipes/:id/vote", middleware.OptionalAuth(s.verifier, cookie), s.handler.Vote.GetVoteStatus)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(s.verifier, cookie))
		{
			protected.POST("/recipes/:id/vote", s.handler.Vote.ToggleVote)
		}
	}

	return r
}
