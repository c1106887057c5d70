package httpapi

import (
	"net/http"
	"strings"
	"time"

	"leafscan/api/internal/config"
	"leafscan/api/internal/password"
	"leafscan/api/internal/service"
	"leafscan/api/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg         config.Config
	auth        *service.Auth
	predictions *service.Predictions
	log         *zap.Logger
	metrics     *metrics
	router      *gin.Engine
}

func NewServer(cfg config.Config, st store.Store, logger *zap.Logger) *Server {
	gin.SetMode(ginMode(cfg.HTTP.Mode))

	s := &Server{
		cfg:         cfg,
		auth:        service.NewAuth(st, password.NewBcrypt()),
		predictions: service.NewPredictions(st),
		log:         logger,
		metrics:     newMetrics(),
		router:      gin.New(),
	}
	s.setupMiddleware()
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(
		s.recoverMiddleware(),
		requestIDMiddleware(),
		s.loggingMiddleware(),
		s.metrics.middleware(),
		cors.New(corsConfig(s.cfg.AllowedOrigins())),
	)
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(s.metrics.handler()))

	s.router.POST("/login", s.handleLogin)
	s.router.POST("/register", s.handleRegister)

	s.router.GET("/predictions/:userid", s.handleListPredictions)
	s.router.POST("/predictions", s.handleCreatePrediction)
	s.router.GET("/predictions/detail/:id", s.handleGetPrediction)

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func ginMode(mode string) string {
	switch mode {
	case gin.DebugMode, gin.TestMode:
		return mode
	default:
		return gin.ReleaseMode
	}
}

// corsConfig allows every origin unless an explicit http(s) origin list is configured.
func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", requestIDHeader}
	cfg.ExposeHeaders = []string{requestIDHeader}

	var explicit []string
	for _, o := range origins {
		if o == "*" {
			explicit = nil
			break
		}
		if strings.HasPrefix(o, "http://") || strings.HasPrefix(o, "https://") {
			explicit = append(explicit, o)
		}
	}
	if len(explicit) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = explicit
	}
	return cfg
}
