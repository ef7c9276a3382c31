package server

import (
	"context"
	"time"

	"recruitment-portal/config"
	"recruitment-portal/internal/database"
	"recruitment-portal/internal/email"
	"recruitment-portal/internal/handlers"
	"recruitment-portal/internal/middleware"
	"recruitment-portal/internal/storage"
	"recruitment-portal/pkg/auth"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Server represents the HTTP server
type Server struct {
	Router   *gin.Engine
	config   *config.Config
	logger   *zap.Logger
	sessions *auth.SessionService
	db       *gorm.DB

	// Handlers
	authHandler        *handlers.AuthHandler
	applicationHandler *handlers.ApplicationHandler
	vacancyHandler     *handlers.VacancyHandler
	rankingHandler     *handlers.RankingHandler
	adminHandler       *handlers.AdminHandler
	legacyHandler      *handlers.LegacyHandler
}

// New creates a new server instance
func New(cfg *config.Config, logger *zap.Logger, db *gorm.DB) *Server {
	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	sessions := auth.NewSessionService(cfg)

	store := newBlobStore(cfg, logger)
	cvs := storage.NewCVManager(db, store, logger)
	mailer := email.NewEmailService(cfg, logger)

	server := &Server{
		Router:             router,
		config:             cfg,
		logger:             logger,
		sessions:           sessions,
		db:                 db,
		authHandler:        handlers.NewAuthHandler(cfg, sessions, logger),
		applicationHandler: handlers.NewApplicationHandler(db, logger, cvs, mailer, cfg.Upload.MaxSize),
		vacancyHandler:     handlers.NewVacancyHandler(db, logger),
		rankingHandler:     handlers.NewRankingHandler(db, logger),
		adminHandler:       handlers.NewAdminHandler(db, logger, cvs),
		legacyHandler:      handlers.NewLegacyHandler(db, logger, cvs, cfg.Upload.MaxSize),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// newBlobStore picks the configured CV blob backend
func newBlobStore(cfg *config.Config, logger *zap.Logger) storage.BlobStore {
	store, err := storage.NewFromConfig(context.Background(), cfg)
	if err != nil {
		logger.Fatal("Failed to initialize blob store", zap.Error(err))
	}
	return store
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	s.Router.Use(middleware.RequestIDMiddleware())
	s.Router.Use(middleware.RecoveryMiddleware(s.logger))
	s.Router.Use(middleware.SecurityHeadersMiddleware())

	s.Router.Use(middleware.CORSMiddleware(
		s.config.CORS.Origins,
		s.config.CORS.Credentials,
	))

	s.Router.Use(middleware.LoggingMiddleware(s.logger))
}

// setupRoutes configures API routes
func (s *Server) setupRoutes() {
	// Health check endpoints
	s.Router.GET("/health", s.healthCheck)
	s.Router.HEAD("/health", s.healthCheck)
	s.Router.GET("/ready", s.readinessCheck)
	s.Router.HEAD("/ready", s.readinessCheck)

	// Swagger documentation
	if s.config.IsDevelopment() {
		s.Router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Public submissions share one limiter, the legacy upload gets its
	// own tighter one so sheet automations cannot starve candidates
	window := time.Duration(s.config.RateLimit.Window) * time.Second
	submitLimiter := middleware.NewRateLimiter(s.config.RateLimit.Requests, window)
	legacyRequests := s.config.RateLimit.Requests / 2
	if legacyRequests < 1 {
		legacyRequests = 1
	}
	legacyLimiter := middleware.NewRateLimiter(legacyRequests, window)

	// Session endpoints
	authGroup := s.Router.Group("/api/auth")
	{
		authGroup.POST("/admin", s.authHandler.Login)
		authGroup.DELETE("/admin", s.authHandler.Logout)
		authGroup.GET("/admin", s.authHandler.Status)
	}

	// Legacy spreadsheet surface
	s.Router.GET("/api/legacy",
		middleware.LegacyQueryAuth(s.config),
		s.legacyHandler.Query)
	s.Router.POST("/api/upload/legacy",
		middleware.RateLimitMiddleware(legacyLimiter, s.logger),
		middleware.LegacyUploadAuth(s.config),
		s.legacyHandler.Upload)

	// API v1 routes
	v1 := s.Router.Group("/api/v1")
	{
		// Public routes (no authentication required)
		v1.GET("/public/vacancies", s.vacancyHandler.ListPublicVacancies)
		v1.POST("/applications",
			middleware.RateLimitMiddleware(submitLimiter, s.logger),
			s.applicationHandler.CreateApplication)

		// Protected routes (session or bearer token required)
		protected := v1.Group("")
		protected.Use(middleware.SessionAuth(s.sessions, s.config))
		{
			applications := protected.Group("/applications")
			{
				applications.GET("", s.applicationHandler.ListApplications)
				applications.GET("/:id", s.applicationHandler.GetApplication)
				applications.PUT("/:id", middleware.RequireAdmin(), s.applicationHandler.UpdateApplication)
			}

			vacancies := protected.Group("/vacancies")
			{
				vacancies.GET("", s.vacancyHandler.ListVacancies)
				vacancies.POST("", middleware.RequireAdmin(), s.vacancyHandler.CreateVacancy)
				vacancies.PUT("/:id", middleware.RequireAdmin(), s.vacancyHandler.UpdateVacancy)
			}

			rankings := protected.Group("/rankings")
			{
				rankings.GET("/:applicationId", s.rankingHandler.GetRanking)
				rankings.POST("", middleware.RequireAdmin(), s.rankingHandler.CreateRanking)
				rankings.PUT("/:applicationId", middleware.RequireAdmin(), s.rankingHandler.UpdateRanking)
			}

			admin := protected.Group("/admin")
			{
				admin.GET("/stats", s.adminHandler.GetStats)
				admin.GET("/blobs", s.adminHandler.ListBlobs)
				admin.DELETE("/blobs", middleware.RequireAdmin(), s.adminHandler.DeleteBlob)
			}
		}
	}

	// Serve stored CVs directly when running on the local blob store
	if s.config.IsDevelopment() && !s.config.Blob.UseS3 {
		s.Router.Static("/cvs", s.config.Blob.LocalPath)
	}
}

// healthCheck handles health check requests
// @Summary Health check
// @Description Check if the service is running
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
		"service":   "recruitment-portal-api",
	})
}

// readinessCheck handles readiness check requests
// @Summary Readiness check
// @Description Check if the service is ready to serve requests
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /ready [get]
func (s *Server) readinessCheck(c *gin.Context) {
	if err := database.IsHealthy(); err != nil {
		s.logger.Error("Database health check failed", zap.Error(err))
		c.JSON(503, gin.H{
			"status":    "not ready",
			"timestamp": time.Now().UTC(),
			"error":     "Database connection failed",
		})
		return
	}

	c.JSON(200, gin.H{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
		"service":   "recruitment-portal-api",
		"checks": gin.H{
			"database": "healthy",
		},
	})
}
