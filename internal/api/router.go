package api

import (
	"github.com/gin-gonic/gin"
	"github.com/takumi/specgen/internal/api/handler"
	"github.com/takumi/specgen/internal/api/middleware"
	"github.com/takumi/specgen/internal/config"
	"github.com/takumi/specgen/internal/logger"
	"github.com/takumi/specgen/internal/pipeline"
	"github.com/takumi/specgen/internal/repository"
	"github.com/takumi/specgen/internal/storage"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	repo *repository.JobRepository,
	store storage.ObjectStorage,
	runner *pipeline.Runner,
	cfg *config.ServerConfig,
	log *logger.Logger,
) *gin.Engine {
	// Set Gin mode
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(cfg.CORS))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	uploadHandler := handler.NewUploadHandler(repo, store, runner)
	statusHandler := handler.NewStatusHandler(repo)
	resultsHandler := handler.NewResultsHandler(repo, store)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API routes, matching the production gateway paths
	api := r.Group("/api")
	{
		api.POST("/upload", uploadHandler.Upload)
		api.POST("/upload_diff", uploadHandler.UploadDiff)
		api.GET("/status/:id", statusHandler.Status)
		api.GET("/download/:id", resultsHandler.Download)
		api.GET("/list-results", resultsHandler.List)
		api.DELETE("/delete/:id", resultsHandler.Delete)
	}

	return r
}
