package api

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/clipfetch/api/handlers"
	"github.com/yourusername/clipfetch/api/middleware"
	"github.com/yourusername/clipfetch/internal/telemetry"
	"github.com/yourusername/clipfetch/web"
)

// RouterDeps holds the services the routes are wired to
type RouterDeps struct {
	Downloads handlers.DownloadService
	Hub       handlers.ProgressServer
	Telemetry *telemetry.Telemetry
	Version   string
	Logger    *zap.Logger
}

// SetupRouter sets up the HTTP router
func SetupRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(deps.Logger))
	router.Use(middleware.Recovery(deps.Logger))
	router.Use(middleware.Metrics(deps.Telemetry))
	router.Use(middleware.CORS())

	// Form page
	router.SetHTMLTemplate(template.Must(web.Templates()))
	router.StaticFS("/static", web.StaticFS())
	router.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, web.IndexTemplate, gin.H{"version": deps.Version})
	})

	// Download endpoint and progress channel
	downloadHandler := handlers.NewDownloadHandler(deps.Downloads, deps.Logger)
	router.POST("/download", downloadHandler.Download)

	socketHandler := handlers.NewProgressSocketHandler(deps.Hub, deps.Logger)
	router.GET("/ws", socketHandler.HandleWebSocket)

	// Health and metrics
	healthHandler := handlers.NewHealthHandler(deps.Downloads, deps.Version)
	router.GET("/health", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(deps.Telemetry.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		downloads := v1.Group("/downloads")
		{
			downloads.GET("", downloadHandler.ListDownloads)
			downloads.GET("/:id", downloadHandler.GetDownload)
			downloads.POST("/:id/cancel", downloadHandler.CancelDownload)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
