package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/VasiKumar/ClassAI/internal/handlers"
)

type RouterConfig struct {
	ReportHandler  *handlers.ReportHandler
	SessionHandler *handlers.SessionHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Reports
		api.GET("/reports", cfg.ReportHandler.List)
		api.GET("/reports/:name", cfg.ReportHandler.Get)
		api.DELETE("/reports/:name", cfg.ReportHandler.Delete)
		// Session control
		api.GET("/session/status", cfg.SessionHandler.Status)
		api.POST("/session/start", cfg.SessionHandler.Start)
		api.POST("/session/stop", cfg.SessionHandler.Stop)
	}

	return router
}
