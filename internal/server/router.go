package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/moneybadgers/walkthrough-backend/internal/handlers"
)

type RouterConfig struct {
	ServiceName        string
	SessionHandler     *handlers.SessionHandler
	ClassifyHandler    *handlers.ClassifyHandler
	EventsHandler      *handlers.EventsHandler
	LeaderboardHandler *handlers.LeaderboardHandler
	CatalogHandler     *handlers.CatalogHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware(cfg.ServiceName))

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
	router.GET("/catalog", cfg.CatalogHandler.List)

	// Session lifecycle
	router.POST("/session", cfg.SessionHandler.Create)
	router.GET("/session/current", cfg.SessionHandler.Current)
	router.POST("/session/items", cfg.SessionHandler.AddItem)
	router.POST("/session/reset", cfg.SessionHandler.Reset)
	router.POST("/items", cfg.SessionHandler.AddItemByName)

	// Classification
	router.POST("/classify-item", cfg.ClassifyHandler.Classify)

	// Event stream
	router.GET("/events", cfg.EventsHandler.Stream)

	// Leaderboard
	router.GET("/leaderboard", cfg.LeaderboardHandler.Top)
	router.DELETE("/leaderboard", cfg.LeaderboardHandler.Wipe)

	return router
}
