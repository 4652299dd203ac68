package handlers

import (
	"net/http"
	"time"

	"sports-meetup/internal/auth"
	"sports-meetup/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Services bundles what the HTTP surface calls into
type Services struct {
	Catalog *services.CatalogService
	Events  *services.EventService
	Chat    *services.ChatService
}

// NewRouter builds the gin engine with CORS, health check and API routes
func NewRouter(svc Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	catalogHandler := NewCatalogHandler(svc.Catalog)
	recordHandler := NewRecordHandler(svc.Events)
	messageHandler := NewMessageHandler(svc.Chat)

	api := router.Group("/api")
	{
		list := api.Group("/list")
		{
			list.GET("/sports", catalogHandler.ListSports)
			list.GET("/places", catalogHandler.ListPlaces)
			list.GET("/pairs", catalogHandler.ListPairs)
		}

		api.POST("/compute", catalogHandler.Compute)

		api.GET("/record/all", recordHandler.ListAll)
		api.GET("/record/:record_id", recordHandler.GetRecord)

		api.GET("/message/history", messageHandler.History)
	}

	// Token is passed through, never verified
	protected := router.Group("/api/record")
	protected.Use(auth.BearerMiddleware())
	{
		protected.POST("", recordHandler.CreateRecord)
		protected.GET("/user/:user_id", recordHandler.ListUser)
		protected.POST("/join/:record_id", recordHandler.Join)
		protected.DELETE("/leave/:record_id", recordHandler.Leave)
		protected.POST("/close/:record_id", recordHandler.Close)
		protected.DELETE("/delete/:record_id", recordHandler.Delete)
	}

	return router
}
