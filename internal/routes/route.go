package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/tzevents/internal/container"
	"github.com/joshua-takyi/tzevents/internal/handlers"
	"github.com/joshua-takyi/tzevents/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	if container.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{container.Config.FrontendOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.ErrorHandler(container.Logger))

	secureCookies := container.Config.IsProduction()

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "OK",
				"service": "tzevents-api",
				"time":    time.Now().UTC(),
			})
		})
		v1.GET("/metrics", gin.WrapH(promhttp.Handler()))

		v1.POST("/auth/login", handlers.Login(container.ProfileService, secureCookies))
		v1.POST("/auth/logout", handlers.Logout(secureCookies))
	}

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(container.ProfileService, container.Logger))

	protected.GET("/auth/me", handlers.Me(container.ProfileService))

	profileRoutes := protected.Group("/profiles")
	{
		profileRoutes.POST("", middleware.AdminOnly(), handlers.CreateProfile(container.ProfileService))
		profileRoutes.GET("", handlers.ListProfiles(container.ProfileService))
		profileRoutes.GET("/:id", handlers.GetProfile(container.ProfileService))
		profileRoutes.PATCH("/:id", middleware.SelfOrAdmin(), handlers.UpdateProfile(container.ProfileService))
	}

	eventRoutes := protected.Group("/events")
	{
		eventRoutes.POST("", handlers.CreateEvent(container.EventService))
		eventRoutes.GET("", handlers.ListEvents(container.EventService))
		eventRoutes.GET("/:id", handlers.GetEvent(container.EventService))
		eventRoutes.PATCH("/:id", handlers.UpdateEvent(container.EventService))
		eventRoutes.DELETE("/:id", handlers.DeleteEvent(container.EventService))
		eventRoutes.GET("/:id/logs", handlers.ListEventLogs(container.EventService, container.LogService))
	}

	return r
}
