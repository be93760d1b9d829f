package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/flight-schedule-go/internal/config"
	"github.com/jengzang/flight-schedule-go/internal/handler"
	"github.com/jengzang/flight-schedule-go/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by SetupRouter
type Handlers struct {
	Schedule  *handler.ScheduleHandler
	Flights   *handler.FlightHandler
	Distances *handler.DistanceHandler
	Cleaning  *handler.CleaningTaskHandler
}

// SetupRouter 设置路由. limiter guards the schedule endpoints; the caller
// owns it and stops it on shutdown.
func SetupRouter(cfg *config.Config, h Handlers, limiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Logger(), gin.Recovery())

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Flight schedule API is running",
		})
	})

	api := r.Group("/api/v1")
	{
		sched := api.Group("/schedule", middleware.RateLimit(limiter))
		{
			sched.POST("/repair", h.Schedule.Repair)
			sched.POST("/normalize", h.Schedule.Normalize)
		}

		api.GET("/flights", h.Flights.ListFlights)
		api.GET("/routes/distances", h.Distances.ListDistances)

		admin := api.Group("/admin", middleware.Auth(cfg.JWTSecret))
		{
			tasks := admin.Group("/cleaning/tasks")
			{
				tasks.POST("", h.Cleaning.CreateTask)
				tasks.GET("", h.Cleaning.ListTasks)
				tasks.GET("/:id", h.Cleaning.GetTask)
			}
		}
	}

	return r
}
