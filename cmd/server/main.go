package main

import (
	"log"
	"time"

	"github.com/jengzang/flight-schedule-go/internal/api"
	"github.com/jengzang/flight-schedule-go/internal/config"
	"github.com/jengzang/flight-schedule-go/internal/database"
	"github.com/jengzang/flight-schedule-go/internal/handler"
	"github.com/jengzang/flight-schedule-go/internal/ingest"
	"github.com/jengzang/flight-schedule-go/internal/middleware"
	"github.com/jengzang/flight-schedule-go/internal/repository"
	"github.com/jengzang/flight-schedule-go/internal/schedule"
	"github.com/jengzang/flight-schedule-go/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// 初始化数据库
	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close()
	db := database.GetDB()

	flights := repository.NewFlightRepository(db)
	distances := repository.NewDistanceRepository(db)
	tasks := repository.NewCleaningTaskRepository(db)

	engine := schedule.NewEngine(schedule.Options{ArrivalFillFromArrival: cfg.ArrivalFillFromArrival}, cfg.Workers)
	cleaning := service.NewCleaningService(engine,
		ingest.NewDirSource(cfg.DataDir), ingest.NewDirSink(cfg.OutputDir),
		flights, tasks, cfg.Workers)

	limiter := middleware.NewRateLimiter(cfg.RateLimit, time.Minute)
	defer limiter.Stop()

	// 初始化路由
	router := api.SetupRouter(cfg, api.Handlers{
		Schedule:  handler.NewScheduleHandler(engine),
		Flights:   handler.NewFlightHandler(flights),
		Distances: handler.NewDistanceHandler(distances),
		Cleaning:  handler.NewCleaningTaskHandler(cleaning),
	}, limiter)

	// 启动服务器
	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
