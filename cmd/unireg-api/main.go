package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campusops/unireg-api/api/swagger"
	"github.com/campusops/unireg-api/internal/handler"
	"github.com/campusops/unireg-api/internal/middleware"
	"github.com/campusops/unireg-api/internal/service"
	"github.com/campusops/unireg-api/internal/store"
	"github.com/campusops/unireg-api/pkg/config"
	"github.com/campusops/unireg-api/pkg/database"
	"github.com/campusops/unireg-api/pkg/logger"
	corsmiddleware "github.com/campusops/unireg-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campusops/unireg-api/pkg/middleware/requestid"
)

// @title UniReg API
// @version 0.1.0
// @description University course registration service
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	st, cleanup, err := openStore(cfg)
	if err != nil {
		logr.Sugar().Fatalw("failed to open store", "backend", cfg.Store.Backend, "error", err)
	}
	defer cleanup()

	metricsSvc := service.NewMetricsService()
	instrumented := store.Instrument(st, metricsSvc.ObserveStoreOp)

	studentSvc := service.NewStudentService(instrumented, logr)
	courseSvc := service.NewCourseService(instrumented, logr)
	registrationSvc := service.NewRegistrationService(instrumented, nil, logr)
	statsSvc := service.NewStatsService(instrumented, logr, service.StatsServiceConfig{
		SeatsPerCourse:  cfg.Stats.SeatsPerCourse,
		TopCoursesLimit: cfg.Stats.TopCoursesLimit,
	})
	adminSvc := service.NewAdminService(studentSvc, courseSvc, registrationSvc, statsSvc, nil, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, cfg.Store.OpTimeout, handler.Handlers{
		Students:      handler.NewStudentHandler(studentSvc),
		Courses:       handler.NewCourseHandler(courseSvc),
		Registrations: handler.NewRegistrationHandler(registrationSvc),
		Stats:         handler.NewStatsHandler(statsSvc),
		Admin:         handler.NewAdminHandler(adminSvc),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "store", cfg.Store.Backend)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func openStore(cfg *config.Config) (store.Store, func(), error) {
	switch cfg.Store.Backend {
	case config.StorePostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		pg := store.NewPostgres(db)
		return pg, func() { _ = pg.Close() }, nil
	case config.StoreMemory:
		mem := store.NewMemory()
		return mem, func() { _ = mem.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
