package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CloudDevOpsMaster/mapslibre-sub000/internal/adapter/handler"
	"github.com/CloudDevOpsMaster/mapslibre-sub000/internal/adapter/logger"
	"github.com/CloudDevOpsMaster/mapslibre-sub000/internal/adapter/storage/postgres"
	redis_adapter "github.com/CloudDevOpsMaster/mapslibre-sub000/internal/adapter/storage/redis"
	ws "github.com/CloudDevOpsMaster/mapslibre-sub000/internal/adapter/websocket"
	"github.com/CloudDevOpsMaster/mapslibre-sub000/internal/config"
	"github.com/CloudDevOpsMaster/mapslibre-sub000/internal/core/service"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLogger, _ := logger.New(cfg.Env)
	defer appLogger.Sync()

	dbConfig, err := pgxpool.ParseConfig(cfg.DBUrl)
	if err != nil {
		appLogger.Fatal("unable to parse db config", zap.Error(err))
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		appLogger.Fatal("unable to create db pool", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		appLogger.Fatal("cannot connect to db", zap.Error(err))
	}

	appLogger.Info("connected to database via pgxpool")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		appLogger.Fatal("cannot connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	store := postgres.NewStore(pool)
	geoStore := redis_adapter.NewGeoStore(rdb)

	authSvc := service.NewAuthService(cfg.JWTSecret)
	sessions := service.NewSessionManager(service.SessionManagerDeps{
		Store:  store,
		Geo:    geoStore,
		Logger: appLogger,
		ChannelCfg: service.ChannelConfig{
			Source:  "delivery-map-host",
			Stagger: time.Duration(cfg.ChannelStaggerMs) * time.Millisecond,
		},
		SamplerCfg: service.SamplerConfig{
			MaxReadings:        cfg.MaxLocationReadings,
			ReadingInterval:    time.Duration(cfg.ReadingIntervalMs) * time.Millisecond,
			ExcellentAccuracyM: cfg.ExcellentAccuracyM,
			PoorAccuracyM:      cfg.PoorAccuracyM,
		},
		LocateTimeout: time.Duration(cfg.LocateTimeoutSec) * time.Second,
	})

	hub := ws.NewHub(sessions, appLogger)
	authHandler := handler.NewAuthHandler(authSvc, store)
	driverHandler := handler.NewDriverHandler(store, authSvc, geoStore)
	packageHandler := handler.NewPackageHandler(store)
	sessionHandler := handler.NewSessionHandler(sessions)

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "UP", "env": cfg.Env})
	})

	r.POST("/api/v1/auth/login", authHandler.Login)
	r.POST("/api/v1/drivers", driverHandler.CreateDriver)

	api := r.Group("/api/v1")
	api.Use(handler.AuthMiddleware(authSvc))
	{
		api.GET("/dispatch/nearest", driverHandler.FindNearestDrivers)
		api.POST("/packages", packageHandler.CreatePackage)
		api.POST("/routes", packageHandler.AssignRoute)
		api.GET("/drivers/:id/packages", packageHandler.ListDriverPackages)
		api.POST("/packages/:id/delivered", packageHandler.MarkDelivered)

		api.POST("/session/locate", sessionHandler.Locate)
		api.POST("/session/sync", sessionHandler.Sync)
		api.POST("/session/fit", sessionHandler.Fit)
		api.POST("/session/markers/clear", sessionHandler.ClearMarkers)
		api.POST("/session/location", sessionHandler.ReportLocation)
		api.GET("/session/history", sessionHandler.History)
	}

	r.GET("/ws/map", handler.AuthMiddleware(authSvc), hub.HandleConnection)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		appLogger.Info("starting server", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("listen: %s\n", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Fatal("server forced to shutdown:", zap.Error(err))
	}

	appLogger.Info("server exiting")
}
