package main

import (
	"context"
	"log"
	"time"

	"shipment-tracker/internal/core/cache"
	"shipment-tracker/internal/core/config"
	"shipment-tracker/internal/core/logger"
	"shipment-tracker/internal/core/proxy"
	"shipment-tracker/internal/core/server"
	carrieradapter "shipment-tracker/internal/features/carriers/adapters"
	carrierports "shipment-tracker/internal/features/carriers/ports"
	carrierservice "shipment-tracker/internal/features/carriers/service"
	shipmentadapter "shipment-tracker/internal/features/shipments/adapters"
	shipmentdomain "shipment-tracker/internal/features/shipments/domain"
	shipmenthandler "shipment-tracker/internal/features/shipments/handler"
	shipmentservice "shipment-tracker/internal/features/shipments/service"

	"go.uber.org/zap"
)

// @title Shipment Tracker API
// @version 1.0
// @description This API tracks vehicle shipments by reconciling carrier tracking data into a local shipment store.
// @contact.name API Support
// @contact.email support@shipmenttracker.io
// @license.name MIT
// @host localhost:8080
// @BasePath /
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
	)

	ctx := context.Background()

	// Shipment store
	pool, err := shipmentadapter.OpenPool(ctx, cfg.Database.URL)
	if err != nil {
		l.Fatal("Failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	shipmentRepo := shipmentadapter.NewPostgresShipmentRepository(pool)
	if err := shipmentRepo.CreateSchema(ctx); err != nil {
		l.Fatal("Failed to create schema", zap.Error(err))
	}
	l.Info("Postgres connection verified")

	// Carrier payload cache (optional)
	var payloadCache cache.Cache
	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewRedisAdapter(cfg.Redis.URL)
		if err != nil {
			l.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer redisCache.Close()
		payloadCache = redisCache
		l.Info("Redis payload cache enabled")
	} else {
		l.Info("Redis payload cache disabled")
	}

	// Carrier providers
	oceanicAdapter := carrieradapter.NewOceanicAdapter(cfg.Carriers.Oceanic())
	if err := oceanicAdapter.HealthCheck(ctx); err != nil {
		l.Fatal("Oceanic health check failed", zap.Error(err))
	}
	l.Info("Oceanic connection verified")

	harborlineAdapter := carrieradapter.NewHarborlineAdapter(cfg.Carriers.HarborlineURL, proxy.Settings{
		Enabled:  cfg.Proxy.Enabled,
		Hostname: cfg.Proxy.Hostname,
		Port:     cfg.Proxy.Port,
		Username: cfg.Proxy.Username,
		Password: cfg.Proxy.Password,
	})

	carrierProviders := []carrierports.CarrierProvider{
		oceanicAdapter,
		harborlineAdapter,
	}

	carrierSvc := carrierservice.NewCarrierService(
		carrierProviders,
		payloadCache,
		time.Duration(cfg.Redis.PayloadTTLSeconds)*time.Second,
	)

	// Shipment service & handler
	reconciler := shipmentdomain.NewReconciler(nil)
	shipmentSvc := shipmentservice.NewShipmentService(shipmentRepo, carrierSvc, reconciler)
	shipmentHdl := shipmenthandler.NewShipmentHandler(shipmentSvc)

	srv := server.New(cfg)

	// Register Routes
	srv.App.Post("/shipments", shipmentHdl.CreateShipment)
	srv.App.Get("/shipments", shipmentHdl.ListShipments)
	srv.App.Get("/shipments/:number", shipmentHdl.GetShipment)
	srv.App.Post("/shipments/:number/refresh", shipmentHdl.RefreshTracking)
	srv.App.Patch("/shipments/:number/progress", shipmentHdl.OverrideProgress)
	srv.App.Delete("/shipments/:number", shipmentHdl.DeleteShipment)

	if err := srv.Run(); err != nil {
		l.Fatal("Server failed to start", zap.Error(err))
	}
}
