package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qloteam/Qloset-sub000/config"
	"github.com/qloteam/Qloset-sub000/internal/api"
	"github.com/qloteam/Qloset-sub000/internal/broker"
	"github.com/qloteam/Qloset-sub000/internal/geofence"
	"github.com/qloteam/Qloset-sub000/internal/redisclient"
	"github.com/qloteam/Qloset-sub000/internal/service"
	"github.com/qloteam/Qloset-sub000/internal/store"
	"github.com/qloteam/Qloset-sub000/internal/util"
	"github.com/qloteam/Qloset-sub000/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting qloset order service")

	tp, err := util.InitTracer("qloset-order-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	var area *geofence.ServiceArea
	if cfg.Delivery.ServiceAreaPath != "" {
		area, err = geofence.Load(cfg.Delivery.ServiceAreaPath)
		if err != nil {
			log.Printf("Failed to load service area geofence: %v", err)
			area = geofence.Parse(nil)
		}
	} else {
		area = geofence.Parse(nil)
	}

	admission := service.NewAdmission(area, cfg.Delivery.PincodeAllowList)
	orderService := service.NewOrderService(db, eventPublisher, admission, cfg.Delivery.ReservationHold)
	inventoryService := service.NewInventoryService(db, redisClient)

	ctx := context.Background()
	if err := inventoryService.SyncStockToCache(ctx); err != nil {
		log.Printf("Failed to sync stock to Redis: %v", err)
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	cacheConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
	cacheWorker := worker.NewStockCacheWorker(cacheConsumer, inventoryService)
	go func() {
		if err := cacheWorker.Start(workerCtx); err != nil {
			log.Printf("Stock cache worker error: %v", err)
		}
	}()

	sweeper := worker.NewSweeper(orderService, cfg.Delivery.SweepInterval)
	go func() {
		if err := sweeper.Start(workerCtx); err != nil {
			log.Printf("Reservation sweeper error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(orderService, inventoryService)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	cacheWorker.Stop()

	log.Println("Server exited")
}
