package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shift-backend/internal/auth"
	"shift-backend/internal/cache"
	"shift-backend/internal/config"
	"shift-backend/internal/database"
	"shift-backend/internal/db"
	"shift-backend/internal/events"
	"shift-backend/internal/handlers"
	"shift-backend/internal/health"
	h "shift-backend/internal/http"
	"shift-backend/internal/middleware"
	"shift-backend/internal/monitoring"
	"shift-backend/internal/repositories"
	"shift-backend/internal/services"
	"shift-backend/internal/storage"
)

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	flag.Parse()

	cfg := config.Load()
	if *port > 0 {
		cfg.Server.Port = *port
	}

	// Redis is optional: auth cache and session mirror degrade to no-ops
	if err := cache.Init(); err != nil {
		log.Printf("[Cache] Redis unavailable, continuing without cache: %v", err)
	}

	pool := db.Connect(cfg)
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	migrator := database.NewMigrator(pool)
	if err := migrator.RunMigrations(ctx); err != nil {
		cancel()
		log.Fatalf("migrations failed: %v", err)
	}
	cancel()

	// Attachment object storage (optional)
	storageClient, err := storage.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("storage init failed: %v", err)
	}

	// Websocket event feed
	hub := events.NewHub()
	go hub.Run()

	// Repositories
	userRepo := repositories.NewUserRepository(pool)
	activityRepo := repositories.NewActivityEventRepository(pool)
	locationRepo := repositories.NewLocationRepository(pool)
	attachmentRepo := repositories.NewAttachmentRepository(pool)

	// Services
	jwtManager := auth.NewJWTManager(cfg)
	userService := services.NewUserService(userRepo, jwtManager)
	locationService := services.NewLocationService(locationRepo)
	projectionService := services.NewProjectionService(activityRepo, locationService)
	sessionService := services.NewSessionService(activityRepo, attachmentRepo, locationService, projectionService, hub)
	reportService := services.NewReportService(projectionService)

	// Watchdog force-closes sessions past their ceiling
	watchdog := services.NewWatchdogService(
		activityRepo,
		sessionService,
		time.Duration(cfg.Sessions.MaxShiftHours)*time.Hour,
		time.Duration(cfg.Sessions.MaxCleaningHours)*time.Hour,
		time.Duration(cfg.Sessions.WatchdogIntervalSecs)*time.Second,
	)
	watchdog.Start()

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, sessionService)
	sessionHandler := handlers.NewSessionHandler(sessionService, projectionService)
	historyHandler := handlers.NewHistoryHandler(projectionService, reportService, userService)
	attachmentHandler := handlers.NewAttachmentHandler(attachmentRepo, storageClient)
	healthHandler := handlers.NewHealthHandler(health.NewHealthChecker(pool))
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, userRepo)

	router := h.NewRouter(
		authHandler,
		sessionHandler,
		historyHandler,
		attachmentHandler,
		healthHandler,
		hub,
		authMiddleware,
	)

	// Ops stats on a side port
	go monitoring.NewMonitoringServer(pool, cfg.Server.MonitoringPort).Start()

	corsMiddleware := middleware.NewCORS(cfg)
	handler := middleware.PanicRecovery(
		middleware.MetricsMiddleware(
			middleware.RequestLogging(
				corsMiddleware(router),
			),
		),
	)

	// Close open sessions tidily on shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Shutting down...")
		watchdog.Stop()
		pool.Close()
		os.Exit(0)
	}()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server running on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
