package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/Sherrmann013/OktaDeploy1-sub002/internal/handler"
	"github.com/Sherrmann013/OktaDeploy1-sub002/internal/middleware"
	"github.com/Sherrmann013/OktaDeploy1-sub002/internal/registry"
	"github.com/Sherrmann013/OktaDeploy1-sub002/internal/tenantdb"
	"github.com/Sherrmann013/OktaDeploy1-sub002/pkg/config"
	"github.com/Sherrmann013/OktaDeploy1-sub002/pkg/database"
	"github.com/Sherrmann013/OktaDeploy1-sub002/pkg/jwtutil"
	"github.com/Sherrmann013/OktaDeploy1-sub002/pkg/logger"
	"github.com/Sherrmann013/OktaDeploy1-sub002/prometheus"
)

func main() {
	// Load configuration from .env file and environment variables. A missing
	// control-plane DSN is fatal: nothing works without the registry.
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: "client-db-service",
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting client database routing service...", cfg.LogConfig()...)

	dbOpts := database.Options{
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		LogLevel:        cfg.DB.LogLevel,
	}

	// Control-plane database and tenant registry. Connections open lazily, so
	// reachability is verified here under the dial timeout.
	controlPlaneDB, err := database.Connect(cfg.DB.ControlPlaneDSN, dbOpts)
	if err != nil {
		log.Fatal("Failed to connect to control-plane database", zap.Error(err))
	}
	pingCtx, cancel := context.WithTimeout(context.Background(), cfg.DB.DialTimeout)
	err = database.Ping(pingCtx, controlPlaneDB)
	cancel()
	if err != nil {
		log.Fatal("Control-plane database unreachable", zap.Error(err))
	}
	reg := registry.New(controlPlaneDB)
	if err := reg.Migrate(context.Background()); err != nil {
		log.Fatal("Failed to migrate control-plane schema", zap.Error(err))
	}
	log.Info("Control-plane database connection established")

	// Privileged engine connection for database creation
	engineCtx, cancel := context.WithTimeout(context.Background(), cfg.DB.DialTimeout)
	engine, err := tenantdb.NewPostgresEngine(engineCtx, cfg.DB.AdminDSN, dbOpts)
	cancel()
	if err != nil {
		log.Fatal("Failed to connect privileged engine connection", zap.Error(err))
	}

	// Core routing subsystem, constructed once and passed by reference
	dialer := tenantdb.NewGormDialer(dbOpts)
	cache := tenantdb.NewCache(reg, dialer, cfg.DB.DialTimeout, log)
	prov := tenantdb.NewProvisioner(reg, engine, dialer, cache, cfg.DB.DialTimeout, cfg.DB.MigrateTimeout, log)
	health := tenantdb.NewHealthChecker(reg, cache, cfg.DB.ProbeTimeout, log)
	router := tenantdb.NewRouter(cache, prov, health)
	log.Info("Client database router initialized")

	// Initialize JWT utility for operator tokens
	jwtUtil := jwtutil.NewJWTUtil(&cfg.JWT)

	// Initialize Echo framework
	e := echo.New()
	e.HideBanner = true

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware())
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware(cfg.Metrics.ServiceLabel))

	tenantHandler := handler.NewTenantHandler(router, reg)
	adminHandler := handler.NewAdminHandler(router, reg, cfg.Server.Env)

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Remote administration API - static admin key
	admin := e.Group("/api/admin")
	admin.Use(middleware.AdminKeyMiddleware(cfg.Admin.APIKey))
	admin.GET("/ping", adminHandler.Ping)
	admin.GET("/health", adminHandler.Health)
	admin.GET("/info", adminHandler.Info)
	admin.POST("/migrations/execute", adminHandler.ExecuteMigration)

	// Operator API - all require authentication
	api := e.Group("/api")
	api.Use(middleware.JWTAuthMiddleware(jwtUtil))

	tenants := api.Group("/tenants")
	tenants.POST("", tenantHandler.CreateTenant)
	tenants.GET("", tenantHandler.ListTenants)
	tenants.GET("/:id", tenantHandler.GetTenant)
	tenants.GET("/:id/connection", tenantHandler.CheckConnection)
	tenants.PATCH("/:id", tenantHandler.UpdateTenant)

	// Start server
	port := cfg.Server.Port
	go func() {
		log.Info("Starting server", zap.String("port", port))
		if err := e.Start(":" + port); err != nil {
			log.Warn("Server stopped", zap.Error(err))
		}
	}()

	// Wait for shutdown signal, then drain connections
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	router.Shutdown()
	if err := engine.Close(); err != nil {
		log.Warn("Closing privileged engine connection failed", zap.Error(err))
	}
	if err := database.Close(controlPlaneDB); err != nil {
		log.Warn("Closing control-plane connection failed", zap.Error(err))
	}
	log.Info("Shutdown complete")
}
