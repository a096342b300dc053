// api/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gemstore/api/aggregator"
	"gemstore/api/config"
	"gemstore/api/database"
	"gemstore/api/handlers"
	"gemstore/api/middleware"
	"gemstore/api/store"
	"gemstore/api/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	utils.SetJWTSecret(cfg.JWTSecretKey)

	// --- PostgreSQL (orders, admin users) ---
	dbClient, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL database: %v", err)
	}
	defer dbClient.Close()

	// --- ClickHouse (tracked events) ---
	chClient, err := database.NewClickHouseDB(cfg.ClickHouse)
	if err != nil {
		log.Fatalf("Failed to initialize ClickHouse database: %v", err)
	}
	defer chClient.Close()

	// --- Redis (report cache, optional) ---
	var reportCache handlers.ReportCache
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to initialize Redis: %v", err)
		}
		defer redisClient.Close()
		reportCache = store.NewReportCache(redisClient.Client, cfg.ReportCacheTTL)
	} else {
		log.Println("REDIS_URL not set, dashboard report cache disabled")
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("Invalid report timezone: %v", err)
	}

	// --- Stores ---
	userStore := store.NewUserStore(dbClient.DB)
	orderStore := store.NewOrderStore(dbClient.DB)
	analyticsStore := store.NewAnalyticsStore(chClient)

	// --- Handlers ---
	authHandlers := handlers.NewAuthHandlers(userStore)
	analyticsHandlers := handlers.NewAnalyticsHandlers(analyticsStore)
	dashboardHandlers := handlers.NewDashboardHandlers(analyticsStore, orderStore, reportCache,
		aggregator.New(aggregator.WithLocation(loc)))

	r := gin.Default()

	r.Use(middleware.CORSMiddleware(cfg.FrontendOrigin))
	r.Use(middleware.Metrics())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		// Storefront collector and dashboard login (no authentication required)
		api.POST("/track", analyticsHandlers.TrackEvent)
		api.POST("/signup", authHandlers.Signup)
		api.POST("/login", authHandlers.Login)
		api.POST("/logout", authHandlers.Logout)

		protected := api.Group("/")
		protected.Use(middleware.AuthRequired(cfg.AuthDefault))
		{
			protected.GET("/profile", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{
					"user_id":    c.GetInt("user_id"),
					"user_email": c.GetString("user_email"),
				})
			})

			stats := protected.Group("/stats")
			{
				stats.GET("/dashboard", dashboardHandlers.GetDashboard)
				stats.GET("/event-counts", analyticsHandlers.GetEventCountsOverTime)
				stats.GET("/unique-sessions", analyticsHandlers.GetUniqueSessionsOverTime)
				stats.GET("/average-event-param", analyticsHandlers.GetAverageEventParam)
				stats.GET("/top-paths", analyticsHandlers.GetTopNPagePaths)
			}
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Gemstore analytics API starting on http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("API server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
