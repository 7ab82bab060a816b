package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/megbaru-hub/teffexpo/internal/api"
	"github.com/megbaru-hub/teffexpo/internal/catalog"
	"github.com/megbaru-hub/teffexpo/internal/config"
	"github.com/megbaru-hub/teffexpo/internal/db"
	"github.com/megbaru-hub/teffexpo/internal/events"
	"github.com/megbaru-hub/teffexpo/internal/fulfillment"
	"github.com/megbaru-hub/teffexpo/internal/logging"
	"github.com/megbaru-hub/teffexpo/internal/memstore"
	"github.com/megbaru-hub/teffexpo/internal/ratelimit"
	"github.com/megbaru-hub/teffexpo/internal/services"
	"github.com/megbaru-hub/teffexpo/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// marketStore is what both services and the readiness probe need from persistence
type marketStore interface {
	fulfillment.Store
	catalog.Store
	api.HealthChecker
}

func main() {
	// Ensure all log output goes to stdout so App Runner captures it in Application Logs
	log.SetOutput(os.Stdout)
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	decimal.MarshalJSONWithoutQuotes = true

	log.Printf("Teff Service starting (GIT_SHA=%s BUILD_TIME=%s)", os.Getenv("GIT_SHA"), os.Getenv("BUILD_TIME"))

	ctx := context.Background()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		log.Printf("[WARN] AWS configuration unavailable, outbound alerts and uploads disabled: %v", err)
	}
	awsReady := err == nil

	store, closeStore, err := openStore(ctx, cfg, awsCfg, awsReady)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer closeStore()

	publisher := newPublisher(cfg)
	defer publisher.Close()

	opts := []fulfillment.Option{fulfillment.WithPublisher(publisher)}
	if awsReady {
		opts = append(opts, fulfillment.WithAlerter(newDispatcher(cfg, awsCfg)))
	}
	orders := fulfillment.NewService(store, opts...)
	catalogSvc := catalog.NewService(store)

	proofs := &storage.ProofStore{}
	if awsReady {
		proofs = storage.NewProofStore(awsCfg, cfg.PaymentProofBucket, cfg.AssetsCDNBaseURL)
	}

	handler := api.NewHandler(orders, catalogSvc, proofs, store)
	router := setupRouter(cfg, handler, newCheckoutLimiter(cfg))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Set up graceful shutdown
	go func() {
		log.Printf("Starting teff service on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down teff service...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

func openStore(ctx context.Context, cfg *config.Config, awsCfg aws.Config, awsReady bool) (marketStore, func(), error) {
	if cfg.StorageDriver == "memory" {
		log.Println("[WARN] Using in-memory storage; data is lost on restart")
		return memstore.New(), func() {}, nil
	}

	var sm config.SecretGetter
	if awsReady && cfg.DBSecretARN != "" {
		sm = secretsmanager.NewFromConfig(awsCfg)
	}
	dsn, err := cfg.ResolveDatabaseURL(ctx, sm)
	if err != nil {
		return nil, nil, err
	}
	database, err := db.NewDatabase(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	return db.NewStore(database), database.Close, nil
}

func newPublisher(cfg *config.Config) events.Publisher {
	brokers := cfg.KafkaBrokerList()
	if len(brokers) == 0 {
		log.Println("KAFKA_BROKERS not set, domain events go to the log")
		return events.LogPublisher{}
	}
	log.Printf("Publishing domain events to Kafka topic %s", cfg.KafkaTopic)
	return events.NewKafkaPublisher(brokers, cfg.KafkaTopic)
}

func newDispatcher(cfg *config.Config, awsCfg aws.Config) *services.Dispatcher {
	var sms services.SMSSender
	if cfg.SMSAlertsEnabled {
		sms = services.NewSmsService(awsCfg)
	}
	var email services.EmailSender
	if cfg.SESFromEmail != "" {
		email = services.NewEmailService(awsCfg, cfg.SESFromEmail)
	}
	return services.NewDispatcher(sms, email)
}

func newCheckoutLimiter(cfg *config.Config) gin.HandlerFunc {
	if cfg.RedisAddr == "" {
		log.Println("REDIS_ADDR not set, checkout rate limiting disabled")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	bucket := ratelimit.NewTokenBucket(client, cfg.CheckoutBurst, cfg.CheckoutRatePerSec)
	return bucket.Middleware("checkout")
}

func setupRouter(cfg *config.Config, handler *api.Handler, checkoutLimiter gin.HandlerFunc) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.GinMode == "" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(cfg.GinMode)
	}

	router := gin.New()

	// Add middleware
	router.Use(logging.JSONLogger())
	router.Use(gin.Recovery())

	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Authorization", "Content-Type", "Origin", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if origins := cfg.CORSOriginList(); len(origins) > 0 {
		corsCfg.AllowOrigins = origins
		corsCfg.AllowCredentials = true
	} else {
		corsCfg.AllowAllOrigins = true
	}
	router.Use(cors.New(corsCfg))

	// Health and readiness endpoints
	router.GET("/live", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/ready", handler.Health)
	// Keep /health as liveness-only for App Runner health checks
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	api.RegisterRoutes(router, handler, api.RouteConfig{
		JWTSecret:       cfg.JWTSecret,
		CheckoutLimiter: checkoutLimiter,
	})

	// Root endpoint for basic info
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "teff-service",
			"version": "1.0.0",
			"status":  "running",
		})
	})

	return router
}
