package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sushil-kumar-saw/mitra-farm/internal/api"
	"github.com/sushil-kumar-saw/mitra-farm/internal/api/middleware"
	"github.com/sushil-kumar-saw/mitra-farm/internal/cache"
	"github.com/sushil-kumar-saw/mitra-farm/internal/config"
	"github.com/sushil-kumar-saw/mitra-farm/internal/db"
	"github.com/sushil-kumar-saw/mitra-farm/internal/email"
	"github.com/sushil-kumar-saw/mitra-farm/internal/metrics"
	"github.com/sushil-kumar-saw/mitra-farm/internal/services"
	"github.com/sushil-kumar-saw/mitra-farm/internal/storage"
	"github.com/sushil-kumar-saw/mitra-farm/internal/tasks"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (background tasks), 'img' (image processing), 'all' (default)")

func main() {
	flag.Parse()

	cfg, err := config.Load(*runMode)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	switch cfg.RunMode {
	case "api", "bg", "img", "all":
	default:
		log.Fatalf("Invalid run mode: %s", cfg.RunMode)
	}

	mongoClient, mongoDb, err := db.ConnectDB(cfg.MongoURI, cfg.MongoDbName)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.DisconnectDB(mongoClient); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.EnsureIndexes(indexCtx, mongoDb); err != nil {
		log.Fatalf("Failed to ensure indexes: %v", err)
	}
	cancelIndex()

	// Redis is optional for the API: without it notifications are dropped
	// and platform stats are not cached. Workers cannot run without it.
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer func() {
			if err := cache.DisconnectRedis(redisClient); err != nil {
				log.Printf("Error disconnecting from Redis: %v", err)
			}
		}()
	} else if cfg.RunMode != "api" {
		log.Fatalf("REDIS_ADDR is required in run mode %q", cfg.RunMode)
	} else {
		log.Println("REDIS_ADDR not set: notifications disabled, platform stats uncached.")
	}

	var s3Storage storage.IS3Storage
	if cfg.AwsS3Bucket != "" {
		s3Storage, err = storage.NewS3Storage(context.Background(), cfg)
		if err != nil {
			log.Fatalf("Failed to initialize S3 storage: %v", err)
		}
	} else {
		log.Println("AWS_S3_BUCKET not set: listing image uploads disabled.")
	}

	emailSender := buildEmailSender(cfg, redisClient)

	var notifier services.INotifier = services.NoopNotifier{}
	var taskClient *asynq.Client
	if redisClient != nil {
		taskClient = tasks.NewClient(redisClient)
		defer taskClient.Close()
		notifier = tasks.NewNotifier(taskClient)
	}

	userService := services.NewUserService(mongoDb)
	listingService := services.NewListingService(mongoDb, userService, s3Storage, notifier)
	purchaseService := services.NewPurchaseService(mongoDb, listingService, userService, notifier)
	inquiryService := services.NewInquiryService(mongoDb, listingService, userService, notifier)
	communityService := services.NewCommunityService(mongoDb, userService)
	var statsCache cache.IJSONCache
	if redisClient != nil {
		statsCache = cache.NewRedisJSONCache(redisClient, "farmmitra:")
	}
	statsService := services.NewStatsService(mongoDb, userService, statsCache, cfg.StatsCacheTTL)

	taskProcessor := tasks.NewTaskProcessor(cfg, emailSender, s3Storage, listingService, userService)

	metrics.Register()

	var wg sync.WaitGroup
	shutdownChan := make(chan struct{}, 1)

	var serviceSrv *http.Server
	if cfg.ServiceApiPort != "" {
		serviceSrv = &http.Server{
			Addr:    ":" + cfg.ServiceApiPort,
			Handler: api.SetupServiceRouter(redisClient, shutdownChan),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Printf("Service API listening on :%s", cfg.ServiceApiPort)
			if err := serviceSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Service API ListenAndServe error: %v", err)
			}
			log.Println("Service API server stopped.")
		}()
	}

	log.Printf("Starting application in '%s' mode...", cfg.RunMode)

	var mainApiSrv *http.Server
	var limiter *middleware.RateLimiterMiddleware
	if cfg.RunMode == "api" || cfg.RunMode == "all" {
		limiter = middleware.NewRateLimiterMiddleware(cfg)
		router := api.SetupRouter(cfg, api.Services{
			Users:     userService,
			Listings:  listingService,
			Purchases: purchaseService,
			Inquiries: inquiryService,
			Community: communityService,
			Stats:     statsService,
			Ping:      pingFunc(mongoDb),
		}, limiter)
		mainApiSrv = &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Printf("Main API listening on :%s", cfg.Port)
			if err := mainApiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Main API ListenAndServe error: %v", err)
			}
			log.Println("Main API server stopped.")
		}()
	}

	var taskSrv *asynq.Server
	isImageWorker := cfg.RunMode == "img" || cfg.RunMode == "all"
	isBgWorker := cfg.RunMode == "bg" || cfg.RunMode == "all"
	if redisClient != nil && (isImageWorker || isBgWorker) {
		srv, mux := tasks.SetupServer(redisClient, taskProcessor, isImageWorker, isBgWorker)
		taskSrv = srv
		if err := taskSrv.Start(mux); err != nil {
			log.Fatalf("Task server failed to start: %v", err)
		}
		log.Println("Task server started.")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("Received signal: %s. Shutting down gracefully...", sig)
	case <-shutdownChan:
		log.Println("Shutdown requested via Service API. Shutting down gracefully...")
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if mainApiSrv != nil {
		if err := mainApiSrv.Shutdown(ctxShutdown); err != nil {
			log.Printf("Main API server shutdown error: %v", err)
		}
	}
	if limiter != nil {
		limiter.Close()
	}
	if serviceSrv != nil {
		if err := serviceSrv.Shutdown(ctxShutdown); err != nil {
			log.Printf("Service API server shutdown error: %v", err)
		}
	}
	if taskSrv != nil {
		taskSrv.Shutdown()
	}

	wg.Wait()
	log.Println("Server gracefully stopped")
}

// buildEmailSender assembles the outbound mail chain: SMTP (or a logging
// stand-in), plus Redis capture under MOCK_SERVICES and a file log under
// LOG_EMAILS.
func buildEmailSender(cfg *config.Config, rdb *redis.Client) email.Sender {
	composite := email.NewCompositeEmailSender()
	if cfg.MockServices && rdb != nil {
		log.Println("MOCK_SERVICES enabled: capturing emails in Redis.")
		composite.AddSender(email.NewRedisSender(rdb, cfg))
	} else {
		composite.AddSender(email.NewSMTPSender(cfg))
	}

	if cfg.LogEmailsPath != "" {
		fileSender, err := email.NewFileEmailSender(cfg.LogEmailsPath)
		if err != nil {
			log.Printf("WARNING: file email logger disabled (LOG_EMAILS=%q): %v", cfg.LogEmailsPath, err)
		} else {
			composite.AddSender(fileSender)
		}
	}
	return composite
}

func pingFunc(database *mongo.Database) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return db.Ping(ctx, database)
	}
}
