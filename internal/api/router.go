package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/sushil-kumar-saw/mitra-farm/internal/api/handlers"
	"github.com/sushil-kumar-saw/mitra-farm/internal/api/middleware"
	"github.com/sushil-kumar-saw/mitra-farm/internal/config"
	"github.com/sushil-kumar-saw/mitra-farm/internal/email"
	"github.com/sushil-kumar-saw/mitra-farm/internal/metrics"
	"github.com/sushil-kumar-saw/mitra-farm/internal/models"
	"github.com/sushil-kumar-saw/mitra-farm/internal/services"
)

// Services groups everything the HTTP handlers depend on.
type Services struct {
	Users     services.IUserService
	Listings  services.IListingService
	Purchases services.IPurchaseService
	Inquiries services.IInquiryService
	Community services.ICommunityService
	Stats     services.IStatsService
	// Ping backs /api/health.
	Ping func(ctx context.Context) error
}

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, svc Services, limiter *middleware.RateLimiterMiddleware) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(metrics.Middleware())
	r.Use(middleware.CORSMiddleware(middleware.NewCORS(cfg)))

	authHandler := handlers.NewAuthHandler(cfg, svc.Users)
	buyerHandler := handlers.NewBuyerHandler(cfg, svc.Listings, svc.Purchases, svc.Inquiries, svc.Stats)
	farmerHandler := handlers.NewFarmerHandler(cfg, svc.Listings, svc.Inquiries, svc.Stats)
	communityHandler := handlers.NewCommunityHandler(cfg, svc.Community)
	statsHandler := handlers.NewStatsHandler(cfg, svc.Stats, svc.Ping)

	requireAuth := middleware.AuthMiddleware(cfg.JwtSecret)

	apiGroup := r.Group("/api")
	{
		authGroup := apiGroup.Group("/auth")
		if limiter != nil {
			authGroup.POST("/register", limiter.Limit(), authHandler.Register)
			authGroup.POST("/login", limiter.Limit(), authHandler.Login)
		} else {
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
		authGroup.GET("/verify", requireAuth, authHandler.Verify)
		authGroup.POST("/logout", authHandler.Logout)

		buyer := apiGroup.Group("/buyer", requireAuth, middleware.RequireRole(svc.Users, models.RoleBuyer))
		{
			buyer.GET("/dashboard/stats", buyerHandler.DashboardStats)
			buyer.GET("/marketplace", buyerHandler.Marketplace)
			buyer.GET("/listings/:id", buyerHandler.GetListing)
			buyer.POST("/listings/:id/inquire", buyerHandler.Inquire)
			buyer.GET("/purchases", buyerHandler.ListPurchases)
			buyer.POST("/purchases", buyerHandler.Purchase)
			buyer.GET("/inquiries", buyerHandler.ListInquiries)
			buyer.POST("/inquiries", buyerHandler.CreateInquiry)
		}

		farmer := apiGroup.Group("/farmer", requireAuth, middleware.RequireRole(svc.Users, models.RoleFarmer))
		{
			farmer.GET("/dashboard/stats", farmerHandler.DashboardStats)
			farmer.GET("/listings", farmerHandler.ListListings)
			farmer.POST("/listings", farmerHandler.CreateListing)
			farmer.PUT("/listings/:id", farmerHandler.UpdateListing)
			farmer.DELETE("/listings/:id", farmerHandler.DeleteListing)
			farmer.POST("/listings/:id/image-upload", farmerHandler.RequestImageUpload)
			farmer.POST("/listings/:id/images", farmerHandler.ConfirmImageUpload)
			farmer.GET("/inquiries", farmerHandler.ListInquiries)
			farmer.POST("/inquiries/:id/reply", farmerHandler.ReplyToInquiry)
		}

		community := apiGroup.Group("/community", requireAuth)
		{
			community.GET("", communityHandler.ListPosts)
			community.POST("", communityHandler.CreatePost)
			community.POST("/:postId/replies", communityHandler.AddReply)
			community.DELETE("/:postId", communityHandler.DeletePost)
			community.DELETE("/:postId/replies/:replyId", communityHandler.DeleteReply)
		}

		apiGroup.GET("/stats/platform", statsHandler.Platform)
		apiGroup.GET("/health", statsHandler.Health)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// SetupServiceRouter configures the internal service API used by end-to-end
// test harnesses. It is only started when SERVICE_API_PORT is set.
func SetupServiceRouter(rdb *redis.Client, shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			log.Println("Received shutdown command via Service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
			default:
				log.Println("Shutdown already requested")
			}
		case "getTestEmail":
			getTestEmail(c, rdb, req.Arguments)
		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}

// getTestEmail returns (and removes) the mock e-mail captured for a
// [kind, address] pair, polling briefly because delivery is asynchronous.
func getTestEmail(c *gin.Context, rdb *redis.Client, rawArgs json.RawMessage) {
	if rdb == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Redis is not configured"})
		return
	}
	var args []string
	if err := json.Unmarshal(rawArgs, &args); err != nil || len(args) != 2 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid arguments: expected JSON array [kind, email]"})
		return
	}
	redisKey := email.MockEmailKey(args[1], args[0])

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	var raw string
	var err error
	for i := 0; i < 10; i++ {
		raw, err = rdb.GetDel(ctx, redisKey).Result()
		if err == nil {
			break
		}
		if !errors.Is(err, redis.Nil) {
			log.Printf("Service API: error reading %s from Redis: %v", redisKey, err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Redis error"})
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Test email not found in Redis for key %s", redisKey)})
		return
	}

	var data email.MockEmail
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		log.Printf("Service API: error decoding email data from %s: %v", redisKey, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to parse stored email data"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}
