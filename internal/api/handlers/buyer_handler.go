package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sushil-kumar-saw/mitra-farm/internal/config"
	"github.com/sushil-kumar-saw/mitra-farm/internal/metrics"
	"github.com/sushil-kumar-saw/mitra-farm/internal/services"
)

// BuyerHandler serves the buyer dashboard: marketplace, purchases and inquiries.
type BuyerHandler struct {
	cfg             *config.Config
	listingService  services.IListingService
	purchaseService services.IPurchaseService
	inquiryService  services.IInquiryService
	statsService    services.IStatsService
}

// NewBuyerHandler creates a new BuyerHandler.
func NewBuyerHandler(
	cfg *config.Config,
	listingService services.IListingService,
	purchaseService services.IPurchaseService,
	inquiryService services.IInquiryService,
	statsService services.IStatsService,
) *BuyerHandler {
	return &BuyerHandler{
		cfg:             cfg,
		listingService:  listingService,
		purchaseService: purchaseService,
		inquiryService:  inquiryService,
		statsService:    statsService,
	}
}

// DashboardStats handles GET /api/buyer/dashboard/stats
func (h *BuyerHandler) DashboardStats(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}
	stats, err := h.statsService.BuyerStats(c.Request.Context(), buyerID)
	if err != nil {
		respondError(c, h.cfg, err, "Failed to load stats", overrides{services.ErrProfileNotFound: "Buyer profile not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}

// Marketplace handles GET /api/buyer/marketplace
func (h *BuyerHandler) Marketplace(c *gin.Context) {
	listings, err := h.listingService.ListMarketplace(c.Request.Context())
	if err != nil {
		respondError(c, h.cfg, err, "Failed to load marketplace", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "listings": listings})
}

// GetListing handles GET /api/buyer/listings/:id
func (h *BuyerHandler) GetListing(c *gin.Context) {
	listingID, ok := pathID(c, "id", "listing ID")
	if !ok {
		return
	}
	listing, err := h.listingService.FindListingByID(c.Request.Context(), listingID)
	if err != nil {
		respondError(c, h.cfg, err, "Failed to load listing", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "listing": listing})
}

// Inquire handles POST /api/buyer/listings/:id/inquire, which only bumps
// the listing's interest counter.
func (h *BuyerHandler) Inquire(c *gin.Context) {
	listingID, ok := pathID(c, "id", "listing ID")
	if !ok {
		return
	}
	listing, err := h.listingService.RecordInterest(c.Request.Context(), listingID)
	if err != nil {
		respondError(c, h.cfg, err, "Failed to record interest", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "listing": listing})
}

type purchaseRequest struct {
	ListingID string `json:"listingId"`
}

// Purchase handles POST /api/buyer/purchases
func (h *BuyerHandler) Purchase(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req purchaseRequest
	_ = c.ShouldBindJSON(&req)
	if req.ListingID == "" {
		badRequest(c, "Listing ID is required")
		return
	}
	listingID, err := primitive.ObjectIDFromHex(req.ListingID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Listing not found"})
		return
	}

	purchase, err := h.purchaseService.Purchase(c.Request.Context(), buyerID, listingID)
	if err != nil {
		metrics.Purchases.WithLabelValues("rejected").Inc()
		respondError(c, h.cfg, err, "Failed to create purchase", nil)
		return
	}
	metrics.Purchases.WithLabelValues("success").Inc()
	c.JSON(http.StatusCreated, gin.H{"success": true, "purchase": purchase})
}

// ListPurchases handles GET /api/buyer/purchases
func (h *BuyerHandler) ListPurchases(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}
	purchases, err := h.purchaseService.ListBuyerPurchases(c.Request.Context(), buyerID)
	if err != nil {
		respondError(c, h.cfg, err, "Failed to load purchases", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "purchases": purchases})
}

type inquiryRequest struct {
	ListingID string `json:"listingId"`
	Message   string `json:"message"`
}

// CreateInquiry handles POST /api/buyer/inquiries
func (h *BuyerHandler) CreateInquiry(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req inquiryRequest
	_ = c.ShouldBindJSON(&req)
	if req.ListingID == "" || req.Message == "" {
		badRequest(c, "Listing ID and message are required")
		return
	}
	listingID, err := primitive.ObjectIDFromHex(req.ListingID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Listing not found"})
		return
	}

	inquiry, err := h.inquiryService.CreateInquiry(c.Request.Context(), buyerID, listingID, req.Message)
	if err != nil {
		respondError(c, h.cfg, err, "Failed to create inquiry", overrides{services.ErrUserNotFound: "Buyer not found"})
		return
	}
	metrics.Inquiries.Inc()
	c.JSON(http.StatusCreated, gin.H{"success": true, "inquiry": inquiry})
}

// ListInquiries handles GET /api/buyer/inquiries
func (h *BuyerHandler) ListInquiries(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}
	inquiries, err := h.inquiryService.ListBuyerInquiries(c.Request.Context(), buyerID)
	if err != nil {
		respondError(c, h.cfg, err, "Failed to load inquiries", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "inquiries": inquiries})
}
