package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sushil-kumar-saw/mitra-farm/internal/config"
	"github.com/sushil-kumar-saw/mitra-farm/internal/services"
)

// FarmerHandler serves the farmer dashboard: listings, inbound inquiries and stats.
type FarmerHandler struct {
	cfg            *config.Config
	listingService services.IListingService
	inquiryService services.IInquiryService
	statsService   services.IStatsService
}

// NewFarmerHandler creates a new FarmerHandler.
func NewFarmerHandler(cfg *config.Config, listingService services.IListingService, inquiryService services.IInquiryService, statsService services.IStatsService) *FarmerHandler {
	return &FarmerHandler{
		cfg:            cfg,
		listingService: listingService,
		inquiryService: inquiryService,
		statsService:   statsService,
	}
}

// DashboardStats handles GET /api/farmer/dashboard/stats
func (h *FarmerHandler) DashboardStats(c *gin.Context) {
	farmerID, ok := currentUserID(c)
	if !ok {
		return
	}
	stats, err := h.statsService.FarmerStats(c.Request.Context(), farmerID)
	if err != nil {
		respondError(c, h.cfg, err, "Failed to load stats", overrides{services.ErrProfileNotFound: "Farmer profile not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}

// ListListings handles GET /api/farmer/listings
func (h *FarmerHandler) ListListings(c *gin.Context) {
	farmerID, ok := currentUserID(c)
	if !ok {
		return
	}
	listings, err := h.listingService.ListFarmerListings(c.Request.Context(), farmerID)
	if err != nil {
		respondError(c, h.cfg, err, "Failed to load listings", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "listings": listings})
}

// CreateListing handles POST /api/farmer/listings
func (h *FarmerHandler) CreateListing(c *gin.Context) {
	farmerID, ok := currentUserID(c)
	if !ok {
		return
	}
	var in services.ListingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid listing payload")
		return
	}
	listing, err := h.listingService.CreateListing(c.Request.Context(), farmerID, in)
	if err != nil {
		respondError(c, h.cfg, err, "Failed to create listing", nil)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "listing": listing})
}

// UpdateListing handles PUT /api/farmer/listings/:id
func (h *FarmerHandler) UpdateListing(c *gin.Context) {
	farmerID, ok := currentUserID(c)
	if !ok {
		return
	}
	listingID, ok := pathID(c, "id", "listing ID")
	if !ok {
		return
	}
	var in services.ListingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid listing payload")
		return
	}
	listing, err := h.listingService.UpdateListing(c.Request.Context(), listingID, farmerID, in)
	if err != nil {
		respondError(c, h.cfg, err, "Failed to update listing", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "listing": listing})
}

// DeleteListing handles DELETE /api/farmer/listings/:id
func (h *FarmerHandler) DeleteListing(c *gin.Context) {
	farmerID, ok := currentUserID(c)
	if !ok {
		return
	}
	listingID, ok := pathID(c, "id", "listing ID")
	if !ok {
		return
	}
	if err := h.listingService.DeleteListing(c.Request.Context(), listingID, farmerID); err != nil {
		respondError(c, h.cfg, err, "Failed to delete listing", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Listing deleted"})
}

type imageUploadRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

// RequestImageUpload handles POST /api/farmer/listings/:id/image-upload and
// returns a presigned URL the browser uploads to directly.
func (h *FarmerHandler) RequestImageUpload(c *gin.Context) {
	farmerID, ok := currentUserID(c)
	if !ok {
		return
	}
	listingID, ok := pathID(c, "id", "listing ID")
	if !ok {
		return
	}
	var req imageUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "filename and contentType are required")
		return
	}
	url, key, err := h.listingService.RequestImageUpload(c.Request.Context(), listingID, farmerID, req.Filename, req.ContentType)
	if err != nil {
		respondError(c, h.cfg, err, "Failed to prepare upload", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "uploadUrl": url, "key": key})
}

type confirmImageRequest struct {
	Key string `json:"key"`
}

// ConfirmImageUpload handles POST /api/farmer/listings/:id/images
func (h *FarmerHandler) ConfirmImageUpload(c *gin.Context) {
	farmerID, ok := currentUserID(c)
	if !ok {
		return
	}
	listingID, ok := pathID(c, "id", "listing ID")
	if !ok {
		return
	}
	var req confirmImageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Key == "" {
		badRequest(c, "Image key is required")
		return
	}
	listing, err := h.listingService.ConfirmImageUpload(c.Request.Context(), listingID, farmerID, req.Key)
	if err != nil {
		respondError(c, h.cfg, err, "Failed to attach image", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "listing": listing})
}

// ListInquiries handles GET /api/farmer/inquiries: purchases and inquiries
// merged into one feed.
func (h *FarmerHandler) ListInquiries(c *gin.Context) {
	farmerID, ok := currentUserID(c)
	if !ok {
		return
	}
	feed, err := h.inquiryService.ListFarmerInquiries(c.Request.Context(), farmerID)
	if err != nil {
		respondError(c, h.cfg, err, "Failed to load inquiries", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "inquiries": feed})
}

type replyRequest struct {
	Message string `json:"message"`
}

// ReplyToInquiry handles POST /api/farmer/inquiries/:id/reply
func (h *FarmerHandler) ReplyToInquiry(c *gin.Context) {
	farmerID, ok := currentUserID(c)
	if !ok {
		return
	}
	inquiryID, ok := pathID(c, "id", "inquiry ID")
	if !ok {
		return
	}
	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Reply message is required")
		return
	}
	inquiry, err := h.inquiryService.ReplyToInquiry(c.Request.Context(), farmerID, inquiryID, req.Message)
	if err != nil {
		respondError(c, h.cfg, err, "Failed to send reply", overrides{services.ErrUserNotFound: "Farmer not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "inquiry": inquiry})
}
