package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sushil-kumar-saw/mitra-farm/internal/api/handlers"
	"github.com/sushil-kumar-saw/mitra-farm/internal/models"
	"github.com/sushil-kumar-saw/mitra-farm/internal/services"
)

type farmerMocks struct {
	listings  *MockListingService
	inquiries *MockInquiryService
	stats     *MockStatsService
}

func farmerRouter(farmerID primitive.ObjectID) (*gin.Engine, farmerMocks) {
	m := farmerMocks{
		listings:  new(MockListingService),
		inquiries: new(MockInquiryService),
		stats:     new(MockStatsService),
	}
	h := handlers.NewFarmerHandler(testConfig(), m.listings, m.inquiries, m.stats)
	r := gin.New()
	g := r.Group("/api/farmer", asUser(farmerID))
	g.GET("/dashboard/stats", h.DashboardStats)
	g.GET("/listings", h.ListListings)
	g.POST("/listings", h.CreateListing)
	g.PUT("/listings/:id", h.UpdateListing)
	g.DELETE("/listings/:id", h.DeleteListing)
	g.POST("/listings/:id/image-upload", h.RequestImageUpload)
	g.POST("/listings/:id/images", h.ConfirmImageUpload)
	g.GET("/inquiries", h.ListInquiries)
	g.POST("/inquiries/:id/reply", h.ReplyToInquiry)
	return r, m
}

func TestFarmerHandler_CreateListing(t *testing.T) {
	farmerID := primitive.NewObjectID()
	r, m := farmerRouter(farmerID)

	created := &models.Listing{FarmerID: farmerID, WasteType: "Rice Straw", Price: "₹8,500/ton", Status: models.ListingActive}
	m.listings.On("CreateListing", mock.Anything, farmerID, mock.MatchedBy(func(in services.ListingInput) bool {
		return in.WasteType != nil && *in.WasteType == "Rice Straw" && in.Quantity == nil
	})).Return(created, nil)

	w := doJSON(t, r, http.MethodPost, "/api/farmer/listings", map[string]string{"wasteType": "Rice Straw", "price": "₹8,500/ton"})
	require.Equal(t, http.StatusCreated, w.Code)
	listing := decodeBody(t, w)["listing"].(map[string]interface{})
	assert.Equal(t, "Active", listing["status"])
	m.listings.AssertExpectations(t)
}

func TestFarmerHandler_UpdateListing_NotOwned(t *testing.T) {
	farmerID := primitive.NewObjectID()
	listingID := primitive.NewObjectID()
	r, m := farmerRouter(farmerID)
	m.listings.On("UpdateListing", mock.Anything, listingID, farmerID, mock.Anything).Return(nil, services.ErrListingNotFound)

	w := doJSON(t, r, http.MethodPut, "/api/farmer/listings/"+listingID.Hex(), map[string]string{"price": "₹100/ton"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Listing not found", decodeBody(t, w)["message"])
}

func TestFarmerHandler_UpdateListing_InvalidStatus(t *testing.T) {
	farmerID := primitive.NewObjectID()
	listingID := primitive.NewObjectID()
	r, m := farmerRouter(farmerID)
	m.listings.On("UpdateListing", mock.Anything, listingID, farmerID, mock.Anything).
		Return(nil, &services.ValidationError{Message: "Invalid status"})

	w := doJSON(t, r, http.MethodPut, "/api/farmer/listings/"+listingID.Hex(), map[string]string{"status": "Gone"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid status", decodeBody(t, w)["message"])
}

func TestFarmerHandler_DeleteListing(t *testing.T) {
	farmerID := primitive.NewObjectID()
	listingID := primitive.NewObjectID()
	r, m := farmerRouter(farmerID)
	m.listings.On("DeleteListing", mock.Anything, listingID, farmerID).Return(nil)

	w := doJSON(t, r, http.MethodDelete, "/api/farmer/listings/"+listingID.Hex(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Listing deleted", decodeBody(t, w)["message"])
}

func TestFarmerHandler_ReplyToInquiry(t *testing.T) {
	farmerID := primitive.NewObjectID()
	inquiryID := primitive.NewObjectID()

	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"other farmer", services.ErrNotInquiryFarmer, http.StatusForbidden, "Not authorized to reply to this inquiry"},
		{"missing inquiry", services.ErrInquiryNotFound, http.StatusNotFound, "Inquiry not found"},
		{"farmer gone", services.ErrUserNotFound, http.StatusNotFound, "Farmer not found"},
		{"empty reply", &services.ValidationError{Message: "Reply message is required"}, http.StatusBadRequest, "Reply message is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, m := farmerRouter(farmerID)
			m.inquiries.On("ReplyToInquiry", mock.Anything, farmerID, inquiryID, mock.Anything).Return(nil, tt.err)

			w := doJSON(t, r, http.MethodPost, "/api/farmer/inquiries/"+inquiryID.Hex()+"/reply", map[string]string{"message": "Yes"})
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.message, decodeBody(t, w)["message"])
		})
	}
}

func TestFarmerHandler_ListInquiries(t *testing.T) {
	farmerID := primitive.NewObjectID()
	r, m := farmerRouter(farmerID)
	feed := []models.FeedItem{
		{Type: models.FeedTypePurchase, BuyerName: "Asha", Product: "Rice Straw - 50 tons"},
		{Type: models.FeedTypeInquiry, BuyerName: "Vikram", Message: "Price?"},
	}
	m.inquiries.On("ListFarmerInquiries", mock.Anything, farmerID).Return(feed, nil)

	w := doJSON(t, r, http.MethodGet, "/api/farmer/inquiries", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := decodeBody(t, w)["inquiries"].([]interface{})
	require.Len(t, items, 2)
	assert.Equal(t, "Rice Straw - 50 tons", items[0].(map[string]interface{})["product"])
}

func TestFarmerHandler_DashboardStats_NoProfile(t *testing.T) {
	farmerID := primitive.NewObjectID()
	r, m := farmerRouter(farmerID)
	m.stats.On("FarmerStats", mock.Anything, farmerID).Return(nil, services.ErrProfileNotFound)

	w := doJSON(t, r, http.MethodGet, "/api/farmer/dashboard/stats", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Farmer profile not found", decodeBody(t, w)["message"])
}

func TestFarmerHandler_RequestImageUpload(t *testing.T) {
	farmerID := primitive.NewObjectID()
	listingID := primitive.NewObjectID()
	r, m := farmerRouter(farmerID)
	m.listings.On("RequestImageUpload", mock.Anything, listingID, farmerID, "straw.jpg", "image/jpeg").
		Return("https://bucket.s3.example/put", "uploads/a/b/c_straw.jpg", nil)

	w := doJSON(t, r, http.MethodPost, "/api/farmer/listings/"+listingID.Hex()+"/image-upload",
		map[string]string{"filename": "straw.jpg", "contentType": "image/jpeg"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "https://bucket.s3.example/put", body["uploadUrl"])
	assert.Equal(t, "uploads/a/b/c_straw.jpg", body["key"])
}

func TestFarmerHandler_RequestImageUpload_Disabled(t *testing.T) {
	farmerID := primitive.NewObjectID()
	listingID := primitive.NewObjectID()
	r, m := farmerRouter(farmerID)
	m.listings.On("RequestImageUpload", mock.Anything, listingID, farmerID, mock.Anything, mock.Anything).
		Return("", "", services.ErrImageUploadDisabled)

	w := doJSON(t, r, http.MethodPost, "/api/farmer/listings/"+listingID.Hex()+"/image-upload",
		map[string]string{"filename": "straw.jpg", "contentType": "image/jpeg"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
