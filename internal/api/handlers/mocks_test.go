package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sushil-kumar-saw/mitra-farm/internal/models"
	"github.com/sushil-kumar-saw/mitra-farm/internal/services"
)

// --- Mocks ---

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, name, email, password string, role models.Role) (*models.User, error) {
	args := m.Called(ctx, name, email, password, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Login(ctx context.Context, email, password string, role models.Role) (*models.User, error) {
	args := m.Called(ctx, email, password, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) ResolveRole(ctx context.Context, user *models.User) (models.Role, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(models.Role), args.Error(1)
}

func (m *MockUserService) FindFarmerProfile(ctx context.Context, userID primitive.ObjectID) (*models.FarmerProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FarmerProfile), args.Error(1)
}

func (m *MockUserService) FindBuyerProfile(ctx context.Context, userID primitive.ObjectID) (*models.BuyerProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BuyerProfile), args.Error(1)
}

func (m *MockUserService) ResetPassword(ctx context.Context, email, newPassword string) error {
	args := m.Called(ctx, email, newPassword)
	return args.Error(0)
}

type MockListingService struct {
	mock.Mock
}

func (m *MockListingService) CreateListing(ctx context.Context, farmerID primitive.ObjectID, in services.ListingInput) (*models.Listing, error) {
	args := m.Called(ctx, farmerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingService) UpdateListing(ctx context.Context, listingID, farmerID primitive.ObjectID, in services.ListingInput) (*models.Listing, error) {
	args := m.Called(ctx, listingID, farmerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingService) DeleteListing(ctx context.Context, listingID, farmerID primitive.ObjectID) error {
	return m.Called(ctx, listingID, farmerID).Error(0)
}

func (m *MockListingService) FindListingByID(ctx context.Context, listingID primitive.ObjectID) (*models.Listing, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingService) ListFarmerListings(ctx context.Context, farmerID primitive.ObjectID) ([]models.Listing, error) {
	args := m.Called(ctx, farmerID)
	return args.Get(0).([]models.Listing), args.Error(1)
}

func (m *MockListingService) ListMarketplace(ctx context.Context) ([]models.Listing, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Listing), args.Error(1)
}

func (m *MockListingService) RecordInterest(ctx context.Context, listingID primitive.ObjectID) (*models.Listing, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingService) RequestImageUpload(ctx context.Context, listingID, farmerID primitive.ObjectID, filename, contentType string) (string, string, error) {
	args := m.Called(ctx, listingID, farmerID, filename, contentType)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockListingService) ConfirmImageUpload(ctx context.Context, listingID, farmerID primitive.ObjectID, key string) (*models.Listing, error) {
	args := m.Called(ctx, listingID, farmerID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingService) SetListingImage(ctx context.Context, listingID primitive.ObjectID, key string) error {
	return m.Called(ctx, listingID, key).Error(0)
}

type MockPurchaseService struct {
	mock.Mock
}

func (m *MockPurchaseService) Purchase(ctx context.Context, buyerID, listingID primitive.ObjectID) (*models.PurchaseDetail, error) {
	args := m.Called(ctx, buyerID, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PurchaseDetail), args.Error(1)
}

func (m *MockPurchaseService) ListBuyerPurchases(ctx context.Context, buyerID primitive.ObjectID) ([]models.PurchaseDetail, error) {
	args := m.Called(ctx, buyerID)
	return args.Get(0).([]models.PurchaseDetail), args.Error(1)
}

type MockInquiryService struct {
	mock.Mock
}

func (m *MockInquiryService) CreateInquiry(ctx context.Context, buyerID, listingID primitive.ObjectID, message string) (*models.Inquiry, error) {
	args := m.Called(ctx, buyerID, listingID, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Inquiry), args.Error(1)
}

func (m *MockInquiryService) ReplyToInquiry(ctx context.Context, farmerID, inquiryID primitive.ObjectID, message string) (*models.Inquiry, error) {
	args := m.Called(ctx, farmerID, inquiryID, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Inquiry), args.Error(1)
}

func (m *MockInquiryService) ListFarmerInquiries(ctx context.Context, farmerID primitive.ObjectID) ([]models.FeedItem, error) {
	args := m.Called(ctx, farmerID)
	return args.Get(0).([]models.FeedItem), args.Error(1)
}

func (m *MockInquiryService) ListBuyerInquiries(ctx context.Context, buyerID primitive.ObjectID) ([]models.Inquiry, error) {
	args := m.Called(ctx, buyerID)
	return args.Get(0).([]models.Inquiry), args.Error(1)
}

type MockCommunityService struct {
	mock.Mock
}

func (m *MockCommunityService) ListPosts(ctx context.Context) ([]models.CommunityPost, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.CommunityPost), args.Error(1)
}

func (m *MockCommunityService) CreatePost(ctx context.Context, authorID primitive.ObjectID, question string) (*models.CommunityPost, error) {
	args := m.Called(ctx, authorID, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CommunityPost), args.Error(1)
}

func (m *MockCommunityService) AddReply(ctx context.Context, authorID, postID primitive.ObjectID, content string) (*models.CommunityPost, error) {
	args := m.Called(ctx, authorID, postID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CommunityPost), args.Error(1)
}

func (m *MockCommunityService) DeletePost(ctx context.Context, userID, postID primitive.ObjectID) error {
	return m.Called(ctx, userID, postID).Error(0)
}

func (m *MockCommunityService) DeleteReply(ctx context.Context, userID, postID, replyID primitive.ObjectID) error {
	return m.Called(ctx, userID, postID, replyID).Error(0)
}

type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) BuyerStats(ctx context.Context, buyerID primitive.ObjectID) (*models.BuyerStats, error) {
	args := m.Called(ctx, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BuyerStats), args.Error(1)
}

func (m *MockStatsService) FarmerStats(ctx context.Context, farmerID primitive.ObjectID) (*models.FarmerStats, error) {
	args := m.Called(ctx, farmerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FarmerStats), args.Error(1)
}

func (m *MockStatsService) PlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlatformStats), args.Error(1)
}
