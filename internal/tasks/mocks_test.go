package tasks_test

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sushil-kumar-saw/mitra-farm/internal/models"
	"github.com/sushil-kumar-saw/mitra-farm/internal/services"
)

// --- Mocks ---

type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	args := m.Called(ctx, to, subject, rawMessage)
	return args.Error(0)
}

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) GeneratePresignedPutURL(ctx context.Context, userID, listingID, filename, contentType string) (string, string, error) {
	args := m.Called(ctx, userID, listingID, filename, contentType)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockStorage) GetObject(ctx context.Context, key string) ([]byte, string, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

func (m *MockStorage) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	args := m.Called(ctx, key, data, contentType)
	return args.Error(0)
}

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

type MockAsynqClient struct {
	mock.Mock
}

func (m *MockAsynqClient) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*asynq.TaskInfo), args.Error(1)
}
