package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sushil-kumar-saw/mitra-farm/internal/db"
	"github.com/sushil-kumar-saw/mitra-farm/internal/models"
	"github.com/sushil-kumar-saw/mitra-farm/internal/utils"
)

var allCollections = []string{
	db.UsersCollection,
	db.FarmersCollection,
	db.BuyersCollection,
	db.ListingsCollection,
	db.PurchasesCollection,
	db.InquiriesCollection,
	db.CommunityPostsCollection,
}

type testServices struct {
	db        *mongo.Database
	users     IUserService
	listings  IListingService
	purchases IPurchaseService
	inquiries IInquiryService
	community ICommunityService
	stats     IStatsService
}

func setupServices(t *testing.T, dbName string) *testServices {
	t.Helper()
	database := utils.SetupTestDB(t, dbName, allCollections...)
	require.NoError(t, db.EnsureIndexes(context.Background(), database))

	users := NewUserService(database)
	listings := NewListingService(database, users, nil, nil)
	return &testServices{
		db:        database,
		users:     users,
		listings:  listings,
		purchases: NewPurchaseService(database, listings, users, nil),
		inquiries: NewInquiryService(database, listings, users, nil),
		community: NewCommunityService(database, users),
		stats:     NewStatsService(database, users, nil, 0),
	}
}

func (ts *testServices) register(t *testing.T, name, email string, role models.Role) *models.User {
	t.Helper()
	user, err := ts.users.Register(context.Background(), name, email, "test123", role)
	require.NoError(t, err)
	return user
}

func strPtr(s string) *string { return &s }
