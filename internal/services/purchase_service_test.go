package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/sushil-kumar-saw/mitra-farm/internal/db"
	"github.com/sushil-kumar-saw/mitra-farm/internal/models"
)

func TestPurchaseService_Purchase(t *testing.T) {
	ts := setupServices(t, "testdb_purchase_success")
	ctx := context.Background()
	farmer := ts.register(t, "Ravi", "ravi@example.com", models.RoleFarmer)
	buyer := ts.register(t, "Acme", "acme@example.com", models.RoleBuyer)

	listing, err := ts.listings.CreateListing(ctx, farmer.ID, ListingInput{
		WasteType:    strPtr("Rice Straw"),
		Quantity:     strPtr("50 tons"),
		Price:        strPtr("₹8,500/ton"),
		CarbonSaving: strPtr("2.3 tons CO₂"),
	})
	require.NoError(t, err)

	detail, err := ts.purchases.Purchase(ctx, buyer.ID, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 425000.0, detail.TotalAmount)
	assert.Equal(t, models.PurchasePending, detail.Status)
	assert.Equal(t, "Rice Straw", detail.WasteType)
	require.NotNil(t, detail.Farmer)
	assert.Equal(t, "Ravi", detail.Farmer.Name)
	require.NotNil(t, detail.Buyer)
	assert.Equal(t, "Acme", detail.Buyer.Name)
	assert.Equal(t, buyer.ID, detail.Buyer.ID)

	found, err := ts.listings.FindListingByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ListingSold, found.Status)

	history, err := ts.purchases.ListBuyerPurchases(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].Buyer)
	assert.Equal(t, "Acme", history[0].Buyer.Name)
	require.NotNil(t, history[0].Farmer)
	assert.Equal(t, "Ravi", history[0].Farmer.Name)
}

func TestPurchaseService_NotActive(t *testing.T) {
	ts := setupServices(t, "testdb_purchase_not_active")
	ctx := context.Background()
	farmer := ts.register(t, "Ravi", "ravi@example.com", models.RoleFarmer)
	buyer := ts.register(t, "Acme", "acme@example.com", models.RoleBuyer)

	inactive := models.ListingInactive
	listing, err := ts.listings.CreateListing(ctx, farmer.ID, ListingInput{Status: &inactive})
	require.NoError(t, err)

	_, err = ts.purchases.Purchase(ctx, buyer.ID, listing.ID)
	assert.ErrorIs(t, err, ErrListingNotAvailable)

	count, err := ts.db.Collection(db.PurchasesCollection).CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPurchaseService_AlreadyPurchased(t *testing.T) {
	ts := setupServices(t, "testdb_purchase_twice")
	ctx := context.Background()
	farmer := ts.register(t, "Ravi", "ravi@example.com", models.RoleFarmer)
	buyer := ts.register(t, "Acme", "acme@example.com", models.RoleBuyer)

	listing, err := ts.listings.CreateListing(ctx, farmer.ID, ListingInput{Price: strPtr("₹100"), Quantity: strPtr("2 tons")})
	require.NoError(t, err)

	// An earlier purchase by the same buyer while the listing is still Active,
	// so only the per-buyer check stops the second attempt.
	first := &models.Purchase{
		BuyerID:   buyer.ID,
		ListingID: listing.ID,
		FarmerID:  farmer.ID,
		Status:    models.PurchasePending,
	}
	first.GenIDIfEmpty()
	first.Touch(time.Now().UTC())
	_, err = ts.db.Collection(db.PurchasesCollection).InsertOne(ctx, first)
	require.NoError(t, err)

	_, err = ts.purchases.Purchase(ctx, buyer.ID, listing.ID)
	assert.ErrorIs(t, err, ErrAlreadyPurchased)

	var stored []models.Purchase
	cursor, err := ts.db.Collection(db.PurchasesCollection).Find(ctx, bson.M{"buyer_id": buyer.ID})
	require.NoError(t, err)
	require.NoError(t, cursor.All(ctx, &stored))
	require.Len(t, stored, 1)
	assert.Equal(t, first.ID, stored[0].ID)

	found, err := ts.listings.FindListingByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ListingActive, found.Status)
}

func TestPurchaseService_ConcurrentBuyersOnlyOneWins(t *testing.T) {
	ts := setupServices(t, "testdb_purchase_race")
	ctx := context.Background()
	farmer := ts.register(t, "Ravi", "ravi@example.com", models.RoleFarmer)
	listing, err := ts.listings.CreateListing(ctx, farmer.ID, ListingInput{WasteType: strPtr("Husk")})
	require.NoError(t, err)

	const buyers = 5
	ids := make([]*models.User, buyers)
	for i := range ids {
		ids[i] = ts.register(t, "Buyer", string(rune('a'+i))+"@example.com", models.RoleBuyer)
	}

	var wg sync.WaitGroup
	results := make([]error, buyers)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = ts.purchases.Purchase(ctx, ids[i].ID, listing.ID)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrListingNotAvailable)
		}
	}
	assert.Equal(t, 1, wins)
}
