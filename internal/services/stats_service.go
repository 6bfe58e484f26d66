package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sushil-kumar-saw/mitra-farm/internal/cache"
	"github.com/sushil-kumar-saw/mitra-farm/internal/db"
	"github.com/sushil-kumar-saw/mitra-farm/internal/models"
	"github.com/sushil-kumar-saw/mitra-farm/internal/utils"
)

const platformStatsKey = "stats:platform"

// Per-listing multipliers behind the synthetic landing page figures.
const (
	co2TonsPerListing         = 5
	revenueMillionsPerListing = 0.01
)

// IStatsService defines the interface for dashboard statistics.
type IStatsService interface {
	BuyerStats(ctx context.Context, buyerID primitive.ObjectID) (*models.BuyerStats, error)
	FarmerStats(ctx context.Context, farmerID primitive.ObjectID) (*models.FarmerStats, error)
	PlatformStats(ctx context.Context) (*models.PlatformStats, error)
}

type statsService struct {
	db    *mongo.Database
	users IUserService
	cache cache.IJSONCache
	ttl   time.Duration
}

// NewStatsService creates a new StatsService. jsonCache may be nil, in which
// case platform stats are computed on every call.
func NewStatsService(db *mongo.Database, users IUserService, jsonCache cache.IJSONCache, ttl time.Duration) IStatsService {
	return &statsService{db: db, users: users, cache: jsonCache, ttl: ttl}
}

func (s *statsService) BuyerStats(ctx context.Context, buyerID primitive.ObjectID) (*models.BuyerStats, error) {
	if _, err := s.users.FindBuyerProfile(ctx, buyerID); err != nil {
		return nil, err
	}

	cursor, err := s.db.Collection(db.PurchasesCollection).Find(ctx, bson.M{"buyer_id": buyerID})
	if err != nil {
		return nil, fmt.Errorf("error querying purchases for buyer %s: %w", buyerID.Hex(), err)
	}
	var purchases []models.Purchase
	if err := cursor.All(ctx, &purchases); err != nil {
		return nil, fmt.Errorf("error decoding purchases: %w", err)
	}

	stats := &models.BuyerStats{TotalPurchases: int64(len(purchases))}
	var carbon float64
	for _, p := range purchases {
		if p.Status == models.PurchasePending || p.Status == models.PurchaseConfirmed {
			stats.ActiveTransactions++
		}
		carbon += valueOr(p.CarbonValue, p.CarbonSaving, utils.ParseCarbon)
	}
	stats.CarbonSaved = utils.Round(carbon)
	return stats, nil
}

func (s *statsService) FarmerStats(ctx context.Context, farmerID primitive.ObjectID) (*models.FarmerStats, error) {
	if _, err := s.users.FindFarmerProfile(ctx, farmerID); err != nil {
		return nil, err
	}

	cursor, err := s.db.Collection(db.ListingsCollection).Find(ctx, bson.M{"farmer_id": farmerID})
	if err != nil {
		return nil, fmt.Errorf("error querying listings for farmer %s: %w", farmerID.Hex(), err)
	}
	var listings []models.Listing
	if err := cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("error decoding listings: %w", err)
	}

	stats := &models.FarmerStats{}
	var earnings, carbon, tons float64
	for i := range listings {
		l := &listings[i]
		switch l.Status {
		case models.ListingActive:
			stats.ActiveListings++
		case models.ListingSold:
			earnings += l.TotalAmount()
		}
		// Only carbon_saving counts here; a footprint-only listing adds nothing.
		if l.CarbonSaving != "" {
			carbon += valueOr(l.CarbonValue, l.CarbonSaving, utils.ParseCarbon)
		}
		tons += valueOr(l.QuantityTons, l.Quantity, utils.QuantityInTons)
	}
	stats.TotalEarnings = utils.Round(earnings)
	stats.CarbonSaved = utils.Round(carbon)
	stats.WasteRecycled = utils.Round(tons)
	return stats, nil
}

// PlatformStats returns the public landing page figures, served from the
// cache when one is configured.
func (s *statsService) PlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	if s.cache != nil {
		var cached models.PlatformStats
		err := s.cache.Get(ctx, platformStatsKey, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("Platform stats cache read failed: %v", err)
		}
	}

	farmers, err := s.db.Collection(db.FarmersCollection).CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("error counting farmers: %w", err)
	}
	listings, err := s.db.Collection(db.ListingsCollection).CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("error counting listings: %w", err)
	}

	stats := &models.PlatformStats{
		ActiveFarmers:   farmers,
		CO2Saved:        listings * co2TonsPerListing,
		RevenueMillions: int64(math.Max(0, float64(utils.Round(float64(listings)*revenueMillionsPerListing)))),
	}

	if s.cache != nil && s.ttl > 0 {
		if err := s.cache.Set(ctx, platformStatsKey, stats, s.ttl); err != nil {
			log.Printf("Platform stats cache write failed: %v", err)
		}
	}
	return stats, nil
}

// valueOr returns *v when the structured value was stored, otherwise parses
// text for documents written before the structured fields existed.
func valueOr(v *float64, text string, parse func(string) (float64, bool)) float64 {
	if v != nil {
		return *v
	}
	if parsed, ok := parse(text); ok {
		return parsed
	}
	return 0
}
