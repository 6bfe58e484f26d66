package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sushil-kumar-saw/mitra-farm/internal/db"
	"github.com/sushil-kumar-saw/mitra-farm/internal/models"
)

// IPurchaseService defines the interface for purchase operations.
type IPurchaseService interface {
	Purchase(ctx context.Context, buyerID, listingID primitive.ObjectID) (*models.PurchaseDetail, error)
	ListBuyerPurchases(ctx context.Context, buyerID primitive.ObjectID) ([]models.PurchaseDetail, error)
}

type purchaseService struct {
	db       *mongo.Database
	listings IListingService
	users    IUserService
	notifier INotifier
}

// NewPurchaseService creates a new PurchaseService.
func NewPurchaseService(db *mongo.Database, listings IListingService, users IUserService, notifier INotifier) IPurchaseService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &purchaseService{db: db, listings: listings, users: users, notifier: notifier}
}

// Purchase records a buyer's purchase of an Active listing and marks the
// listing Sold. The listing is claimed with a conditional update before the
// purchase is written, so two buyers racing for the same listing cannot both
// succeed. If the purchase insert fails the claim is released again.
func (s *purchaseService) Purchase(ctx context.Context, buyerID, listingID primitive.ObjectID) (*models.PurchaseDetail, error) {
	listing, err := s.listings.FindListingByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Status != models.ListingActive {
		return nil, ErrListingNotAvailable
	}

	purchases := s.db.Collection(db.PurchasesCollection)
	count, err := purchases.CountDocuments(ctx, bson.M{"buyer_id": buyerID, "listing_id": listingID})
	if err != nil {
		return nil, fmt.Errorf("error checking existing purchase: %w", err)
	}
	if count > 0 {
		return nil, ErrAlreadyPurchased
	}

	now := time.Now().UTC()
	listingsColl := s.db.Collection(db.ListingsCollection)
	claim, err := listingsColl.UpdateOne(ctx,
		bson.M{"_id": listingID, "status": models.ListingActive},
		bson.M{"$set": bson.M{"status": models.ListingSold, "updated_at": now}},
	)
	if err != nil {
		return nil, fmt.Errorf("error claiming listing %s: %w", listingID.Hex(), err)
	}
	if claim.MatchedCount == 0 {
		return nil, ErrListingNotAvailable
	}

	purchase := &models.Purchase{
		BuyerID:      buyerID,
		ListingID:    listing.ID,
		FarmerID:     listing.FarmerID,
		WasteType:    listing.WasteType,
		Quantity:     listing.Quantity,
		Price:        listing.Price,
		TotalAmount:  listing.TotalAmount(),
		CarbonSaving: listing.CarbonText(),
		CarbonValue:  listing.CarbonValue,
		Status:       models.PurchasePending,
		PurchaseDate: now,
	}
	purchase.GenIDIfEmpty()
	purchase.Touch(now)

	_, err = purchases.InsertOne(ctx, purchase)
	if err != nil {
		s.releaseClaim(listingID)
		if db.IsDuplicateKeyError(err) {
			return nil, ErrAlreadyPurchased
		}
		return nil, fmt.Errorf("error inserting purchase for listing %s: %w", listingID.Hex(), err)
	}

	log.Printf("Purchase %s created: buyer %s listing %s amount %.2f",
		purchase.ID.Hex(), buyerID.Hex(), listingID.Hex(), purchase.TotalAmount)

	if err := s.notifier.PurchaseCreated(ctx, purchase); err != nil {
		log.Printf("Failed to queue purchase notification for %s: %v", purchase.ID.Hex(), err)
	}

	listing.Status = models.ListingSold
	detail := &models.PurchaseDetail{Purchase: *purchase, Listing: listing}
	detail.Farmer = s.party(ctx, listing.FarmerID)
	detail.Buyer = s.party(ctx, buyerID)
	return detail, nil
}

// releaseClaim flips a claimed listing back to Active. It runs on a fresh
// context so a cancelled request still gets its claim released.
func (s *purchaseService) releaseClaim(listingID primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := db.Try(func() error {
		_, err := s.db.Collection(db.ListingsCollection).UpdateOne(ctx,
			bson.M{"_id": listingID, "status": models.ListingSold},
			bson.M{"$set": bson.M{"status": models.ListingActive, "updated_at": time.Now().UTC()}},
		)
		return err
	})
	if err != nil {
		log.Printf("ERROR failed to release claim on listing %s: %v", listingID.Hex(), err)
	}
}

// ListBuyerPurchases returns the buyer's purchases newest first, with the
// listing, farmer and buyer resolved where they still exist.
func (s *purchaseService) ListBuyerPurchases(ctx context.Context, buyerID primitive.ObjectID) ([]models.PurchaseDetail, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.db.Collection(db.PurchasesCollection).Find(ctx, bson.M{"buyer_id": buyerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error querying purchases for buyer %s: %w", buyerID.Hex(), err)
	}
	var purchases []models.Purchase
	if err := cursor.All(ctx, &purchases); err != nil {
		return nil, fmt.Errorf("error decoding purchases: %w", err)
	}

	details := make([]models.PurchaseDetail, 0, len(purchases))
	var buyer *models.PartySummary
	if len(purchases) > 0 {
		buyer = s.party(ctx, buyerID)
	}
	for _, p := range purchases {
		d := models.PurchaseDetail{Purchase: p, Buyer: buyer}
		if listing, err := s.listings.FindListingByID(ctx, p.ListingID); err == nil {
			d.Listing = listing
		} else if !errors.Is(err, ErrListingNotFound) {
			return nil, err
		}
		d.Farmer = s.party(ctx, p.FarmerID)
		details = append(details, d)
	}
	return details, nil
}

// party resolves a user reference for display; nil if the user is gone.
func (s *purchaseService) party(ctx context.Context, userID primitive.ObjectID) *models.PartySummary {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			log.Printf("Error resolving user %s: %v", userID.Hex(), err)
		}
		return nil
	}
	return &models.PartySummary{ID: user.ID, Name: user.Name, Email: user.Email}
}
