package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sushil-kumar-saw/mitra-farm/internal/db"
	"github.com/sushil-kumar-saw/mitra-farm/internal/models"
)

// IInquiryService defines the interface for buyer/farmer inquiry operations.
type IInquiryService interface {
	CreateInquiry(ctx context.Context, buyerID, listingID primitive.ObjectID, message string) (*models.Inquiry, error)
	ReplyToInquiry(ctx context.Context, farmerID, inquiryID primitive.ObjectID, message string) (*models.Inquiry, error)
	ListFarmerInquiries(ctx context.Context, farmerID primitive.ObjectID) ([]models.FeedItem, error)
	ListBuyerInquiries(ctx context.Context, buyerID primitive.ObjectID) ([]models.Inquiry, error)
}

type inquiryService struct {
	db       *mongo.Database
	listings IListingService
	users    IUserService
	notifier INotifier
}

// NewInquiryService creates a new InquiryService.
func NewInquiryService(db *mongo.Database, listings IListingService, users IUserService, notifier INotifier) IInquiryService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &inquiryService{db: db, listings: listings, users: users, notifier: notifier}
}

// CreateInquiry stores a buyer's message about a listing and bumps the
// listing's inquiry counter.
func (s *inquiryService) CreateInquiry(ctx context.Context, buyerID, listingID primitive.ObjectID, message string) (*models.Inquiry, error) {
	message = strings.TrimSpace(message)
	if listingID.IsZero() || message == "" {
		return nil, validationErr("Listing ID and message are required")
	}

	listing, err := s.listings.FindListingByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	buyer, err := s.users.FindByID(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	farmerName := listing.FarmerName
	if farmerName == "" {
		if farmer, err := s.users.FindByID(ctx, listing.FarmerID); err == nil {
			farmerName = farmer.Name
		} else {
			farmerName = "Unknown Farmer"
		}
	}

	inquiry := &models.Inquiry{
		BuyerID:    buyerID,
		FarmerID:   listing.FarmerID,
		ListingID:  listing.ID,
		BuyerName:  buyer.Name,
		FarmerName: farmerName,
		Message:    message,
		Status:     models.InquiryPending,
		Replies:    []models.InquiryReply{},
	}
	inquiry.GenIDIfEmpty()
	inquiry.Touch(time.Now().UTC())

	err = db.Try(func() error {
		_, insertErr := s.db.Collection(db.InquiriesCollection).InsertOne(ctx, inquiry)
		return insertErr
	})
	if err != nil {
		return nil, fmt.Errorf("error inserting inquiry for listing %s: %w", listingID.Hex(), err)
	}

	if _, err := s.listings.RecordInterest(ctx, listingID); err != nil {
		log.Printf("Failed to bump inquiry counter on listing %s: %v", listingID.Hex(), err)
	}
	if err := s.notifier.InquiryCreated(ctx, inquiry); err != nil {
		log.Printf("Failed to queue inquiry notification for %s: %v", inquiry.ID.Hex(), err)
	}
	return inquiry, nil
}

// ReplyToInquiry appends the farmer's reply and marks the inquiry Replied.
func (s *inquiryService) ReplyToInquiry(ctx context.Context, farmerID, inquiryID primitive.ObjectID, message string) (*models.Inquiry, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, validationErr("Reply message is required")
	}

	coll := s.db.Collection(db.InquiriesCollection)
	var inquiry models.Inquiry
	if err := coll.FindOne(ctx, bson.M{"_id": inquiryID}).Decode(&inquiry); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInquiryNotFound
		}
		return nil, fmt.Errorf("error finding inquiry %s: %w", inquiryID.Hex(), err)
	}
	if inquiry.FarmerID != farmerID {
		return nil, ErrNotInquiryFarmer
	}

	farmer, err := s.users.FindByID(ctx, farmerID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	reply := models.InquiryReply{
		ID:         primitive.NewObjectID(),
		AuthorID:   farmerID,
		AuthorName: farmer.Name,
		Message:    message,
		CreatedAt:  now,
	}
	var updated models.Inquiry
	err = coll.FindOneAndUpdate(ctx,
		bson.M{"_id": inquiryID, "farmer_id": farmerID},
		bson.M{
			"$push": bson.M{"replies": reply},
			"$set":  bson.M{"status": models.InquiryReplied, "updated_at": now},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInquiryNotFound
		}
		return nil, fmt.Errorf("error replying to inquiry %s: %w", inquiryID.Hex(), err)
	}

	if err := s.notifier.InquiryReplied(ctx, &updated); err != nil {
		log.Printf("Failed to queue reply notification for %s: %v", inquiryID.Hex(), err)
	}
	return &updated, nil
}

// ListFarmerInquiries merges purchases of the farmer's listings with the
// inquiries addressed to the farmer into one feed, newest first.
func (s *inquiryService) ListFarmerInquiries(ctx context.Context, farmerID primitive.ObjectID) ([]models.FeedItem, error) {
	listings, err := s.listings.ListFarmerListings(ctx, farmerID)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]*models.Listing, len(listings))
	listingIDs := make([]primitive.ObjectID, 0, len(listings))
	for i := range listings {
		byID[listings[i].ID] = &listings[i]
		listingIDs = append(listingIDs, listings[i].ID)
	}

	newestFirst := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var purchases []models.Purchase
	if len(listingIDs) > 0 {
		cursor, err := s.db.Collection(db.PurchasesCollection).Find(ctx, bson.M{"listing_id": bson.M{"$in": listingIDs}}, newestFirst)
		if err != nil {
			return nil, fmt.Errorf("error querying purchases for farmer %s: %w", farmerID.Hex(), err)
		}
		if err := cursor.All(ctx, &purchases); err != nil {
			return nil, fmt.Errorf("error decoding purchases: %w", err)
		}
	}

	cursor, err := s.db.Collection(db.InquiriesCollection).Find(ctx, bson.M{"farmer_id": farmerID}, newestFirst)
	if err != nil {
		return nil, fmt.Errorf("error querying inquiries for farmer %s: %w", farmerID.Hex(), err)
	}
	var inquiries []models.Inquiry
	if err := cursor.All(ctx, &inquiries); err != nil {
		return nil, fmt.Errorf("error decoding inquiries: %w", err)
	}

	buyers := make(map[primitive.ObjectID]*models.User)
	buyer := func(id primitive.ObjectID) *models.User {
		if u, ok := buyers[id]; ok {
			return u
		}
		u, err := s.users.FindByID(ctx, id)
		if err != nil {
			u = nil
		}
		buyers[id] = u
		return u
	}

	feed := make([]models.FeedItem, 0, len(purchases)+len(inquiries))
	for _, p := range purchases {
		item := models.FeedItem{
			ID:             p.ID,
			Type:           models.FeedTypePurchase,
			BuyerID:        p.BuyerID,
			BuyerName:      "Unknown Buyer",
			ListingID:      p.ListingID,
			Product:        fmt.Sprintf("%s - %s", p.WasteType, p.Quantity),
			Message:        fmt.Sprintf("Interested in purchasing %s of %s", p.Quantity, p.WasteType),
			Status:         models.PurchaseFeedStatus(p.Status),
			PurchaseStatus: p.Status,
			TotalAmount:    p.TotalAmount,
			CreatedAt:      p.CreatedAt,
		}
		if u := buyer(p.BuyerID); u != nil {
			item.BuyerName = u.Name
			item.BuyerEmail = u.Email
		}
		feed = append(feed, item)
	}
	for _, in := range inquiries {
		product := "Unknown - N/A"
		if l, ok := byID[in.ListingID]; ok {
			product = fmt.Sprintf("%s - %s", orDefault(l.WasteType, "Unknown"), orDefault(l.Quantity, "N/A"))
		}
		item := models.FeedItem{
			ID:        in.ID,
			Type:      models.FeedTypeInquiry,
			BuyerID:   in.BuyerID,
			BuyerName: in.BuyerName,
			ListingID: in.ListingID,
			Product:   product,
			Message:   in.Message,
			Status:    models.InquiryFeedStatus(in.Status),
			Replies:   in.Replies,
			CreatedAt: in.CreatedAt,
		}
		if u := buyer(in.BuyerID); u != nil {
			item.BuyerEmail = u.Email
		}
		feed = append(feed, item)
	}

	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].CreatedAt.After(feed[j].CreatedAt)
	})
	return feed, nil
}

// ListBuyerInquiries returns the buyer's inquiries, newest first.
func (s *inquiryService) ListBuyerInquiries(ctx context.Context, buyerID primitive.ObjectID) ([]models.Inquiry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.db.Collection(db.InquiriesCollection).Find(ctx, bson.M{"buyer_id": buyerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error querying inquiries for buyer %s: %w", buyerID.Hex(), err)
	}
	inquiries := []models.Inquiry{}
	if err := cursor.All(ctx, &inquiries); err != nil {
		return nil, fmt.Errorf("error decoding inquiries: %w", err)
	}
	return inquiries, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
