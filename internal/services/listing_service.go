package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sushil-kumar-saw/mitra-farm/internal/db"
	"github.com/sushil-kumar-saw/mitra-farm/internal/models"
	"github.com/sushil-kumar-saw/mitra-farm/internal/storage"
)

// ErrImageUploadDisabled is returned when no S3 bucket is configured.
var ErrImageUploadDisabled = errors.New("image upload is not configured")

// Sold is terminal: the purchase that sold the listing still stands.
var errSoldListingStatus = &ValidationError{Message: "Status of a sold listing cannot be changed"}

// ListingInput carries the farmer-editable fields of a listing. A nil field
// is left untouched on update and empty on create.
type ListingInput struct {
	Location        *string               `json:"location"`
	WasteType       *string               `json:"wasteType"`
	Quantity        *string               `json:"quantity"`
	Price           *string               `json:"price"`
	CarbonSaving    *string               `json:"carbonSaving"`
	CO2Footprint    *string               `json:"co2Footprint"`
	Image           *string               `json:"image"`
	Status          *models.ListingStatus `json:"status"`
	Description     *string               `json:"description"`
	Category        *string               `json:"category"`
	ExpectedProcess *string               `json:"expectedProcess"`
	Tags            []string              `json:"tags"`
}

// apply copies the supplied fields onto l and returns the bson names touched.
func (in *ListingInput) apply(l *models.Listing) []string {
	var touched []string
	set := func(dst *string, src *string, field string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
			touched = append(touched, field)
		}
	}
	set(&l.Location, in.Location, "location")
	set(&l.WasteType, in.WasteType, "waste_type")
	set(&l.Quantity, in.Quantity, "quantity")
	set(&l.Price, in.Price, "price")
	set(&l.CarbonSaving, in.CarbonSaving, "carbon_saving")
	set(&l.CO2Footprint, in.CO2Footprint, "co2_footprint")
	set(&l.Image, in.Image, "image")
	set(&l.Description, in.Description, "description")
	set(&l.Category, in.Category, "category")
	set(&l.ExpectedProcess, in.ExpectedProcess, "expected_process")
	if in.Status != nil {
		l.Status = *in.Status
		touched = append(touched, "status")
	}
	if in.Tags != nil {
		l.Tags = in.Tags
		touched = append(touched, "tags")
	}
	return touched
}

func (in *ListingInput) validate() error {
	if in.Status != nil && !in.Status.Valid() {
		return validationErr("Invalid status %q", string(*in.Status))
	}
	return nil
}

// IListingService defines the interface for listing-related operations.
type IListingService interface {
	CreateListing(ctx context.Context, farmerID primitive.ObjectID, in ListingInput) (*models.Listing, error)
	UpdateListing(ctx context.Context, listingID, farmerID primitive.ObjectID, in ListingInput) (*models.Listing, error)
	DeleteListing(ctx context.Context, listingID, farmerID primitive.ObjectID) error
	FindListingByID(ctx context.Context, listingID primitive.ObjectID) (*models.Listing, error)
	ListFarmerListings(ctx context.Context, farmerID primitive.ObjectID) ([]models.Listing, error)
	ListMarketplace(ctx context.Context) ([]models.Listing, error)
	RecordInterest(ctx context.Context, listingID primitive.ObjectID) (*models.Listing, error)
	RequestImageUpload(ctx context.Context, listingID, farmerID primitive.ObjectID, filename, contentType string) (string, string, error)
	ConfirmImageUpload(ctx context.Context, listingID, farmerID primitive.ObjectID, key string) (*models.Listing, error)
	SetListingImage(ctx context.Context, listingID primitive.ObjectID, key string) error
}

// listingService implements IListingService.
type listingService struct {
	db       *mongo.Database
	users    IUserService
	storage  storage.IS3Storage
	notifier INotifier
}

// NewListingService creates a new ListingService. storage may be nil when
// image uploads are not configured.
func NewListingService(db *mongo.Database, users IUserService, storage storage.IS3Storage, notifier INotifier) IListingService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &listingService{db: db, users: users, storage: storage, notifier: notifier}
}

// CreateListing stores a listing for the farmer. Partial payloads are
// accepted; status defaults to Active.
func (s *listingService) CreateListing(ctx context.Context, farmerID primitive.ObjectID, in ListingInput) (*models.Listing, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	farmer, err := s.users.FindByID(ctx, farmerID)
	if err != nil {
		return nil, err
	}

	listing := &models.Listing{
		FarmerID:   farmer.ID,
		FarmerName: farmer.Name,
		Tags:       []string{},
	}
	in.apply(listing)
	if listing.Status == "" {
		listing.Status = models.ListingActive
	}
	listing.ComputeValues()
	listing.GenIDIfEmpty()
	listing.Touch(time.Now().UTC())

	err = db.Try(func() error {
		_, insertErr := s.db.Collection(db.ListingsCollection).InsertOne(ctx, listing)
		return insertErr
	})
	if err != nil {
		return nil, fmt.Errorf("error inserting listing for farmer %s: %w", farmerID.Hex(), err)
	}
	log.Printf("Listing %s created by farmer %s", listing.ID.Hex(), farmerID.Hex())
	return listing, nil
}

// UpdateListing merges the supplied fields onto a listing the farmer owns and
// refreshes the derived numbers. Only touched fields are written, so a
// concurrent purchase flipping the status is never overwritten by an edit
// that did not mention status.
func (s *listingService) UpdateListing(ctx context.Context, listingID, farmerID primitive.ObjectID, in ListingInput) (*models.Listing, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	current, err := s.findOwned(ctx, listingID, farmerID)
	if err != nil {
		return nil, err
	}
	statusChange := in.Status != nil && *in.Status != current.Status
	if statusChange && current.Status == models.ListingSold {
		return nil, errSoldListingStatus
	}

	touched := in.apply(current)
	current.ComputeValues()

	doc, err := toBsonM(current)
	if err != nil {
		return nil, err
	}
	set := bson.M{
		"updated_at":     time.Now().UTC(),
		"price_value":    current.PriceValue,
		"quantity_value": current.QuantityValue,
		"quantity_tons":  current.QuantityTons,
		"carbon_value":   current.CarbonValue,
	}
	for _, field := range touched {
		set[field] = doc[field]
	}

	filter := bson.M{"_id": listingID, "farmer_id": farmerID}
	guardSold := in.Status != nil && *in.Status != models.ListingSold
	if guardSold {
		// A purchase may have claimed the listing since it was read.
		filter["status"] = bson.M{"$ne": models.ListingSold}
	}

	var updated models.Listing
	err = s.db.Collection(db.ListingsCollection).FindOneAndUpdate(ctx,
		filter,
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if guardSold {
				if _, findErr := s.findOwned(ctx, listingID, farmerID); findErr == nil {
					return nil, errSoldListingStatus
				}
			}
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("error updating listing %s: %w", listingID.Hex(), err)
	}
	return &updated, nil
}

// DeleteListing removes a listing the farmer owns.
func (s *listingService) DeleteListing(ctx context.Context, listingID, farmerID primitive.ObjectID) error {
	result, err := s.db.Collection(db.ListingsCollection).DeleteOne(ctx, bson.M{"_id": listingID, "farmer_id": farmerID})
	if err != nil {
		return fmt.Errorf("error deleting listing %s: %w", listingID.Hex(), err)
	}
	if result.DeletedCount == 0 {
		return ErrListingNotFound
	}
	log.Printf("Listing %s deleted by farmer %s", listingID.Hex(), farmerID.Hex())
	return nil
}

// FindListingByID returns any listing regardless of status.
func (s *listingService) FindListingByID(ctx context.Context, listingID primitive.ObjectID) (*models.Listing, error) {
	var listing models.Listing
	err := s.db.Collection(db.ListingsCollection).FindOne(ctx, bson.M{"_id": listingID}).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("error finding listing %s: %w", listingID.Hex(), err)
	}
	return &listing, nil
}

func (s *listingService) findOwned(ctx context.Context, listingID, farmerID primitive.ObjectID) (*models.Listing, error) {
	var listing models.Listing
	err := s.db.Collection(db.ListingsCollection).FindOne(ctx, bson.M{"_id": listingID, "farmer_id": farmerID}).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("error finding listing %s: %w", listingID.Hex(), err)
	}
	return &listing, nil
}

// ListFarmerListings returns the farmer's listings, newest first.
func (s *listingService) ListFarmerListings(ctx context.Context, farmerID primitive.ObjectID) ([]models.Listing, error) {
	return s.find(ctx, bson.M{"farmer_id": farmerID})
}

// ListMarketplace returns Active listings, newest first, with display
// defaults applied.
func (s *listingService) ListMarketplace(ctx context.Context) ([]models.Listing, error) {
	listings, err := s.find(ctx, bson.M{"status": models.ListingActive})
	if err != nil {
		return nil, err
	}
	if err := s.resolveFarmerNames(ctx, listings); err != nil {
		return nil, err
	}
	for i := range listings {
		listings[i] = listings[i].ForMarketplace()
	}
	return listings, nil
}

// resolveFarmerNames fills in FarmerName from the users collection for
// listings stored without the snapshot, in one query.
func (s *listingService) resolveFarmerNames(ctx context.Context, listings []models.Listing) error {
	var ids []primitive.ObjectID
	seen := map[primitive.ObjectID]bool{}
	for _, l := range listings {
		if l.FarmerName == "" && !l.FarmerID.IsZero() && !seen[l.FarmerID] {
			seen[l.FarmerID] = true
			ids = append(ids, l.FarmerID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	opts := options.Find().SetProjection(bson.M{"name": 1})
	cursor, err := s.db.Collection(db.UsersCollection).Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return fmt.Errorf("error resolving farmer names: %w", err)
	}
	var farmers []models.User
	if err := cursor.All(ctx, &farmers); err != nil {
		return fmt.Errorf("error decoding farmer names: %w", err)
	}
	names := make(map[primitive.ObjectID]string, len(farmers))
	for _, f := range farmers {
		names[f.ID] = f.Name
	}
	for i := range listings {
		if listings[i].FarmerName == "" {
			listings[i].FarmerName = names[listings[i].FarmerID]
		}
	}
	return nil
}

func (s *listingService) find(ctx context.Context, filter bson.M) ([]models.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.db.Collection(db.ListingsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error querying listings: %w", err)
	}
	listings := []models.Listing{}
	if err := cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("error decoding listings: %w", err)
	}
	return listings, nil
}

// RecordInterest bumps the listing's inquiry counter.
func (s *listingService) RecordInterest(ctx context.Context, listingID primitive.ObjectID) (*models.Listing, error) {
	var listing models.Listing
	err := s.db.Collection(db.ListingsCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": listingID},
		bson.M{"$inc": bson.M{"inquiries": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("error incrementing inquiries on listing %s: %w", listingID.Hex(), err)
	}
	return &listing, nil
}

// RequestImageUpload returns a presigned PUT URL and the object key the
// client must upload to.
func (s *listingService) RequestImageUpload(ctx context.Context, listingID, farmerID primitive.ObjectID, filename, contentType string) (string, string, error) {
	if s.storage == nil {
		return "", "", ErrImageUploadDisabled
	}
	if filename == "" || contentType == "" {
		return "", "", validationErr("filename and contentType are required")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", "", validationErr("Only image uploads are allowed")
	}
	if _, err := s.findOwned(ctx, listingID, farmerID); err != nil {
		return "", "", err
	}
	return s.storage.GeneratePresignedPutURL(ctx, farmerID.Hex(), listingID.Hex(), path.Base(filename), contentType)
}

// ConfirmImageUpload records an uploaded object against the listing and
// queues it for normalisation.
func (s *listingService) ConfirmImageUpload(ctx context.Context, listingID, farmerID primitive.ObjectID, key string) (*models.Listing, error) {
	if s.storage == nil {
		return nil, ErrImageUploadDisabled
	}
	prefix := fmt.Sprintf("uploads/%s/%s/", farmerID.Hex(), listingID.Hex())
	if !strings.HasPrefix(key, prefix) {
		return nil, validationErr("Image key does not belong to this listing")
	}
	if _, err := s.findOwned(ctx, listingID, farmerID); err != nil {
		return nil, err
	}
	if err := s.SetListingImage(ctx, listingID, key); err != nil {
		return nil, err
	}
	if err := s.notifier.ListingImageUploaded(ctx, listingID, key); err != nil {
		log.Printf("Failed to queue image processing for listing %s: %v", listingID.Hex(), err)
	}
	return s.FindListingByID(ctx, listingID)
}

// SetListingImage stores the image key on the listing.
func (s *listingService) SetListingImage(ctx context.Context, listingID primitive.ObjectID, key string) error {
	result, err := s.db.Collection(db.ListingsCollection).UpdateOne(ctx,
		bson.M{"_id": listingID},
		bson.M{"$set": bson.M{"image": key, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("error setting image on listing %s: %w", listingID.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return ErrListingNotFound
	}
	return nil
}

func toBsonM(v interface{}) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("error encoding document: %w", err)
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("error decoding document: %w", err)
	}
	return doc, nil
}
