package services

import (
	"context"

	"github.com/sushil-kumar-saw/mitra-farm/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// INotifier hands domain events to the background workers. Implementations
// must not block on delivery; a failed hand-off is logged by the caller and
// never fails the originating request.
type INotifier interface {
	PurchaseCreated(ctx context.Context, purchase *models.Purchase) error
	InquiryCreated(ctx context.Context, inquiry *models.Inquiry) error
	InquiryReplied(ctx context.Context, inquiry *models.Inquiry) error
	ListingImageUploaded(ctx context.Context, listingID primitive.ObjectID, key string) error
}

// NoopNotifier drops every event. Used when Redis is not configured and in tests.
type NoopNotifier struct{}

func (NoopNotifier) PurchaseCreated(context.Context, *models.Purchase) error { return nil }
func (NoopNotifier) InquiryCreated(context.Context, *models.Inquiry) error   { return nil }
func (NoopNotifier) InquiryReplied(context.Context, *models.Inquiry) error   { return nil }
func (NoopNotifier) ListingImageUploaded(context.Context, primitive.ObjectID, string) error {
	return nil
}
