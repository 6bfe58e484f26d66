package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sushil-kumar-saw/mitra-farm/internal/email"
	"github.com/sushil-kumar-saw/mitra-farm/internal/models"
)

// IAsynqClient is the subset of *asynq.Client the notifier needs.
type IAsynqClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// EmailTaskPayload identifies the people and listing behind a notification.
// Names and addresses are resolved by the worker at delivery time.
type EmailTaskPayload struct {
	Kind          string  `json:"kind"`
	RecipientID   string  `json:"recipient_id"`
	CounterpartID string  `json:"counterpart_id"`
	ListingID     string  `json:"listing_id"`
	WasteType     string  `json:"waste_type,omitempty"`
	Quantity      string  `json:"quantity,omitempty"`
	Price         string  `json:"price,omitempty"`
	TotalAmount   float64 `json:"total_amount,omitempty"`
	Message       string  `json:"message,omitempty"`
}

// ImageTaskPayload points at an uploaded listing image.
type ImageTaskPayload struct {
	S3Key     string `json:"s3_key"`
	ListingID string `json:"listing_id"`
}

// Notifier turns domain events into background tasks.
type Notifier struct {
	client IAsynqClient
}

// NewNotifier creates a Notifier enqueuing through client.
func NewNotifier(client IAsynqClient) *Notifier {
	return &Notifier{client: client}
}

func (n *Notifier) PurchaseCreated(ctx context.Context, p *models.Purchase) error {
	return n.enqueueEmail(ctx, QueueCritical, EmailTaskPayload{
		Kind:          email.KindPurchaseCreated,
		RecipientID:   p.FarmerID.Hex(),
		CounterpartID: p.BuyerID.Hex(),
		ListingID:     p.ListingID.Hex(),
		WasteType:     p.WasteType,
		Quantity:      p.Quantity,
		Price:         p.Price,
		TotalAmount:   p.TotalAmount,
	})
}

func (n *Notifier) InquiryCreated(ctx context.Context, in *models.Inquiry) error {
	return n.enqueueEmail(ctx, QueueDefault, EmailTaskPayload{
		Kind:          email.KindInquiryCreated,
		RecipientID:   in.FarmerID.Hex(),
		CounterpartID: in.BuyerID.Hex(),
		ListingID:     in.ListingID.Hex(),
		Message:       in.Message,
	})
}

func (n *Notifier) InquiryReplied(ctx context.Context, in *models.Inquiry) error {
	message := ""
	if len(in.Replies) > 0 {
		message = in.Replies[len(in.Replies)-1].Message
	}
	return n.enqueueEmail(ctx, QueueDefault, EmailTaskPayload{
		Kind:          email.KindInquiryReplied,
		RecipientID:   in.BuyerID.Hex(),
		CounterpartID: in.FarmerID.Hex(),
		ListingID:     in.ListingID.Hex(),
		Message:       message,
	})
}

func (n *Notifier) ListingImageUploaded(ctx context.Context, listingID primitive.ObjectID, key string) error {
	payload, err := json.Marshal(ImageTaskPayload{S3Key: key, ListingID: listingID.Hex()})
	if err != nil {
		return fmt.Errorf("failed to marshal image task payload: %w", err)
	}
	_, err = n.client.EnqueueContext(ctx, asynq.NewTask(TypeImageProcess, payload), asynq.Queue(QueueImages), asynq.MaxRetry(3))
	if err != nil {
		return fmt.Errorf("failed to enqueue image task for listing %s: %w", listingID.Hex(), err)
	}
	return nil
}

func (n *Notifier) enqueueEmail(ctx context.Context, queue string, p EmailTaskPayload) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal email task payload: %w", err)
	}
	_, err = n.client.EnqueueContext(ctx, asynq.NewTask(TypeEmailDelivery, payload), asynq.Queue(queue), asynq.MaxRetry(5))
	if err != nil {
		return fmt.Errorf("failed to enqueue %s email: %w", p.Kind, err)
	}
	return nil
}
