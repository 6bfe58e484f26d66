package tasks_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sushil-kumar-saw/mitra-farm/internal/config"
	"github.com/sushil-kumar-saw/mitra-farm/internal/email"
	"github.com/sushil-kumar-saw/mitra-farm/internal/models"
	"github.com/sushil-kumar-saw/mitra-farm/internal/services"
	"github.com/sushil-kumar-saw/mitra-farm/internal/storage"
	"github.com/sushil-kumar-saw/mitra-farm/internal/tasks"
)

func testConfig() *config.Config {
	return &config.Config{
		AppName:           "FarmMitra",
		SmtpFromAddress:   "noreply@farmmitra.test",
		ImageMaxDimension: 10,
		ImageMaxSizeMB:    1,
	}
}

func user(name, addr string) *models.User {
	u := &models.User{Name: name, Email: addr}
	u.GenIDIfEmpty()
	return u
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// --- Email delivery ---

func TestHandleEmailDeliveryTask_Purchase(t *testing.T) {
	sender := new(MockEmailSender)
	users := new(MockUserService)
	farmer := user("Ravi", "ravi@example.com")
	buyer := user("Asha", "asha@example.com")
	users.On("FindByID", mock.Anything, farmer.ID).Return(farmer, nil)
	users.On("FindByID", mock.Anything, buyer.ID).Return(buyer, nil)

	p := tasks.NewTaskProcessor(testConfig(), sender, nil, nil, users)

	payload, _ := json.Marshal(tasks.EmailTaskPayload{
		Kind:          email.KindPurchaseCreated,
		RecipientID:   farmer.ID.Hex(),
		CounterpartID: buyer.ID.Hex(),
		ListingID:     primitive.NewObjectID().Hex(),
		WasteType:     "Rice Straw",
		Quantity:      "50 tons",
		Price:         "₹8,500/ton",
		TotalAmount:   425000,
	})

	sender.On("Send",
		mock.Anything,
		[]string{"ravi@example.com"},
		"New purchase of Rice Straw",
		mock.MatchedBy(func(raw []byte) bool {
			msg := string(raw)
			return assert.Contains(t, msg, "From: noreply@farmmitra.test") &&
				assert.Contains(t, msg, "Asha has purchased")
		}),
	).Return(nil)

	err := p.HandleEmailDeliveryTask(context.Background(), asynq.NewTask(tasks.TypeEmailDelivery, payload))
	assert.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestHandleEmailDeliveryTask_InquiryResolvesListing(t *testing.T) {
	sender := new(MockEmailSender)
	users := new(MockUserService)
	listings := new(MockListingService)
	farmer := user("Ravi", "ravi@example.com")
	listing := &models.Listing{WasteType: "Wheat Husk"}
	listing.GenIDIfEmpty()
	users.On("FindByID", mock.Anything, farmer.ID).Return(farmer, nil)
	users.On("FindByID", mock.Anything, mock.Anything).Return(nil, services.ErrUserNotFound)
	listings.On("FindListingByID", mock.Anything, listing.ID).Return(listing, nil)

	p := tasks.NewTaskProcessor(testConfig(), sender, nil, listings, users)
	payload, _ := json.Marshal(tasks.EmailTaskPayload{
		Kind:          email.KindInquiryCreated,
		RecipientID:   farmer.ID.Hex(),
		CounterpartID: primitive.NewObjectID().Hex(),
		ListingID:     listing.ID.Hex(),
		Message:       "Is it still available?",
	})
	sender.On("Send", mock.Anything, []string{"ravi@example.com"}, "New inquiry about Wheat Husk",
		mock.MatchedBy(func(raw []byte) bool {
			return bytes.Contains(raw, []byte("Is it still available?")) &&
				bytes.Contains(raw, []byte("A FarmMitra user asked"))
		})).Return(nil)

	err := p.HandleEmailDeliveryTask(context.Background(), asynq.NewTask(tasks.TypeEmailDelivery, payload))
	assert.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestHandleEmailDeliveryTask_RecipientGone(t *testing.T) {
	sender := new(MockEmailSender)
	users := new(MockUserService)
	users.On("FindByID", mock.Anything, mock.Anything).Return(nil, services.ErrUserNotFound)
	p := tasks.NewTaskProcessor(testConfig(), sender, nil, nil, users)

	payload, _ := json.Marshal(tasks.EmailTaskPayload{
		Kind:        email.KindInquiryReplied,
		RecipientID: primitive.NewObjectID().Hex(),
	})
	err := p.HandleEmailDeliveryTask(context.Background(), asynq.NewTask(tasks.TypeEmailDelivery, payload))
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleEmailDeliveryTask_BadPayload(t *testing.T) {
	p := tasks.NewTaskProcessor(testConfig(), new(MockEmailSender), nil, nil, new(MockUserService))
	err := p.HandleEmailDeliveryTask(context.Background(), asynq.NewTask(tasks.TypeEmailDelivery, []byte("{")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleEmailDeliveryTask_SendFailureRetries(t *testing.T) {
	sender := new(MockEmailSender)
	users := new(MockUserService)
	farmer := user("Ravi", "ravi@example.com")
	users.On("FindByID", mock.Anything, farmer.ID).Return(farmer, nil)
	sender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(fmt.Errorf("smtp down"))
	p := tasks.NewTaskProcessor(testConfig(), sender, nil, nil, users)

	payload, _ := json.Marshal(tasks.EmailTaskPayload{
		Kind:        email.KindPurchaseCreated,
		RecipientID: farmer.ID.Hex(),
		WasteType:   "Straw",
	})
	err := p.HandleEmailDeliveryTask(context.Background(), asynq.NewTask(tasks.TypeEmailDelivery, payload))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

// --- Image processing ---

func imageTask(t *testing.T, key string, listingID primitive.ObjectID) *asynq.Task {
	payload, err := json.Marshal(tasks.ImageTaskPayload{S3Key: key, ListingID: listingID.Hex()})
	require.NoError(t, err)
	return asynq.NewTask(tasks.TypeImageProcess, payload)
}

func TestHandleImageProcessTask_ResizesLargeImage(t *testing.T) {
	store := new(MockStorage)
	listings := new(MockListingService)
	listingID := primitive.NewObjectID()
	key := "uploads/f/l/x_photo.png"

	store.On("GetObject", mock.Anything, key).Return(encodePNG(t, 40, 20), "image/png", nil)
	store.On("PutObject", mock.Anything, key, mock.MatchedBy(func(data []byte) bool {
		img, format, err := image.Decode(bytes.NewReader(data))
		return err == nil && format == "jpeg" && img.Bounds().Dx() == 10 && img.Bounds().Dy() == 5
	}), "image/jpeg").Return(nil)
	listings.On("SetListingImage", mock.Anything, listingID, key).Return(nil)

	p := tasks.NewTaskProcessor(testConfig(), nil, store, listings, nil)
	err := p.HandleImageProcessTask(context.Background(), imageTask(t, key, listingID))
	assert.NoError(t, err)
	store.AssertExpectations(t)
	listings.AssertExpectations(t)
}

func TestHandleImageProcessTask_SmallImageKept(t *testing.T) {
	store := new(MockStorage)
	listings := new(MockListingService)
	listingID := primitive.NewObjectID()
	key := "uploads/f/l/x_small.png"

	store.On("GetObject", mock.Anything, key).Return(encodePNG(t, 8, 8), "image/png", nil)
	listings.On("SetListingImage", mock.Anything, listingID, key).Return(nil)

	p := tasks.NewTaskProcessor(testConfig(), nil, store, listings, nil)
	err := p.HandleImageProcessTask(context.Background(), imageTask(t, key, listingID))
	assert.NoError(t, err)
	store.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleImageProcessTask_MissingObject(t *testing.T) {
	store := new(MockStorage)
	store.On("GetObject", mock.Anything, "missing").Return(nil, "", storage.ErrObjectNotFound)

	p := tasks.NewTaskProcessor(testConfig(), nil, store, new(MockListingService), nil)
	err := p.HandleImageProcessTask(context.Background(), imageTask(t, "missing", primitive.NewObjectID()))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleImageProcessTask_CorruptImage(t *testing.T) {
	store := new(MockStorage)
	store.On("GetObject", mock.Anything, "bad").Return([]byte("not an image"), "image/png", nil)

	p := tasks.NewTaskProcessor(testConfig(), nil, store, new(MockListingService), nil)
	err := p.HandleImageProcessTask(context.Background(), imageTask(t, "bad", primitive.NewObjectID()))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleImageProcessTask_NoStorage(t *testing.T) {
	p := tasks.NewTaskProcessor(testConfig(), nil, nil, nil, nil)
	err := p.HandleImageProcessTask(context.Background(), imageTask(t, "k", primitive.NewObjectID()))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

// --- Notifier ---

func TestNotifier_PurchaseCreatedTargetsFarmer(t *testing.T) {
	client := new(MockAsynqClient)
	purchase := &models.Purchase{
		BuyerID:     primitive.NewObjectID(),
		FarmerID:    primitive.NewObjectID(),
		ListingID:   primitive.NewObjectID(),
		WasteType:   "Rice Straw",
		TotalAmount: 1000,
	}
	client.On("EnqueueContext", mock.Anything, mock.MatchedBy(func(task *asynq.Task) bool {
		var p tasks.EmailTaskPayload
		if task.Type() != tasks.TypeEmailDelivery || json.Unmarshal(task.Payload(), &p) != nil {
			return false
		}
		return p.Kind == email.KindPurchaseCreated &&
			p.RecipientID == purchase.FarmerID.Hex() &&
			p.CounterpartID == purchase.BuyerID.Hex()
	})).Return(&asynq.TaskInfo{ID: "1"}, nil)

	require.NoError(t, tasks.NewNotifier(client).PurchaseCreated(context.Background(), purchase))
	client.AssertExpectations(t)
}

func TestNotifier_InquiryRepliedUsesLastReply(t *testing.T) {
	client := new(MockAsynqClient)
	inquiry := &models.Inquiry{
		BuyerID:  primitive.NewObjectID(),
		FarmerID: primitive.NewObjectID(),
		Replies: []models.InquiryReply{
			{Message: "first"},
			{Message: "latest"},
		},
	}
	client.On("EnqueueContext", mock.Anything, mock.MatchedBy(func(task *asynq.Task) bool {
		var p tasks.EmailTaskPayload
		_ = json.Unmarshal(task.Payload(), &p)
		return p.Kind == email.KindInquiryReplied && p.RecipientID == inquiry.BuyerID.Hex() && p.Message == "latest"
	})).Return(&asynq.TaskInfo{ID: "2"}, nil)

	require.NoError(t, tasks.NewNotifier(client).InquiryReplied(context.Background(), inquiry))
	client.AssertExpectations(t)
}

func TestNotifier_EnqueueFailure(t *testing.T) {
	client := new(MockAsynqClient)
	client.On("EnqueueContext", mock.Anything, mock.Anything).Return(nil, errors.New("redis down"))

	err := tasks.NewNotifier(client).ListingImageUploaded(context.Background(), primitive.NewObjectID(), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis down")
}
