package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"log"

	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"

	"github.com/sushil-kumar-saw/mitra-farm/internal/email"
	"github.com/sushil-kumar-saw/mitra-farm/internal/services"
	"github.com/sushil-kumar-saw/mitra-farm/internal/storage"
)

var _ services.INotifier = (*Notifier)(nil)

// --- Task Handlers ---

// HandleEmailDeliveryTask renders a notification and sends it to its recipient.
func (p *TaskProcessor) HandleEmailDeliveryTask(ctx context.Context, t *asynq.Task) error {
	var payload EmailTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal email task payload: %v: %w", err, asynq.SkipRetry)
	}

	recipientID, err := services.ParseObjectID("recipient", payload.RecipientID)
	if err != nil {
		return fmt.Errorf("invalid recipient in payload: %w", asynq.SkipRetry)
	}
	recipient, err := p.userService.FindByID(ctx, recipientID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			log.Printf("Recipient %s of %s email no longer exists, dropping.", payload.RecipientID, payload.Kind)
			return fmt.Errorf("recipient not found: %w", asynq.SkipRetry)
		}
		return err
	}

	data := email.NotificationData{
		AppName:         p.cfg.AppName,
		RecipientName:   recipient.Name,
		CounterpartName: "A FarmMitra user",
		WasteType:       payload.WasteType,
		Quantity:        payload.Quantity,
		Price:           payload.Price,
		TotalAmount:     payload.TotalAmount,
		Message:         payload.Message,
	}
	if counterpartID, err := services.ParseObjectID("counterpart", payload.CounterpartID); err == nil {
		if u, err := p.userService.FindByID(ctx, counterpartID); err == nil {
			data.CounterpartName = u.Name
		}
	}
	if data.WasteType == "" {
		data.WasteType = "your listing"
		if listingID, err := services.ParseObjectID("listing", payload.ListingID); err == nil {
			if l, err := p.listingService.FindListingByID(ctx, listingID); err == nil {
				data.WasteType = l.WasteType
			}
		}
	}

	subject, body, err := email.Render(payload.Kind, data)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	fromAddress := p.cfg.SmtpFromAddress
	if fromAddress == "" {
		fromAddress = "noreply@example.com"
	}
	rawMessage := email.BuildMessage(fromAddress, []string{recipient.Email}, subject, body)

	if err := p.emailSender.Send(ctx, []string{recipient.Email}, subject, rawMessage); err != nil {
		log.Printf("Email sending failed for %s to %s: %v", payload.Kind, recipient.Email, err)
		return err
	}

	log.Printf("Email task processed successfully: To=%s, Kind=%s", recipient.Email, payload.Kind)
	return nil
}

// HandleImageProcessTask downsizes an uploaded listing image in place and
// records it on the listing.
func (p *TaskProcessor) HandleImageProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal image task payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.storageService == nil {
		return fmt.Errorf("image storage not configured: %w", asynq.SkipRetry)
	}

	listingID, err := services.ParseObjectID("listing", payload.ListingID)
	if err != nil {
		log.Printf("Invalid ListingID in image task payload: %s", payload.ListingID)
		return fmt.Errorf("invalid listing ID in payload: %w", asynq.SkipRetry)
	}

	log.Printf("Processing image task: S3Key=%s, ListingID=%s", payload.S3Key, payload.ListingID)

	imgData, contentType, err := p.storageService.GetObject(ctx, payload.S3Key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			log.Printf("S3 object %s not found, likely upload failed or key incorrect.", payload.S3Key)
			return fmt.Errorf("s3 object not found: %w", asynq.SkipRetry)
		}
		return fmt.Errorf("failed to download image from S3: %w", err)
	}

	maxSizeBytes := int64(p.cfg.ImageMaxSizeMB) * 1024 * 1024
	if int64(len(imgData)) > maxSizeBytes {
		log.Printf("Image %s exceeds max size (%d > %d bytes). Skipping.", payload.S3Key, len(imgData), maxSizeBytes)
		return fmt.Errorf("image exceeds max size: %w", asynq.SkipRetry)
	}

	img, format, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		log.Printf("Error decoding image for key %s: %v", payload.S3Key, err)
		return fmt.Errorf("unsupported image format or corrupt image: %w", asynq.SkipRetry)
	}
	log.Printf("Decoded image %s, format: %s, size: %dx%d", payload.S3Key, format, img.Bounds().Dx(), img.Bounds().Dy())

	maxDim := uint(p.cfg.ImageMaxDimension)
	if uint(img.Bounds().Dx()) > maxDim || uint(img.Bounds().Dy()) > maxDim {
		resized := resize.Thumbnail(maxDim, maxDim, img, resize.Lanczos3)
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
			return fmt.Errorf("failed to re-encode resized image: %w", err)
		}
		log.Printf("Resized image %s to %dx%d", payload.S3Key, resized.Bounds().Dx(), resized.Bounds().Dy())

		if err := p.storageService.PutObject(ctx, payload.S3Key, buf.Bytes(), "image/jpeg"); err != nil {
			return fmt.Errorf("failed to upload processed image: %w", err)
		}
	} else {
		log.Printf("Image %s (%s) within limits, keeping original.", payload.S3Key, contentType)
	}

	if err := p.listingService.SetListingImage(ctx, listingID, payload.S3Key); err != nil {
		if errors.Is(err, services.ErrListingNotFound) {
			return fmt.Errorf("listing %s gone: %w", payload.ListingID, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to update listing with processed image: %w", err)
	}

	log.Printf("Image task processed successfully: Key=%s, ListingID=%s", payload.S3Key, payload.ListingID)
	return nil
}
