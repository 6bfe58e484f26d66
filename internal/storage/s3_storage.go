package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/sushil-kumar-saw/mitra-farm/internal/config"
)

// ErrObjectNotFound is returned by GetObject when the key does not exist.
var ErrObjectNotFound = errors.New("s3 object not found")

const presignExpiry = 15 * time.Minute

// IS3Storage defines the interface for S3 operations on listing images.
type IS3Storage interface {
	GeneratePresignedPutURL(ctx context.Context, userID, listingID, filename, contentType string) (string, string, error)
	GetObject(ctx context.Context, key string) ([]byte, string, error)
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
}

// s3Storage implements IS3Storage.
type s3Storage struct {
	bucket        string
	s3Client      *s3.Client
	presignClient *s3.PresignClient
}

// NewS3Storage creates a new S3 storage service from the AWS settings in cfg.
func NewS3Storage(ctx context.Context, cfg *config.Config) (IS3Storage, error) {
	opts := []func(*aws_config.LoadOptions) error{aws_config.WithRegion(cfg.AwsRegion)}
	if cfg.AwsAccessKeyID != "" {
		opts = append(opts, aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"",
		)))
	}
	awsCfg, err := aws_config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg)
	return &s3Storage{
		bucket:        cfg.AwsS3Bucket,
		s3Client:      s3Client,
		presignClient: s3.NewPresignClient(s3Client),
	}, nil
}

// ObjectKey builds the key an upload for the given listing is stored under.
func ObjectKey(userID, listingID, filename string) string {
	return fmt.Sprintf("uploads/%s/%s/%s_%s", userID, listingID, uuid.NewString(), filename)
}

// GeneratePresignedPutURL creates a pre-signed URL for uploading an object.
// It returns the URL and the generated S3 object key.
func (s *s3Storage) GeneratePresignedPutURL(ctx context.Context, userID, listingID, filename, contentType string) (string, string, error) {
	objectKey := ObjectKey(userID, listingID, filename)

	presignedReq, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", "", fmt.Errorf("failed to generate presigned PUT URL for key %s: %w", objectKey, err)
	}

	log.Printf("Generated presigned URL for key: %s", objectKey)
	return presignedReq.URL, objectKey, nil
}

// GetObject downloads an object and returns its bytes and content type.
func (s *s3Storage) GetObject(ctx context.Context, key string) ([]byte, string, error) {
	out, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, "", ErrObjectNotFound
		}
		return nil, "", fmt.Errorf("failed to download %s from S3: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, aws.ToString(out.ContentType), nil
}

// PutObject uploads data under key, overwriting any existing object.
func (s *s3Storage) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}
	return nil
}
