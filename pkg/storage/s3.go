package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// ObjectStore is the S3-compatible backend (AWS S3 or R2 via custom endpoint).
type ObjectStore struct {
	client   *s3.Client
	uploader *manager.Uploader
	cfg      Config
	logger   *zap.Logger
}

// NewObjectStore creates an S3-compatible store from config credentials.
func NewObjectStore(ctx context.Context, cfg Config, logger *zap.Logger) (*ObjectStore, error) {
	region := cfg.Region
	if region == "" {
		region = "auto" // R2 convention
	}
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)),
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
	})
	logger.Info("object storage client ready", zap.String("bucket", cfg.Bucket), zap.String("region", region))
	return &ObjectStore{client: client, uploader: uploader, cfg: cfg, logger: logger}, nil
}

// Upload streams body to the bucket under key.
func (s *ObjectStore) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64, metadata map[string]string) error {
	var contentLength *int64
	if size > 0 {
		contentLength = &size
	}
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: contentLength,
	}
	if len(metadata) > 0 {
		input.Metadata = metadata
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	return nil
}

// DownloadURL returns a pre-signed GET URL for key.
func (s *ObjectStore) DownloadURL(ctx context.Context, key string) (string, error) {
	presignClient := s3.NewPresignClient(s.client)
	req, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.presignExpire()
	})
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}

// Delete removes an object from the bucket.
func (s *ObjectStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// IsConfigured reports whether the backend is usable.
func (s *ObjectStore) IsConfigured() bool { return true }

func (s *ObjectStore) presignExpire() time.Duration {
	if s.cfg.PresignExpireMinutes <= 0 {
		return 60 * time.Minute
	}
	return time.Duration(s.cfg.PresignExpireMinutes) * time.Minute
}
