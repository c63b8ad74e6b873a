package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	appconfig "shift-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Client wraps the S3-compatible bucket holding cleaning photo attachments.
type Client struct {
	s3     *s3.Client
	bucket string
}

// New builds the attachment storage client. Returns (nil, nil) when storage
// is not configured; uploads are then rejected at the handler but session
// commands are unaffected.
func New(ctx context.Context, cfg *appconfig.Config) (*Client, error) {
	if cfg.Storage.Endpoint == "" || cfg.Storage.Bucket == "" {
		log.Println("[Storage] attachment storage not configured, uploads disabled")
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.Storage.AccessKey,
			cfg.Storage.SecretKey,
			"",
		)),
		awsconfig.WithRegion(cfg.Storage.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("loading storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
	})

	return &Client{s3: client, bucket: cfg.Storage.Bucket}, nil
}

// Upload stores an attachment body under the given object key.
func (c *Client) Upload(ctx context.Context, key, contentType string, body io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	return nil
}

// Download streams an attachment body. The caller closes the reader.
func (c *Client) Download(ctx context.Context, key string) (io.ReadCloser, string, error) {
	result, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("downloading %s: %w", key, err)
	}
	contentType := "application/octet-stream"
	if result.ContentType != nil {
		contentType = *result.ContentType
	}
	return result.Body, contentType, nil
}
