// Package s3 implements objectstore.Store on aws-sdk-go-v2, working against
// AWS or any S3-compatible endpoint (MinIO, RustFS) via BaseEndpoint.
package s3

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	appconfig "github.com/randdane/life-log/internal/config"
	"github.com/randdane/life-log/internal/objectstore"
)

// Client implements objectstore.Store.
type Client struct {
	client  *s3.Client
	presign *s3.PresignClient
	config  appconfig.ObjectStore
	log     *zap.Logger
}

// NewClient creates a new S3 client.
func NewClient(ctx context.Context, storeConfig appconfig.ObjectStore, log *zap.Logger) (*Client, error) {
	configOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(storeConfig.Region),
	}

	var clientOpts []func(*s3.Options)

	// Configure for S3-compatible endpoints (MinIO, RustFS, localstack)
	if storeConfig.Endpoint != "" {
		log.Info("Configuring object store for custom endpoint",
			zap.String("endpoint", storeConfig.Endpoint))
		configOpts = append(configOpts,
			awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(storeConfig.AccessKey, storeConfig.SecretKey, "")))

		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(storeConfig.Endpoint)
			o.UsePathStyle = true
		})
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(cfg, clientOpts...)

	log.Info("S3 client created",
		zap.String("region", storeConfig.Region),
		zap.String("bucket", storeConfig.Bucket))

	return &Client{
		client:  s3Client,
		presign: s3.NewPresignClient(s3Client),
		config:  storeConfig,
		log:     log,
	}, nil
}

// EnsureBucket creates the configured bucket if it doesn't exist.
func (c *Client) EnsureBucket(ctx context.Context) error {
	_, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.config.Bucket),
	})
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return classify("head bucket", "", err)
	}

	_, err = c.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(c.config.Bucket),
	})
	if err != nil {
		return classify("create bucket", "", err)
	}

	c.log.Info("Bucket created", zap.String("bucket", c.config.Bucket))
	return nil
}

// Put streams length bytes to the store under key. The SDK completes the
// object only on success, so an aborted upload leaves nothing behind.
func (c *Client) Put(ctx context.Context, key string, body io.Reader, length int64, contentType, originalFilename string) error {
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.config.Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(length),
		ContentType:   aws.String(contentType),
		Metadata: map[string]string{
			"original-filename": originalFilename,
		},
	})
	if err != nil {
		return classify("put", key, err)
	}

	c.log.Info("Object stored",
		zap.String("key", key),
		zap.Int64("size_bytes", length),
		zap.String("content_type", contentType))

	return nil
}

// PresignGet returns a time-limited retrieval URL for key.
func (c *Client) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.config.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", classify("presign get", key, err)
	}
	return req.URL, nil
}

// Delete removes the object. Deleting a missing key is not an error.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.config.Bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFound(err) {
		return classify("delete", key, err)
	}
	return nil
}

// ListKeys returns every object under prefix.
func (c *Client) ListKeys(ctx context.Context, prefix string) ([]objectstore.ObjectInfo, error) {
	var objects []objectstore.ObjectInfo

	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.config.Bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify("list", prefix, err)
		}
		for _, obj := range page.Contents {
			objects = append(objects, objectstore.ObjectInfo{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}

	return objects, nil
}
