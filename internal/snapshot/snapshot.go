// Package snapshot archives fetched page HTML to S3-compatible object
// storage, one object per bookmark. Snapshots are written best effort
// from a detached task; the bookmark record never depends on them.
package snapshot

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds S3/MinIO client configuration.
type Config struct {
	Endpoint        string // "localhost:9000" for MinIO
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// Client stores and retrieves page snapshots.
type Client struct {
	minioClient *minio.Client
	bucket      string
}

// New creates a snapshot client.
func New(config Config) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if config.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	minioClient, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &Client{minioClient: minioClient, bucket: config.Bucket}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.minioClient.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}

	if err := c.minioClient.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

func objectName(userID, bookmarkID string) string {
	return path.Join("snapshots", userID, bookmarkID+".html")
}

// Put writes the page HTML for a bookmark, replacing any previous
// snapshot.
func (c *Client) Put(ctx context.Context, userID, bookmarkID, html string) error {
	reader := strings.NewReader(html)
	_, err := c.minioClient.PutObject(ctx, c.bucket, objectName(userID, bookmarkID),
		reader, int64(len(html)), minio.PutObjectOptions{ContentType: "text/html"})
	if err != nil {
		return fmt.Errorf("failed to put snapshot: %w", err)
	}
	return nil
}

// Get reads the stored snapshot for a bookmark.
func (c *Client) Get(ctx context.Context, userID, bookmarkID string) (string, error) {
	object, err := c.minioClient.GetObject(ctx, c.bucket, objectName(userID, bookmarkID), minio.GetObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to get snapshot: %w", err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return "", fmt.Errorf("failed to read snapshot: %w", err)
	}
	return string(data), nil
}

// Delete removes the snapshot for a bookmark.
func (c *Client) Delete(ctx context.Context, userID, bookmarkID string) error {
	err := c.minioClient.RemoveObject(ctx, c.bucket, objectName(userID, bookmarkID), minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
