// internal/storage/blob.go
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// BlobStore is the document store behind contract uploads. Implemented
// by Client; tests substitute fakes.
type BlobStore interface {
	Upload(ctx context.Context, path, contentType string, r io.Reader) (url string, err error)
	Delete(ctx context.Context, path string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Client stores uploaded documents in a GCS bucket. Paths are namespaced
// by user and contract id so per-user cleanup is a prefix delete.
type Client struct {
	storageClient *storage.Client
	bucket        string
}

func NewClient(ctx context.Context, bucket, credentialsFile string) (*Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	storageClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &Client{storageClient: storageClient, bucket: bucket}, nil
}

// ContractPath builds the canonical blob path for an uploaded contract.
func ContractPath(userID, contractID, filename string) string {
	return fmt.Sprintf("%s%d-%s", ContractPrefix(userID, contractID), time.Now().UnixMilli(), filename)
}

// ContractPrefix is the folder holding every object for one contract.
func ContractPrefix(userID, contractID string) string {
	return fmt.Sprintf("contracts/%s/%s/", userID, contractID)
}

// Upload streams a document into the bucket and returns its public URL.
func (c *Client) Upload(ctx context.Context, path, contentType string, r io.Reader) (string, error) {
	obj := c.storageClient.Bucket(c.bucket).Object(path)
	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "no-cache, no-store, must-revalidate"

	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to write object %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize object %s: %w", path, err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", c.bucket, path), nil
}

// Delete removes a single object. Missing objects are not an error.
func (c *Client) Delete(ctx context.Context, path string) error {
	err := c.storageClient.Bucket(c.bucket).Object(path).Delete(ctx)
	if err != nil && err != storage.ErrObjectNotExist {
		return fmt.Errorf("failed to delete object %s: %w", path, err)
	}
	return nil
}

// DeletePrefix removes every object under a prefix, best-effort.
func (c *Client) DeletePrefix(ctx context.Context, prefix string) error {
	bucket := c.storageClient.Bucket(c.bucket)
	it := bucket.Objects(ctx, &storage.Query{Prefix: prefix})

	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to list objects under %s: %w", prefix, err)
		}
		if err := bucket.Object(attrs.Name).Delete(ctx); err != nil && err != storage.ErrObjectNotExist {
			return fmt.Errorf("failed to delete object %s: %w", attrs.Name, err)
		}
	}
}
