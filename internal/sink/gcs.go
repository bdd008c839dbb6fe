package sink

import (
	"context"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// objectWriter opens a writer for bucket/key with the given content type.
type objectWriter func(ctx context.Context, bucket, key, contentType string) (io.WriteCloser, error)

// GCSSink uploads the report to a Google Cloud Storage bucket.
type GCSSink struct {
	bucket      string
	newWriter   objectWriter
	closeClient func() error
}

// NewGCSSink creates a sink. The storage client is created on first use so
// that a misconfigured credential surfaces as a delivery failure.
func NewGCSSink(bucket, credentialsFile string) *GCSSink {
	var client *storage.Client
	newWriter := func(ctx context.Context, bucket, key, contentType string) (io.WriteCloser, error) {
		if client == nil {
			var opts []option.ClientOption
			if credentialsFile != "" {
				opts = append(opts, option.WithCredentialsFile(credentialsFile))
			}
			c, err := storage.NewClient(ctx, opts...)
			if err != nil {
				return nil, fmt.Errorf("create storage client: %w", err)
			}
			client = c
		}
		w := client.Bucket(bucket).Object(key).NewWriter(ctx)
		w.ContentType = contentType
		return w, nil
	}
	closeClient := func() error {
		if client == nil {
			return nil
		}
		c := client
		client = nil
		return c.Close()
	}
	return &GCSSink{bucket: bucket, newWriter: newWriter, closeClient: closeClient}
}

func (s *GCSSink) Name() string { return "gcs" }

// Close releases the storage client, if one was created.
func (s *GCSSink) Close() error {
	if s.closeClient == nil {
		return nil
	}
	return s.closeClient()
}

func (s *GCSSink) Send(ctx context.Context, localPath, remotePath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open report: %w", err)
	}
	defer f.Close()

	key := objectKey(localPath, remotePath)
	w, err := s.newWriter(ctx, s.bucket, key, contentType(localPath))
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return fmt.Errorf("upload to gs://%s/%s: %w", s.bucket, key, err)
	}
	// The object is committed on Close.
	if err := w.Close(); err != nil {
		return fmt.Errorf("upload to gs://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}
