package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"civicresolve-be/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore keeps report and resolution photos in a public-read bucket.
type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinioStore connects and makes sure the bucket exists with a public
// read policy.
func NewMinioStore(ctx context.Context, cfg config.MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		if err := client.SetBucketPolicy(ctx, cfg.Bucket, publicReadPolicy(cfg.Bucket)); err != nil {
			return nil, fmt.Errorf("set bucket policy: %w", err)
		}
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + cfg.Endpoint
	}

	return &MinioStore{client: client, bucket: cfg.Bucket, publicURL: publicURL}, nil
}

// Store uploads r under folder and returns its public URL. It returns only
// after the object is fully written.
func (s *MinioStore) Store(ctx context.Context, folder, filename, contentType string, r io.Reader, size int64) (string, error) {
	key := ObjectKey(folder, filename, time.Now())
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return PublicURL(s.publicURL, s.bucket, key), nil
}

// ObjectKey builds a collision-resistant key, keeping only the base name of
// the client-supplied filename.
func ObjectKey(folder, filename string, at time.Time) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload"
	}
	base = strings.ReplaceAll(base, " ", "_")
	return fmt.Sprintf("%s/%d_%s", folder, at.UnixNano(), base)
}

func PublicURL(base, bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), bucket, key)
}

func publicReadPolicy(bucket string) string {
	return `{
		"Version": "2012-10-17",
		"Statement": [
			{
				"Action": ["s3:GetObject"],
				"Effect": "Allow",
				"Principal": "*",
				"Resource": "arn:aws:s3:::` + bucket + `/*"
			}
		]
	}`
}
