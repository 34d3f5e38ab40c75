package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// MinioStore writes buckets as objects in an S3-compatible bucket through minio-go.
type MinioStore struct {
	client *minio.Client
	bucket string
	prefix string
}

func NewMinioStore(ctx context.Context, opts MinioOptions) (*MinioStore, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return nil, errors.New("snapshot: minio endpoint is required")
	}
	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		return nil, errors.New("snapshot: minio bucket is required")
	}
	client, err := minio.New(parseEndpoint(endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(opts.AccessKey), strings.TrimSpace(opts.SecretKey), ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot: create minio client: %w", err)
	}
	s := &MinioStore{client: client, bucket: bucket, prefix: opts.Prefix}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MinioStore) Load(ctx context.Context, bucket string) ([]byte, bool, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectKey(s.prefix, bucket), minio.GetObjectOptions{})
	if err != nil {
		return nil, false, fmt.Errorf("snapshot: get object: %w", err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("snapshot: read object: %w", err)
	}
	return data, true, nil
}

func (s *MinioStore) Save(ctx context.Context, bucket string, payload []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectKey(s.prefix, bucket), bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("snapshot: put object: %w", err)
	}
	return nil
}

func (s *MinioStore) Close() error { return nil }

func (s *MinioStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("snapshot: check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("snapshot: create bucket: %w", err)
	}
	return nil
}

func parseEndpoint(endpoint string) string {
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return endpoint
}
