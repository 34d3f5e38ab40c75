// Package snapshot persists whole collections as JSON documents keyed by bucket name.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownDriver = errors.New("snapshot: unknown driver")

// Store saves and loads one JSON payload per bucket.
type Store interface {
	// Load returns found=false when the bucket was never saved.
	Load(ctx context.Context, bucket string) (payload []byte, found bool, err error)
	Save(ctx context.Context, bucket string, payload []byte) error
	Close() error
}

// Options selects and configures a driver.
type Options struct {
	Driver string

	Dir         string
	SQLitePath  string
	PostgresDSN string

	Bucket          string
	Prefix          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// Open returns the configured store, or nil when Driver is empty or "none".
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", "none", "memory":
		return nil, nil
	case "file":
		return NewFileStore(opts.Dir)
	case "sqlite":
		return NewSQLiteStore(opts.SQLitePath)
	case "postgres":
		return NewPostgresStore(ctx, opts.PostgresDSN)
	case "minio":
		return NewMinioStore(ctx, MinioOptions{
			Endpoint:  opts.Endpoint,
			AccessKey: opts.AccessKeyID,
			SecretKey: opts.SecretAccessKey,
			Bucket:    opts.Bucket,
			Prefix:    opts.Prefix,
			UseSSL:    opts.UseSSL,
		})
	case "s3":
		return NewS3Store(ctx, S3Options{
			Bucket:          opts.Bucket,
			Prefix:          opts.Prefix,
			Region:          opts.Region,
			Endpoint:        opts.Endpoint,
			AccessKeyID:     opts.AccessKeyID,
			SecretAccessKey: opts.SecretAccessKey,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}

func objectKey(prefix, bucket string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return bucket + ".json"
	}
	return prefix + "/" + bucket + ".json"
}
