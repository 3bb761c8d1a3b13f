// Package storage puts validated uploads into object storage buckets.
package storage

import (
	"context"
	"errors"
)

const (
	BackendS3    = "s3"
	BackendLocal = "local"
)

// Object describes a stored file.
type Object struct {
	Bucket    string
	Key       string
	PublicURL string
	Backend   string
}

type Store interface {
	Put(ctx context.Context, bucket, key, contentType string, data []byte) (Object, error)
	Delete(ctx context.Context, bucket, key string) error
	Name() string
}

var ErrInvalidKey = errors.New("storage: invalid object key")
