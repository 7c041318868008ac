// Package storage keeps uploaded attachment content outside the database.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spec-kit/helpdesk/internal/config"
)

// ErrObjectNotFound is returned when no object exists under a key.
var ErrObjectNotFound = errors.New("object not found")

// Object is stored content opened for reading. Size is the current stored length.
type Object struct {
	io.ReadCloser
	Size int64
}

// ObjectStore writes and reads attachment content by key. Put overwrites existing objects.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (*Object, error)
	Remove(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// New builds the object store selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (ObjectStore, error) {
	switch cfg.Driver {
	case config.StorageDriverLocal, "":
		return NewLocalStore(cfg.MediaRoot)
	case config.StorageDriverMinio:
		return NewMinioStore(ctx, MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
