// Package storage keeps the registry of uploaded documents.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lehigh-university-libraries/regionocr/internal/models"
)

// ErrNotFound is returned for unknown or expired documents.
var ErrNotFound = errors.New("document not found")

// Store maps document ids to their metadata. Entries expire after the
// store's TTL.
type Store interface {
	Put(ctx context.Context, doc *models.Document) error
	Get(ctx context.Context, id string) (*models.Document, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

// Options configures a Store backend.
type Options struct {
	Backend    string
	TTL        time.Duration
	MaxEntries int
	RedisURL   string
}

// Open returns the backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", "memory":
		return NewMemory(opts.TTL, opts.MaxEntries), nil
	case "redis":
		return NewRedisFromURL(ctx, opts.RedisURL, opts.TTL)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", opts.Backend)
	}
}
