// Package storage provides object storage for payment receipts.
//
// Implementations:
// - LocalStorage: File system storage for development
// - R2Storage: Cloudflare R2 (S3-compatible) storage for production
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Storage defines the interface for object storage operations.
//
// All methods are context-aware for timeout and cancellation support.
type Storage interface {
	// Put stores data at the specified key. Returns ErrKeyExists if the key
	// is taken and opts.Overwrite is false.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get retrieves the data at the specified key. The caller must close the
	// reader. Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object at the specified key. Deleting a missing key
	// is not an error.
	Delete(ctx context.Context, key string) error
}

// PutOptions configures how an object is stored.
type PutOptions struct {
	ContentType string
	// MaxSize rejects larger objects with ErrTooLarge. Zero means DefaultMaxSize.
	MaxSize   int64
	Overwrite bool
}

// DefaultMaxSize bounds objects when PutOptions.MaxSize is zero.
const DefaultMaxSize = 1 << 20

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
}

// =============================================================================
// Configuration Types
// =============================================================================

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	// BasePath is the root directory where files are stored.
	BasePath string
}

// R2Config holds configuration for Cloudflare R2 storage.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string

	// Endpoint overrides https://{account_id}.r2.cloudflarestorage.com.
	// Any S3-compatible endpoint works.
	Endpoint string

	// Region defaults to "auto".
	Region string
}

const (
	ProviderLocal = "local"
	ProviderR2    = "r2"
)

// New builds the storage backend named by provider.
func New(provider string, local LocalConfig, r2 R2Config, logger *slog.Logger) (Storage, error) {
	switch provider {
	case ProviderLocal, "":
		s, err := NewLocalStorage(local, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case ProviderR2:
		s, err := NewR2Storage(r2, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", provider)
	}
}

// =============================================================================
// Key Generation Helpers
// =============================================================================

// ReceiptKey generates the storage key for a payment receipt.
// Format: receipts/{userID}/{orderID}.txt
func ReceiptKey(userID uuid.UUID, orderID string) string {
	return fmt.Sprintf("receipts/%s/%s.txt", userID, sanitizeSegment(orderID))
}

// sanitizeSegment keeps gateway ids usable as a single path segment.
func sanitizeSegment(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, s)
}

// validateKey rejects empty keys, absolute keys and path traversal.
func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "." || part == "" {
			return ErrInvalidKey
		}
	}
	return nil
}

// readLimited reads all of data, failing with ErrTooLarge past max bytes.
func readLimited(data io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		max = DefaultMaxSize
	}
	buf, err := io.ReadAll(io.LimitReader(data, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(buf)) > max {
		return nil, ErrTooLarge
	}
	return buf, nil
}
