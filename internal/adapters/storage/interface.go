package storage

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// FileMetadata represents metadata about a stored object
type FileMetadata struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	LastModified time.Time `json:"last_modified"`
}

// ListOptions provides options for listing objects
type ListOptions struct {
	Prefix     string `json:"prefix,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

// ListResult represents the result of a list operation
type ListResult struct {
	Files       []FileMetadata `json:"files"`
	IsTruncated bool           `json:"is_truncated"`
}

// StoreOptions provides options for storing objects
type StoreOptions struct {
	ContentType string `json:"content_type,omitempty"`
	Overwrite   bool   `json:"overwrite,omitempty"`
}

// FileStorage is where finalized document snapshots are handed off for other
// consumers (print, export, downstream pages). Keys are slash separated.
type FileStorage interface {
	// Store saves data under key
	Store(ctx context.Context, key string, data []byte, opts *StoreOptions) error

	// Retrieve gets the data stored under key
	Retrieve(ctx context.Context, key string) ([]byte, error)

	// Delete removes the object stored under key
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists at the given key
	Exists(ctx context.Context, key string) (bool, error)

	// List returns objects matching the given options
	List(ctx context.Context, opts *ListOptions) (*ListResult, error)

	// Close releases any resources held by the implementation
	Close() error
}

// StorageConfig represents configuration for storage providers
type StorageConfig struct {
	Type     string            `json:"type" yaml:"type"`           // "local", "s3", "mock"
	BasePath string            `json:"base_path" yaml:"base_path"` // For local storage
	Bucket   string            `json:"bucket" yaml:"bucket"`       // For S3
	Region   string            `json:"region" yaml:"region"`       // For S3
	Options  map[string]string `json:"options" yaml:"options"`     // endpoint, access_key, secret_key
}

// HandoffKey returns the object key for a finalized document snapshot
func HandoffKey(documentID string) string {
	return fmt.Sprintf("handoff/%s.json", documentID)
}

const defaultMaxResults = 1000

func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	return nil
}
