package drafts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"billbook-api/internal/models"
)

// ErrDraftNotFound is returned when no draft exists for an id
var ErrDraftNotFound = errors.New("draft not found")

// DraftStore holds documents that are still being edited. Drafts are whole
// documents; callers load, mutate and save them back.
type DraftStore interface {
	Get(ctx context.Context, id string) (*models.Document, error)
	Save(ctx context.Context, doc *models.Document) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// StoreType names a DraftStore implementation
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeRedis  StoreType = "redis"
)

// Config selects and configures a draft store
type Config struct {
	Type          string
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
}

// New creates the configured store. Redis connectivity is checked up front.
func New(ctx context.Context, config Config) (DraftStore, error) {
	ttl := config.TTL
	if ttl <= 0 {
		ttl = models.DefaultDraftTTL
	}

	switch StoreType(strings.ToLower(config.Type)) {
	case StoreTypeMemory, "":
		return NewMemoryStore(ttl), nil
	case StoreTypeRedis:
		return NewRedisStoreFromConfig(ctx, config.RedisAddr, config.RedisPassword, config.RedisDB, config.KeyPrefix, ttl)
	default:
		return nil, fmt.Errorf("unsupported draft store type: %s", config.Type)
	}
}
