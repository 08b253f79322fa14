package storage

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryConfig configures retry behavior for storage operations
type RetryConfig struct {
	MaxAttempts   int           `json:"max_attempts" yaml:"max_attempts"`
	InitialDelay  time.Duration `json:"initial_delay" yaml:"initial_delay"`
	MaxDelay      time.Duration `json:"max_delay" yaml:"max_delay"`
	BackoffFactor float64       `json:"backoff_factor" yaml:"backoff_factor"`
	JitterEnabled bool          `json:"jitter_enabled" yaml:"jitter_enabled"`
}

// DefaultRetryConfig returns the retry configuration used by the factory
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}
}

// WithRetry runs op until it succeeds, returns a non-retryable error, or the
// attempts are exhausted. Context cancellation stops the loop early.
func WithRetry(ctx context.Context, config *RetryConfig, op func(ctx context.Context) error) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error
	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt >= config.MaxAttempts || !IsRetryable(lastErr) {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(config.delay(attempt)):
		}
	}

	return lastErr
}

// delay is initial_delay * backoff_factor^(attempt-1), capped, plus up to 10% jitter
func (c *RetryConfig) delay(attempt int) time.Duration {
	d := float64(c.InitialDelay) * math.Pow(c.BackoffFactor, float64(attempt-1))
	if d > float64(c.MaxDelay) {
		d = float64(c.MaxDelay)
	}
	if c.JitterEnabled {
		d += rand.Float64() * 0.1 * d
	}
	return time.Duration(d)
}

// RetryableFileStorage wraps a FileStorage with WithRetry
type RetryableFileStorage struct {
	storage FileStorage
	config  *RetryConfig
}

// NewRetryableFileStorage creates a new RetryableFileStorage
func NewRetryableFileStorage(storage FileStorage, config *RetryConfig) *RetryableFileStorage {
	if config == nil {
		config = DefaultRetryConfig()
	}
	return &RetryableFileStorage{storage: storage, config: config}
}

func (r *RetryableFileStorage) Store(ctx context.Context, key string, data []byte, opts *StoreOptions) error {
	return WithRetry(ctx, r.config, func(ctx context.Context) error {
		return r.storage.Store(ctx, key, data, opts)
	})
}

func (r *RetryableFileStorage) Retrieve(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := WithRetry(ctx, r.config, func(ctx context.Context) error {
		var err error
		data, err = r.storage.Retrieve(ctx, key)
		return err
	})
	return data, err
}

func (r *RetryableFileStorage) Delete(ctx context.Context, key string) error {
	return WithRetry(ctx, r.config, func(ctx context.Context) error {
		return r.storage.Delete(ctx, key)
	})
}

func (r *RetryableFileStorage) Exists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := WithRetry(ctx, r.config, func(ctx context.Context) error {
		var err error
		exists, err = r.storage.Exists(ctx, key)
		return err
	})
	return exists, err
}

func (r *RetryableFileStorage) List(ctx context.Context, opts *ListOptions) (*ListResult, error) {
	var result *ListResult
	err := WithRetry(ctx, r.config, func(ctx context.Context) error {
		var err error
		result, err = r.storage.List(ctx, opts)
		return err
	})
	return result, err
}

func (r *RetryableFileStorage) Close() error {
	return r.storage.Close()
}
