package lambda

import (
	"context"
	"sync"
	"time"

	"billbook-api/internal/config"
	"billbook-api/pkg/server"
)

// idleTimeout is how long a warm container is trusted without use
const idleTimeout = 5 * time.Minute

// ConnectionManager keeps the service container alive across warm invocations
type ConnectionManager struct {
	mu        sync.Mutex
	container *server.Container
	config    *config.Config
	lastUsed  time.Time

	// newContainer is replaced in tests
	newContainer func(cfg *config.Config) (*server.Container, error)
}

var (
	globalConnectionManager *ConnectionManager
	connectionManagerOnce   sync.Once
)

// GetConnectionManager returns the global connection manager instance
func GetConnectionManager() *ConnectionManager {
	connectionManagerOnce.Do(func() {
		globalConnectionManager = NewConnectionManager(nil)
	})
	return globalConnectionManager
}

// NewConnectionManager creates a manager. A nil config is loaded lazily with
// config.GetOptimizedConfig.
func NewConnectionManager(cfg *config.Config) *ConnectionManager {
	return &ConnectionManager{
		config:       cfg,
		newContainer: server.NewContainer,
	}
}

// GetContainer returns the service container, creating it on first use
func (cm *ConnectionManager) GetContainer(ctx context.Context) (*server.Container, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cm.container != nil {
		cm.lastUsed = time.Now()
		return cm.container, nil
	}

	if cm.config == nil {
		cfg, err := config.GetOptimizedConfig()
		if err != nil {
			return nil, err
		}
		cm.config = cfg
	}

	container, err := cm.newContainer(cm.config)
	if err != nil {
		return nil, err
	}

	cm.container = container
	cm.lastUsed = time.Now()
	return container, nil
}

// IsHealthy reports whether a container exists and was used recently
func (cm *ConnectionManager) IsHealthy() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	return cm.container != nil && time.Since(cm.lastUsed) < idleTimeout
}

// Cleanup closes the container. The next GetContainer creates a new one.
func (cm *ConnectionManager) Cleanup() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.container == nil {
		return nil
	}

	err := cm.container.Close()
	cm.container = nil
	return err
}
