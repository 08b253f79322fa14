package drafts

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"billbook-api/internal/models"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore keeps drafts in process. Values are stored serialized so callers
// never share a *Document with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an in-memory draft store with the given expiry
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*models.Document, error) {
	m.mu.RLock()
	entry, ok := m.entries[id]
	m.mu.RUnlock()

	if !ok || (m.ttl > 0 && m.now().After(entry.expiresAt)) {
		if ok {
			m.mu.Lock()
			delete(m.entries, id)
			m.mu.Unlock()
		}
		return nil, ErrDraftNotFound
	}

	var doc models.Document
	if err := json.Unmarshal(entry.data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode draft %s: %w", id, err)
	}
	return &doc, nil
}

func (m *MemoryStore) Save(ctx context.Context, doc *models.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode draft %s: %w", doc.ID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[doc.ID] = memoryEntry{data: data, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[id]; !ok {
		return ErrDraftNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

// Len returns the number of drafts held, including expired ones not yet evicted
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
