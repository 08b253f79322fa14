package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MockFileStorage is an in-memory FileStorage used by tests and local runs
type MockFileStorage struct {
	mu    sync.RWMutex
	files map[string]mockFile

	// Fail, when set, is returned by every operation before it runs
	Fail error
}

type mockFile struct {
	data         []byte
	contentType  string
	lastModified time.Time
}

// NewMockFileStorage creates a new MockFileStorage instance
func NewMockFileStorage() *MockFileStorage {
	return &MockFileStorage{files: make(map[string]mockFile)}
}

func (m *MockFileStorage) Store(ctx context.Context, key string, data []byte, opts *StoreOptions) error {
	if m.Fail != nil {
		return m.Fail
	}
	if err := validateKey(key); err != nil {
		return NewStorageError("Store", key, err, false)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if opts != nil && !opts.Overwrite {
		if _, exists := m.files[key]; exists {
			return NewStorageError("Store", key, ErrFileAlreadyExists, false)
		}
	}

	var explicit string
	if opts != nil {
		explicit = opts.ContentType
	}
	m.files[key] = mockFile{
		data:         append([]byte(nil), data...),
		contentType:  contentTypeFor(key, explicit),
		lastModified: time.Now(),
	}
	return nil
}

func (m *MockFileStorage) Retrieve(ctx context.Context, key string) ([]byte, error) {
	if m.Fail != nil {
		return nil, m.Fail
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	file, ok := m.files[key]
	if !ok {
		return nil, NewStorageError("Retrieve", key, ErrFileNotFound, false)
	}
	return append([]byte(nil), file.data...), nil
}

func (m *MockFileStorage) Delete(ctx context.Context, key string) error {
	if m.Fail != nil {
		return m.Fail
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[key]; !ok {
		return NewStorageError("Delete", key, ErrFileNotFound, false)
	}
	delete(m.files, key)
	return nil
}

func (m *MockFileStorage) Exists(ctx context.Context, key string) (bool, error) {
	if m.Fail != nil {
		return false, m.Fail
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.files[key]
	return ok, nil
}

func (m *MockFileStorage) List(ctx context.Context, opts *ListOptions) (*ListResult, error) {
	if m.Fail != nil {
		return nil, m.Fail
	}
	if opts == nil {
		opts = &ListOptions{}
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var files []FileMetadata
	for key, file := range m.files {
		if opts.Prefix != "" && !strings.HasPrefix(key, opts.Prefix) {
			continue
		}
		files = append(files, FileMetadata{
			Key:          key,
			Size:         int64(len(file.data)),
			ContentType:  file.contentType,
			LastModified: file.lastModified,
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Key < files[j].Key })

	result := &ListResult{Files: files}
	if len(files) > maxResults {
		result.Files = files[:maxResults]
		result.IsTruncated = true
	}
	return result, nil
}

func (m *MockFileStorage) Close() error {
	return nil
}

// Count returns the number of stored objects
func (m *MockFileStorage) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}
