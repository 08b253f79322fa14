package storage

import (
	"context"
	"testing"
)

func newTestLocalStorage(t *testing.T) *LocalFileStorage {
	t.Helper()
	storage, err := NewLocalFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	return storage
}

func TestLocalFileStorage_StoreAndRetrieve(t *testing.T) {
	storage := newTestLocalStorage(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		key     string
		opts    *StoreOptions
		wantErr bool
	}{
		{name: "nested key", key: HandoffKey("doc-1"), wantErr: false},
		{name: "with content type", key: "exports/doc-2.json", opts: &StoreOptions{ContentType: "application/json", Overwrite: true}, wantErr: false},
		{name: "path traversal", key: "../../../etc/passwd", wantErr: true},
		{name: "absolute path", key: "/etc/passwd", wantErr: true},
		{name: "empty key", key: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := storage.Store(ctx, tt.key, []byte(`{"ok":true}`), tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Store() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			data, err := storage.Retrieve(ctx, tt.key)
			if err != nil {
				t.Fatalf("Retrieve failed: %v", err)
			}
			if string(data) != `{"ok":true}` {
				t.Errorf("Data mismatch: got %q", string(data))
			}
		})
	}
}

func TestLocalFileStorage_NoOverwrite(t *testing.T) {
	storage := newTestLocalStorage(t)
	ctx := context.Background()

	if err := storage.Store(ctx, "a.json", []byte("1"), nil); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	err := storage.Store(ctx, "a.json", []byte("2"), &StoreOptions{Overwrite: false})
	if !IsAlreadyExists(err) {
		t.Errorf("Expected already exists error, got %v", err)
	}
	if err := storage.Store(ctx, "a.json", []byte("3"), &StoreOptions{Overwrite: true}); err != nil {
		t.Errorf("Overwrite failed: %v", err)
	}
}

func TestLocalFileStorage_DeleteAndExists(t *testing.T) {
	storage := newTestLocalStorage(t)
	ctx := context.Background()

	_ = storage.Store(ctx, "handoff/x.json", []byte("{}"), nil)

	exists, err := storage.Exists(ctx, "handoff/x.json")
	if err != nil || !exists {
		t.Fatalf("Exists = %v, %v; want true", exists, err)
	}

	if err := storage.Delete(ctx, "handoff/x.json"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	exists, _ = storage.Exists(ctx, "handoff/x.json")
	if exists {
		t.Error("Expected file to be gone after delete")
	}

	if err := storage.Delete(ctx, "handoff/x.json"); !IsNotFound(err) {
		t.Errorf("Expected not found on second delete, got %v", err)
	}
	if _, err := storage.Retrieve(ctx, "handoff/x.json"); !IsNotFound(err) {
		t.Errorf("Expected not found on retrieve, got %v", err)
	}
}

func TestLocalFileStorage_List(t *testing.T) {
	storage := newTestLocalStorage(t)
	ctx := context.Background()

	for _, key := range []string{"handoff/b.json", "handoff/a.json", "other/c.json"} {
		if err := storage.Store(ctx, key, []byte("{}"), nil); err != nil {
			t.Fatalf("Store(%s) failed: %v", key, err)
		}
	}

	result, err := storage.List(ctx, &ListOptions{Prefix: "handoff/"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(result.Files) != 2 {
		t.Fatalf("Expected 2 files, got %d", len(result.Files))
	}
	if result.Files[0].Key != "handoff/a.json" {
		t.Errorf("Expected sorted keys, first = %s", result.Files[0].Key)
	}
	if result.Files[0].ContentType != "application/json" {
		t.Errorf("Expected application/json, got %s", result.Files[0].ContentType)
	}

	limited, _ := storage.List(ctx, &ListOptions{MaxResults: 1})
	if len(limited.Files) != 1 || !limited.IsTruncated {
		t.Errorf("Expected truncated single result, got %+v", limited)
	}
}
