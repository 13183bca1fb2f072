package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/viant/afs"
)

// FileStore persists session values as a JSON snapshot at an afs URL
// (file://, mem:// or any registered storage). It is a lightweight way to survive
// process restarts in CLI or single-host services.
type FileStore struct {
	mu     sync.RWMutex
	URL    string
	fs     afs.Service
	values map[string]string
}

func (f *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	value, ok := f.values[key]
	return value, ok, nil
}

func (f *FileStore) Set(ctx context.Context, key, value string) error {
	return f.SetMany(ctx, map[string]string{key: value})
}

func (f *FileStore) Remove(ctx context.Context, key string) error {
	return f.RemoveMany(ctx, key)
}

// SetMany writes values with a single snapshot upload.
func (f *FileStore) SetMany(ctx context.Context, values map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := f.copyValues()
	for k, v := range values {
		next[k] = v
	}
	if err := f.save(ctx, next); err != nil {
		return err
	}
	f.values = next
	return nil
}

// RemoveMany removes keys with a single snapshot upload.
func (f *FileStore) RemoveMany(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := f.copyValues()
	for _, k := range keys {
		delete(next, k)
	}
	if err := f.save(ctx, next); err != nil {
		return err
	}
	f.values = next
	return nil
}

func (f *FileStore) copyValues() map[string]string {
	ret := make(map[string]string, len(f.values))
	for k, v := range f.values {
		ret[k] = v
	}
	return ret
}

// ---- persistence ----

type fileSnapshot struct {
	Values map[string]string `json:"values"`
}

func (f *FileStore) save(ctx context.Context, values map[string]string) error {
	data, err := json.MarshalIndent(fileSnapshot{Values: values}, "", "  ")
	if err != nil {
		return err
	}
	if err = f.fs.Upload(ctx, f.URL, 0o600, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save session %v: %w", f.URL, err)
	}
	return nil
}

func (f *FileStore) load(ctx context.Context) error {
	f.values = map[string]string{}
	exists, err := f.fs.Exists(ctx, f.URL)
	if err != nil || !exists {
		return err
	}
	data, err := f.fs.DownloadWithURL(ctx, f.URL)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	var snap fileSnapshot
	if err = json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to decode session %v: %w", f.URL, err)
	}
	for k, v := range snap.Values {
		f.values[k] = v
	}
	return nil
}

// NewFileStore creates a Store persisted at URL, loading any existing snapshot.
func NewFileStore(ctx context.Context, URL string) (*FileStore, error) {
	ret := &FileStore{URL: URL, fs: afs.New()}
	if err := ret.load(ctx); err != nil {
		return nil, err
	}
	return ret, nil
}
