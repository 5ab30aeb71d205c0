// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"sort"
	"sync"

	"cadence/internal/storage"
)

// MemoryBlobStore is an in-memory storage.BlobStore that records every call.
type MemoryBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	Puts    []string
	Deletes []string

	// FailPut, when set, is consulted before each write.
	FailPut func(key, contentType string) error
	// FailDelete, when set, is consulted before each delete.
	FailDelete func(key string) error
}

// NewMemoryBlobStore returns an empty store.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{objects: make(map[string][]byte)}
}

func (s *MemoryBlobStore) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) (storage.Object, error) {
	if s.FailPut != nil {
		if err := s.FailPut(key, contentType); err != nil {
			return storage.Object{}, err
		}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return storage.Object{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	s.Puts = append(s.Puts, key)
	return storage.Object{Key: key, URL: s.URL(key), Size: int64(len(data)), ContentType: contentType}, nil
}

func (s *MemoryBlobStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	s.Deletes = append(s.Deletes, key)
	s.mu.Unlock()
	if s.FailDelete != nil {
		if err := s.FailDelete(key); err != nil {
			return err
		}
	}
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryBlobStore) URL(key string) string {
	return "http://blobs.test/" + key
}

// Has reports whether key is currently stored.
func (s *MemoryBlobStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

// Keys returns the stored keys in sorted order.
func (s *MemoryBlobStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t interface {
	Helper()
	Fatalf(string, ...any)
}, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// ImageUpload builds an image/png upload of the given size.
func ImageUpload(t interface {
	Helper()
	Fatalf(string, ...any)
}, name string, w, h int) storage.Upload {
	t.Helper()
	return storage.BytesUpload(name, "image/png", TinyPNG(t, w, h))
}

// VideoUpload builds a small video/mp4 upload.
func VideoUpload(name string) storage.Upload {
	return storage.BytesUpload(name, "video/mp4", []byte(fmt.Sprintf("fake-mp4-%s", name)))
}
