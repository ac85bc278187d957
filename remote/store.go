// Package remote expands and offloads message content kept in an object
// store.
package remote

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var (
	ErrFetch  = errors.New("remote: fetch failed")
	ErrTarget = errors.New("remote: invalid target path")
)

// Pointer is the replace block of a truncated message.
type Pointer struct {
	Bucket     string `json:"Bucket"`
	Key        string `json:"Key"`
	TargetPath string `json:"TargetPath,omitempty"`
}

func (p Pointer) String() string { return "s3://" + p.Bucket + "/" + p.Key }

// Store reads and writes message bodies.
type Store interface {
	Fetch(ctx context.Context, p Pointer) ([]byte, error)
	Put(ctx context.Context, bucket, key string, body []byte) error
}

// DirStore serves objects from a local directory, as <root>/<bucket>/<key>
// or, failing that, <root>/<key>.
type DirStore struct {
	Root string
}

func NewDirStore(root string) *DirStore {
	return &DirStore{Root: root}
}

func (s *DirStore) Fetch(_ context.Context, p Pointer) ([]byte, error) {
	candidates := []string{
		filepath.Join(s.Root, p.Bucket, filepath.FromSlash(p.Key)),
		filepath.Join(s.Root, filepath.FromSlash(p.Key)),
	}
	for _, c := range candidates {
		b, err := os.ReadFile(c)
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %v", ErrFetch, p, err)
		}
	}
	return nil, fmt.Errorf("%w: %s: not found under %s", ErrFetch, p, s.Root)
}

func (s *DirStore) Put(_ context.Context, bucket, key string, body []byte) error {
	path := filepath.Join(s.Root, bucket, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("remote: put %s/%s: %w", bucket, key, err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("remote: put %s/%s: %w", bucket, key, err)
	}
	return nil
}

// MemoryStore keeps objects in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: map[string][]byte{}}
}

func (s *MemoryStore) Fetch(_ context.Context, p Pointer) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.objects[p.Bucket+"/"+p.Key]
	if !ok {
		return nil, fmt.Errorf("%w: %s: no such object", ErrFetch, p)
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (s *MemoryStore) Put(_ context.Context, bucket, key string, body []byte) error {
	b := make([]byte, len(body))
	copy(b, body)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+key] = b
	return nil
}

// Len reports how many objects s holds.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
