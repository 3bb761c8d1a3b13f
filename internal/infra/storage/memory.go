package storage

import (
	"context"
	"errors"
	"sync"
)

// MemoryStore keeps objects in a map. Handler tests use it in place of a
// real bucket.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	// FailPut makes every Put return an error.
	FailPut bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) Put(_ context.Context, bucket, key, _ string, data []byte) (Object, error) {
	if s.FailPut {
		return Object{}, errors.New("memory store: put failed")
	}
	if err := checkKey(key); err != nil {
		return Object{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+key] = append([]byte(nil), data...)
	return Object{
		Bucket:    bucket,
		Key:       key,
		PublicURL: "memory://" + bucket + "/" + key,
		Backend:   s.Name(),
	}, nil
}

func (s *MemoryStore) Delete(_ context.Context, bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, bucket+"/"+key)
	return nil
}

func (s *MemoryStore) Has(bucket, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[bucket+"/"+key]
	return ok
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
