package store

import (
	"context"
	"slices"
	"sync"

	"github.com/example/keystore/models"
)

type MemoryStore struct {
	mu      sync.Mutex
	records []models.KeyRecord
}

func NewMemoryStore(records ...models.KeyRecord) *MemoryStore {
	return &MemoryStore{records: append([]models.KeyRecord{}, records...)}
}

func (s *MemoryStore) Load(ctx context.Context) ([]models.KeyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.records), nil
}

func (s *MemoryStore) Save(ctx context.Context, records []models.KeyRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]models.KeyRecord{}, records...)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, fn UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next, changed, err := fn(slices.Clone(s.records))
	if err != nil || !changed {
		return err
	}
	s.records = append([]models.KeyRecord{}, next...)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
