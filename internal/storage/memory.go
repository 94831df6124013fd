// Package storage provides face record persistence implementations.
package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/hammamikhairi/facecapture/internal/domain"
	"github.com/hammamikhairi/facecapture/internal/logger"
)

// Compile-time interface check.
var _ domain.RecordStore = (*MemoryStore)(nil)

// MemoryStore is an in-memory record store. Safe for concurrent access.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*domain.FaceRecord
	log     *logger.Logger
}

// NewMemoryStore creates an empty in-memory record store.
func NewMemoryStore(log *logger.Logger) *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*domain.FaceRecord),
		log:     log,
	}
}

// Save persists a record. Overwrites if it already exists.
func (s *MemoryStore) Save(ctx context.Context, record *domain.FaceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Debug("saving record %s (session=%s, images=%d)", record.ID, record.SessionID, len(record.Images))
	s.records[record.ID] = record
	return nil
}

// Load retrieves a record by ID.
func (s *MemoryStore) Load(ctx context.Context, id string) (*domain.FaceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		s.log.Debug("record not found: %s", id)
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

// Delete removes a record by ID.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.records, id)
	s.log.Debug("deleted record %s", id)
	return nil
}

// List returns every record, oldest first.
func (s *MemoryStore) List(ctx context.Context) ([]*domain.FaceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.FaceRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sortRecords(out)
	s.log.Debug("listing records, count=%d", len(out))
	return out, nil
}

func sortRecords(recs []*domain.FaceRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].ID < recs[j].ID
		}
		return recs[i].CreatedAt.Before(recs[j].CreatedAt)
	})
}
