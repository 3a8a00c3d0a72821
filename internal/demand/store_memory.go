package demand

import (
	"context"
	"sort"
	"sync"

	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	"github.com/tomassolanoprieto/subprice/pkg/platform/sentinel"
)

// InMemoryStore keeps demand records in process memory. Used in tests and
// for local development; the matching engine only sees the Store interface.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.AnonymousID]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.AnonymousID]Record)}
}

func (s *InMemoryStore) Upsert(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.AnonymousID] = record.Clone()
	return nil
}

func (s *InMemoryStore) FindByAnonymousID(_ context.Context, anonymousID id.AnonymousID) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[anonymousID]
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}
	return record.Clone(), nil
}

func (s *InMemoryStore) ListBySector(_ context.Context, sector id.Sector) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, record := range s.records {
		if record.Sector == sector {
			out = append(out, record.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AnonymousID < out[j].AnonymousID })
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, anonymousID id.AnonymousID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[anonymousID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records, anonymousID)
	return nil
}
