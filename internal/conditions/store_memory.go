package conditions

import (
	"context"
	"sync"

	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	"github.com/tomassolanoprieto/subprice/pkg/platform/sentinel"
)

type profileKey struct {
	customerID id.CustomerID
	sector     id.Sector
}

// InMemoryStore keeps condition profiles in process memory.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[profileKey]Profile
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[profileKey]Profile)}
}

func (s *InMemoryStore) Save(_ context.Context, profile Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profileKey{customerID: profile.CustomerID, sector: profile.Sector}] = profile.Clone()
	return nil
}

func (s *InMemoryStore) FindByCustomerAndSector(_ context.Context, customerID id.CustomerID, sector id.Sector) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[profileKey{customerID: customerID, sector: sector}]
	if !ok {
		return Profile{}, sentinel.ErrNotFound
	}
	return profile.Clone(), nil
}
