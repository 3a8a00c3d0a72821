package profile

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

// InMemoryStore keeps declared profiles in process memory.
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
	s.profiles[profileKey{profile.CustomerID, profile.Sector}] = profile.Clone()
	return nil
}

func (s *InMemoryStore) FindByCustomerAndSector(_ context.Context, customerID id.CustomerID, sector id.Sector) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[profileKey{customerID, sector}]
	if !ok {
		return Profile{}, sentinel.ErrNotFound
	}
	return profile.Clone(), nil
}

func (s *InMemoryStore) Delete(_ context.Context, customerID id.CustomerID, sector id.Sector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := profileKey{customerID, sector}
	if _, ok := s.profiles[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.profiles, key)
	return nil
}
