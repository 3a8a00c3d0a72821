package access

import (
	"context"
	"sync"

	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	"github.com/tomassolanoprieto/subprice/pkg/platform/sentinel"
)

// InMemoryStore keeps policies in process memory.
type InMemoryStore struct {
	mu       sync.RWMutex
	policies map[id.ProviderID]Policy
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{policies: make(map[id.ProviderID]Policy)}
}

func (s *InMemoryStore) Save(_ context.Context, policy Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[policy.ProviderID] = policy.Clone()
	return nil
}

func (s *InMemoryStore) FindByProvider(_ context.Context, providerID id.ProviderID) (Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	policy, ok := s.policies[providerID]
	if !ok {
		return Policy{}, sentinel.ErrNotFound
	}
	return policy.Clone(), nil
}
