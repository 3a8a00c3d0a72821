package offer

import (
	"context"
	"sort"
	"sync"
	"time"

	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	"github.com/tomassolanoprieto/subprice/pkg/platform/sentinel"
)

// InMemoryStore keeps offers in process memory. The version check in
// TransitionStatus gives the same serialization guarantee as the SQL store.
type InMemoryStore struct {
	mu     sync.RWMutex
	offers map[id.OfferID]Offer
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{offers: make(map[id.OfferID]Offer)}
}

func (s *InMemoryStore) Create(_ context.Context, o Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.offers[o.ID]; ok {
		return sentinel.ErrConflict
	}
	s.offers[o.ID] = o.Clone()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, offerID id.OfferID) (Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.offers[offerID]
	if !ok {
		return Offer{}, sentinel.ErrNotFound
	}
	return o.Clone(), nil
}

func (s *InMemoryStore) ListByProvider(_ context.Context, providerID id.ProviderID) ([]Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Offer
	for _, o := range s.offers {
		if o.ProviderID == providerID {
			out = append(out, o.Clone())
		}
	}
	sortOffers(out)
	return out, nil
}

func (s *InMemoryStore) ListByAnonymousID(_ context.Context, anonymousID id.AnonymousID) ([]Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Offer
	for _, o := range s.offers {
		if o.AnonymousID == anonymousID {
			out = append(out, o.Clone())
		}
	}
	sortOffers(out)
	return out, nil
}

func (s *InMemoryStore) TransitionStatus(_ context.Context, offerID id.OfferID, from, to Status, version int64, at time.Time) (Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.offers[offerID]
	if !ok {
		return Offer{}, sentinel.ErrNotFound
	}
	if o.Status != from || o.Version != version {
		return Offer{}, sentinel.ErrConflict
	}
	o.Status = to
	o.Version++
	decided := at
	o.DecidedAt = &decided
	s.offers[offerID] = o
	return o.Clone(), nil
}

func (s *InMemoryStore) ListQualifiedBefore(_ context.Context, cutoff time.Time) ([]Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Offer
	for _, o := range s.offers {
		if o.Status == StatusQualified && !o.ExpiresAt.After(cutoff) {
			out = append(out, o.Clone())
		}
	}
	sortOffers(out)
	return out, nil
}

func sortOffers(offers []Offer) {
	sort.Slice(offers, func(i, j int) bool { return offers[i].SubmittedAt.Before(offers[j].SubmittedAt) })
}
