package identity

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	"github.com/tomassolanoprieto/subprice/pkg/platform/sentinel"
)

type sectorKey struct {
	customerID id.CustomerID
	sector     id.Sector
}

// InMemoryDirectory keeps the anonymous mapping in process memory.
type InMemoryDirectory struct {
	mu       sync.RWMutex
	assigned map[sectorKey]id.AnonymousID
	owners   map[id.AnonymousID]id.CustomerID
	contacts map[id.CustomerID]CustomerContact
}

func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{
		assigned: make(map[sectorKey]id.AnonymousID),
		owners:   make(map[id.AnonymousID]id.CustomerID),
		contacts: make(map[id.CustomerID]CustomerContact),
	}
}

// RegisterContact seeds the contact record revealed on acceptance.
func (d *InMemoryDirectory) RegisterContact(contact CustomerContact) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.contacts[contact.CustomerID] = contact
}

func (d *InMemoryDirectory) Assign(_ context.Context, customerID id.CustomerID, sector id.Sector) (id.AnonymousID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := sectorKey{customerID: customerID, sector: sector}
	if existing, ok := d.assigned[key]; ok {
		return existing, nil
	}
	anonymousID := NewAnonymousID()
	d.assigned[key] = anonymousID
	d.owners[anonymousID] = customerID
	return anonymousID, nil
}

func (d *InMemoryDirectory) CustomerFor(_ context.Context, anonymousID id.AnonymousID) (id.CustomerID, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	customerID, ok := d.owners[anonymousID]
	if !ok {
		return id.CustomerID{}, sentinel.ErrNotFound
	}
	return customerID, nil
}

func (d *InMemoryDirectory) Resolve(_ context.Context, anonymousID id.AnonymousID) (CustomerContact, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	customerID, ok := d.owners[anonymousID]
	if !ok {
		return CustomerContact{}, sentinel.ErrNotFound
	}
	contact, ok := d.contacts[customerID]
	if !ok {
		return CustomerContact{}, sentinel.ErrNotFound
	}
	return contact, nil
}

// NewAnonymousID mints an opaque record identifier. The value is random; it
// carries no customer-derived material.
func NewAnonymousID() id.AnonymousID {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return id.AnonymousID("AN-" + raw[:12])
}
