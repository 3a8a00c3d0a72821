package identity

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	"github.com/tomassolanoprieto/subprice/pkg/platform/sentinel"
)

func TestAssignIsStablePerSector(t *testing.T) {
	ctx := context.Background()
	directory := NewInMemoryDirectory()
	customerID := id.CustomerID(uuid.New())

	first, err := directory.Assign(ctx, customerID, id.SectorEnergy)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(first), "AN-"))

	again, err := directory.Assign(ctx, customerID, id.SectorEnergy)
	require.NoError(t, err)
	require.Equal(t, first, again)

	other, err := directory.Assign(ctx, customerID, id.SectorAlarms)
	require.NoError(t, err)
	require.NotEqual(t, first, other)

	resolved, err := directory.CustomerFor(ctx, first)
	require.NoError(t, err)
	require.Equal(t, customerID, resolved)
}

func TestResolveRequiresRegisteredContact(t *testing.T) {
	ctx := context.Background()
	directory := NewInMemoryDirectory()
	customerID := id.CustomerID(uuid.New())

	anonymousID, err := directory.Assign(ctx, customerID, id.SectorEnergy)
	require.NoError(t, err)

	_, err = directory.Resolve(ctx, anonymousID)
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	contact := CustomerContact{
		CustomerID: customerID,
		FullName:   "Lucia Fernandez",
		Email:      "lucia@example.com",
		Phone:      "+34 600 000 001",
	}
	directory.RegisterContact(contact)

	resolved, err := directory.Resolve(ctx, anonymousID)
	require.NoError(t, err)
	require.Equal(t, contact, resolved)
}

func TestUnknownAnonymousID(t *testing.T) {
	ctx := context.Background()
	directory := NewInMemoryDirectory()

	_, err := directory.CustomerFor(ctx, "AN-missing00001")
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	_, err = directory.Resolve(ctx, "AN-missing00001")
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestAnonymousIDCarriesNoCustomerMaterial(t *testing.T) {
	anonymousID := NewAnonymousID()
	require.True(t, strings.HasPrefix(string(anonymousID), "AN-"))
	require.Len(t, string(anonymousID), 15)
	require.NotEqual(t, anonymousID, NewAnonymousID())
}
