package offer

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	id "github.com/tomassolanoprieto/subprice/pkg/domain"
)

func seedOffer(t *testing.T, store *InMemoryStore, status Status, expiresAt time.Time) Offer {
	t.Helper()
	o := Offer{
		ID:          id.OfferID(uuid.New()),
		ProviderID:  id.ProviderID(uuid.New()),
		AnonymousID: id.AnonymousID("AN-" + uuid.NewString()[:12]),
		Sector:      id.SectorEnergy,
		Proposed:    map[string]float64{"consumption": 200},
		Status:      status,
		SubmittedAt: expiresAt.Add(-72 * time.Hour),
		EvaluatedAt: expiresAt.Add(-72 * time.Hour),
		ExpiresAt:   expiresAt,
	}
	require.NoError(t, store.Create(context.Background(), o))
	return o
}

func TestSweepOnce(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewInMemoryStore()
	sweeper := NewSweeper(store, nil, nil)

	overdue := seedOffer(t, store, StatusQualified, now.Add(-time.Hour))
	atCutoff := seedOffer(t, store, StatusQualified, now)
	live := seedOffer(t, store, StatusQualified, now.Add(time.Hour))
	decided := seedOffer(t, store, StatusAccepted, now.Add(-time.Hour))

	expired, err := sweeper.SweepOnce(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, 2, expired)

	for offerID, want := range map[id.OfferID]Status{
		overdue.ID:  StatusExpired,
		atCutoff.ID: StatusExpired,
		live.ID:     StatusQualified,
		decided.ID:  StatusAccepted,
	} {
		stored, err := store.FindByID(context.Background(), offerID)
		require.NoError(t, err)
		require.Equal(t, want, stored.Status, "offer %s", offerID)
	}
}

func TestSweepOnceSkipsConcurrentDecisions(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewInMemoryStore()
	sweeper := NewSweeper(store, nil, nil)

	o := seedOffer(t, store, StatusQualified, now.Add(-time.Hour))
	// A customer decision lands before the sweep's CAS.
	_, err := store.TransitionStatus(context.Background(), o.ID, StatusQualified, StatusAccepted, o.Version, now)
	require.NoError(t, err)

	count, err := sweeper.SweepOnce(context.Background(), now)
	require.NoError(t, err)
	require.Zero(t, count)

	stored, err := store.FindByID(context.Background(), o.ID)
	require.NoError(t, err)
	require.Equal(t, StatusAccepted, stored.Status)
}
