package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	id "github.com/tomassolanoprieto/subprice/pkg/domain"
)

func TestPublisherEmitAndList(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	publisher := NewPublisher(store, nil)

	publisher.Emit(ctx, Event{
		Action:    ActionEntitlementUpdate,
		ActorRole: "admin",
		Sector:    id.SectorEnergy,
		Subject:   "provider-1",
		Detail:    "entitlements replaced",
	})
	publisher.Emit(ctx, Event{
		Action:  ActionOfferDecision,
		Subject: "offer-1",
		Detail:  "accepted",
	})

	events, err := publisher.List(ctx, "provider-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, ActionEntitlementUpdate, events[0].Action)
	require.False(t, events[0].Timestamp.IsZero(), "Emit stamps unset timestamps")
}

func TestPublisherKeepsCallerTimestamp(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	publisher := NewPublisher(store, nil)

	at := time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC)
	publisher.Emit(ctx, Event{Action: ActionIdentityReveal, Subject: "offer-2", Timestamp: at})

	events, err := store.ListBySubject(ctx, "offer-2")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, at, events[0].Timestamp)
}

func TestNilPublisherDropsEvents(t *testing.T) {
	var publisher *Publisher
	publisher.Emit(context.Background(), Event{Action: ActionOfferDecision, Subject: "offer-3"})
}
