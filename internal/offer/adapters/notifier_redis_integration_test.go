//go:build integration

package adapters_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tomassolanoprieto/subprice/internal/offer"
	"github.com/tomassolanoprieto/subprice/internal/offer/adapters"
	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	"github.com/tomassolanoprieto/subprice/pkg/testutil/containers"
)

func TestRedisNotifierPublishesQualifiedOffers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	rc := containers.NewRedisContainer(t)

	sub := rc.Client.Subscribe(ctx, "offers:qualified")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err, "subscription must be live before publishing")

	o := offer.Offer{
		ID:          id.OfferID(uuid.New()),
		ProviderID:  id.ProviderID(uuid.New()),
		AnonymousID: "AN-redis0000001",
		Sector:      id.SectorEnergy,
		Status:      offer.StatusQualified,
		ExpiresAt:   time.Now().Add(72 * time.Hour).UTC(),
	}

	notifier := adapters.NewRedisNotifier(rc.Client)
	require.NoError(t, notifier.NotifyQualified(ctx, o))

	recvCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(recvCtx)
	require.NoError(t, err)

	var event struct {
		OfferID     string `json:"offerId"`
		AnonymousID string `json:"anonymousId"`
		Sector      string `json:"sector"`
	}
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
	require.Equal(t, o.ID.String(), event.OfferID)
	require.Equal(t, "AN-redis0000001", event.AnonymousID)
	require.Equal(t, "energy", event.Sector)

	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &raw))
	require.NotContains(t, raw, "providerId", "payload must not carry the provider")
	require.NotContains(t, raw, "customerId", "payload must never carry the customer")
}
