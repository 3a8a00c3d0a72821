package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tomassolanoprieto/subprice/internal/offer"
)

const qualifiedOfferChannel = "offers:qualified"

// RedisNotifier publishes qualified offers on a Redis channel. Downstream
// delivery (push, email) subscribes to the channel; the offer service never
// learns who listens.
//
// The payload carries the anonymous ID, not the customer, so a channel
// subscriber learns nothing the matching engine would not reveal.
type RedisNotifier struct {
	client *redis.Client
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

type qualifiedOfferEvent struct {
	OfferID       string    `json:"offerId"`
	AnonymousID   string    `json:"anonymousId"`
	Sector        string    `json:"sector"`
	MonthlyAmount float64   `json:"monthlyAmount"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

func (n *RedisNotifier) NotifyQualified(ctx context.Context, o offer.Offer) error {
	payload, err := json.Marshal(qualifiedOfferEvent{
		OfferID:       o.ID.String(),
		AnonymousID:   string(o.AnonymousID),
		Sector:        o.Sector.String(),
		MonthlyAmount: o.MonthlyAmount,
		ExpiresAt:     o.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("encode qualified offer event: %w", err)
	}
	if err := n.client.Publish(ctx, qualifiedOfferChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish qualified offer event: %w", err)
	}
	return nil
}
