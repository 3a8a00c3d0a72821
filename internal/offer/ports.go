package offer

import "context"

// Notifier tells a customer that a qualified offer is waiting.
//
// Delivery is best effort: a failed notification never rolls back the
// evaluation, the offer stays qualified and visible through the API.
type Notifier interface {
	NotifyQualified(ctx context.Context, o Offer) error
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) NotifyQualified(context.Context, Offer) error { return nil }
