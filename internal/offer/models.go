package offer

import (
	"time"

	id "github.com/tomassolanoprieto/subprice/pkg/domain"
)

// Status is the lifecycle state of an offer.
type Status string

const (
	// StatusPending is the initial state before evaluation.
	StatusPending Status = "pending"
	// StatusQualified means the offer met every customer condition and
	// awaits the customer's decision.
	StatusQualified Status = "qualified"
	// StatusDisqualified means at least one condition failed. Terminal.
	StatusDisqualified Status = "disqualified"
	// StatusAccepted means the customer took the offer. Terminal.
	StatusAccepted Status = "accepted"
	// StatusRejected means the customer declined the offer. Terminal.
	StatusRejected Status = "rejected"
	// StatusExpired means the offer sat qualified past its validity
	// window. Terminal.
	StatusExpired Status = "expired"
)

// transitions holds the allowed moves in the offer lifecycle.
var transitions = map[Status][]Status{
	StatusPending:   {StatusQualified, StatusDisqualified},
	StatusQualified: {StatusAccepted, StatusRejected, StatusExpired},
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// Offer is a provider's proposal against one anonymous demand record.
//
// Version increments on every status change and backs the compare-and-swap
// in Store.TransitionStatus, so concurrent decisions on the same offer
// serialize instead of double-applying.
type Offer struct {
	ID          id.OfferID
	ProviderID  id.ProviderID
	AnonymousID id.AnonymousID
	Sector      id.Sector
	Proposed    map[string]float64

	// MonthlyAmount is the price the provider commits to, in euros per
	// month. Part of the immutable payload, not an evaluated field.
	MonthlyAmount float64

	Status       Status
	FailedFields []string
	SubmittedAt  time.Time
	EvaluatedAt  time.Time
	ExpiresAt    time.Time
	DecidedAt    *time.Time
	Version      int64
}

// Clone returns a deep copy of the offer.
func (o Offer) Clone() Offer {
	out := o
	out.Proposed = make(map[string]float64, len(o.Proposed))
	for k, v := range o.Proposed {
		out.Proposed[k] = v
	}
	if o.FailedFields != nil {
		out.FailedFields = append([]string{}, o.FailedFields...)
	}
	if o.DecidedAt != nil {
		t := *o.DecidedAt
		out.DecidedAt = &t
	}
	return out
}
