package audit

import (
	"time"

	id "github.com/tomassolanoprieto/subprice/pkg/domain"
)

// Action labels the audited operation.
type Action string

const (
	// ActionEntitlementUpdate records an admin changing what a provider
	// may see.
	ActionEntitlementUpdate Action = "entitlement_update"
	// ActionIdentityReveal records the one moment customer contact data
	// crosses to a provider.
	ActionIdentityReveal Action = "identity_reveal"
	// ActionOfferDecision records a customer accepting or rejecting.
	ActionOfferDecision Action = "offer_decision"
)

// Event is emitted from domain logic to capture privacy-relevant actions.
// Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	Action    Action
	ActorRole string
	// ActorID is the provider, customer or admin who acted.
	ActorID string
	Sector  id.Sector
	// Subject is what was acted on: a provider ID for entitlement
	// updates, an offer ID for decisions and reveals.
	Subject string
	Detail  string
}
