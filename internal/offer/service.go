package offer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tomassolanoprieto/subprice/internal/access"
	"github.com/tomassolanoprieto/subprice/internal/audit"
	"github.com/tomassolanoprieto/subprice/internal/conditions"
	"github.com/tomassolanoprieto/subprice/internal/demand"
	"github.com/tomassolanoprieto/subprice/internal/identity"
	offermetrics "github.com/tomassolanoprieto/subprice/internal/offer/metrics"
	"github.com/tomassolanoprieto/subprice/internal/schema"
	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	dErrors "github.com/tomassolanoprieto/subprice/pkg/domain-errors"
	"github.com/tomassolanoprieto/subprice/pkg/platform/sentinel"
	"github.com/tomassolanoprieto/subprice/pkg/requestcontext"
)

// SubmitRequest is a provider's proposal against one anonymous demand record.
type SubmitRequest struct {
	AnonymousID   id.AnonymousID
	Sector        id.Sector
	Proposed      map[string]float64
	MonthlyAmount float64
}

// AcceptResult pairs the accepted offer with the customer contact revealed
// to the provider. Acceptance is the only path that produces contact data.
type AcceptResult struct {
	Offer   Offer
	Contact identity.CustomerContact
}

// Service runs the offer lifecycle: submission and evaluation, customer
// decisions, and expiry.
type Service struct {
	offers    Store
	policies  access.Store
	records   demand.Store
	profiles  conditions.Store
	directory identity.Directory
	notifier  Notifier
	validity  time.Duration
	logger    *slog.Logger
	metrics   *offermetrics.Metrics
	auditor   *audit.Publisher
}

func NewService(
	offers Store,
	policies access.Store,
	records demand.Store,
	profiles conditions.Store,
	directory identity.Directory,
	notifier Notifier,
	validity time.Duration,
	logger *slog.Logger,
	metrics *offermetrics.Metrics,
	auditor *audit.Publisher,
) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		offers:    offers,
		policies:  policies,
		records:   records,
		profiles:  profiles,
		directory: directory,
		notifier:  notifier,
		validity:  validity,
		logger:    logger,
		metrics:   metrics,
		auditor:   auditor,
	}
}

// Submit evaluates a proposal and persists the resulting offer.
//
// The provider must hold an active subscription to the sector and cover the
// target record's region. The verdict is immediate: the offer lands as
// qualified or disqualified, never as pending at rest. Notification of the
// customer is best effort and only happens for qualified offers.
//
// Errors: CodeForbidden outside the provider's entitlement, CodeNotFound
// for an unknown record, CodeInvalidFieldReference for a proposed field not
// in the sector schema.
func (s *Service) Submit(ctx context.Context, providerID id.ProviderID, req SubmitRequest) (Offer, error) {
	start := time.Now()
	now := requestcontext.Now(ctx)

	if providerID.IsNil() {
		return Offer{}, dErrors.New(dErrors.CodeInvalidInput, "provider id is required")
	}
	if !req.Sector.IsValid() {
		return Offer{}, dErrors.New(dErrors.CodeUnknownSector, "unknown sector: "+req.Sector.String())
	}
	if req.AnonymousID == "" {
		return Offer{}, dErrors.New(dErrors.CodeInvalidInput, "anonymous id is required")
	}
	if req.MonthlyAmount <= 0 {
		return Offer{}, dErrors.New(dErrors.CodeInvalidInput, "monthly amount must be positive")
	}
	if err := validateProposed(req.Sector, req.Proposed); err != nil {
		return Offer{}, err
	}

	policy, err := s.policies.FindByProvider(ctx, providerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Offer{}, dErrors.New(dErrors.CodeForbidden, "provider has no access policy")
		}
		return Offer{}, dErrors.Wrap(err, dErrors.CodeInternal, "load access policy")
	}
	if !policy.SubscribesTo(req.Sector) || !policy.IsActiveAt(now) {
		return Offer{}, dErrors.New(dErrors.CodeForbidden, "no active subscription for sector "+req.Sector.String())
	}

	record, err := s.records.FindByAnonymousID(ctx, req.AnonymousID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Offer{}, dErrors.New(dErrors.CodeNotFound, "no demand record for anonymous id")
		}
		return Offer{}, dErrors.Wrap(err, dErrors.CodeInternal, "load demand record")
	}
	// A record outside the provider's coverage is indistinguishable from a
	// missing one, same as in search.
	if record.Sector != req.Sector || !policy.CoversRegion(record.Region) {
		return Offer{}, dErrors.New(dErrors.CodeNotFound, "no demand record for anonymous id")
	}

	customerID, err := s.directory.CustomerFor(ctx, req.AnonymousID)
	if err != nil {
		return Offer{}, dErrors.Wrap(err, dErrors.CodeInternal, "resolve record owner")
	}

	profile, err := s.profiles.FindByCustomerAndSector(ctx, customerID, req.Sector)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return Offer{}, dErrors.Wrap(err, dErrors.CodeInternal, "load condition profile")
		}
		profile = conditions.Profile{CustomerID: customerID, Sector: req.Sector}
	}

	verdict := Evaluate(req.Proposed, profile)
	status := StatusQualified
	if !verdict.Qualified {
		status = StatusDisqualified
	}

	o := Offer{
		ID:            id.OfferID(uuid.New()),
		ProviderID:    providerID,
		AnonymousID:   req.AnonymousID,
		Sector:        req.Sector,
		Proposed:      copyProposed(req.Proposed),
		MonthlyAmount: req.MonthlyAmount,
		Status:        status,
		FailedFields:  verdict.FailedFields,
		SubmittedAt:   now,
		EvaluatedAt:   now,
		ExpiresAt:     now.Add(s.validity),
	}
	if err := s.offers.Create(ctx, o); err != nil {
		return Offer{}, dErrors.Wrap(err, dErrors.CodeInternal, "save offer")
	}

	if status == StatusQualified {
		if err := s.notifier.NotifyQualified(ctx, o); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "qualified offer notification failed",
				"offer_id", o.ID.String(),
				"error", err,
			)
		}
	}

	s.metrics.ObserveSubmission(req.Sector.String(), string(status), start)
	if s.logger != nil {
		s.logger.InfoContext(ctx, "offer evaluated",
			"offer_id", o.ID.String(),
			"provider_id", providerID.String(),
			"sector", req.Sector.String(),
			"status", string(status),
			"failed_fields", len(verdict.FailedFields),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return o, nil
}

// Accept records the customer taking a qualified offer and reveals the
// customer's contact record to the provider. This is the single point where
// the anonymity of a demand record is lifted.
//
// Errors: CodeNotFound for an unknown offer or one the customer does not
// own, CodeInvalidTransition when the offer is not qualified or already past
// its validity window, CodeConflict when a concurrent decision wins.
func (s *Service) Accept(ctx context.Context, customerID id.CustomerID, offerID id.OfferID) (AcceptResult, error) {
	o, err := s.ownedOffer(ctx, customerID, offerID)
	if err != nil {
		return AcceptResult{}, err
	}
	updated, err := s.decide(ctx, o, StatusAccepted)
	if err != nil {
		return AcceptResult{}, err
	}
	contact, err := s.directory.Resolve(ctx, o.AnonymousID)
	if err != nil {
		return AcceptResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "resolve customer contact")
	}
	s.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionOfferDecision,
		ActorRole: string(requestcontext.RoleCustomer),
		ActorID:   customerID.String(),
		Sector:    o.Sector,
		Subject:   offerID.String(),
		Detail:    string(StatusAccepted),
	})
	s.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionIdentityReveal,
		ActorRole: string(requestcontext.RoleProvider),
		ActorID:   o.ProviderID.String(),
		Sector:    o.Sector,
		Subject:   offerID.String(),
		Detail:    string(o.AnonymousID),
	})
	if s.logger != nil {
		s.logger.InfoContext(ctx, "offer accepted",
			"offer_id", offerID.String(),
			"provider_id", o.ProviderID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return AcceptResult{Offer: updated, Contact: contact}, nil
}

// Reject records the customer declining a qualified offer. No identity is
// revealed on rejection.
func (s *Service) Reject(ctx context.Context, customerID id.CustomerID, offerID id.OfferID) (Offer, error) {
	o, err := s.ownedOffer(ctx, customerID, offerID)
	if err != nil {
		return Offer{}, err
	}
	updated, err := s.decide(ctx, o, StatusRejected)
	if err != nil {
		return Offer{}, err
	}
	s.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionOfferDecision,
		ActorRole: string(requestcontext.RoleCustomer),
		ActorID:   customerID.String(),
		Sector:    o.Sector,
		Subject:   offerID.String(),
		Detail:    string(StatusRejected),
	})
	if s.logger != nil {
		s.logger.InfoContext(ctx, "offer rejected",
			"offer_id", offerID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return updated, nil
}

// GetForProvider returns one of the provider's own offers.
func (s *Service) GetForProvider(ctx context.Context, providerID id.ProviderID, offerID id.OfferID) (Offer, error) {
	o, err := s.offers.FindByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Offer{}, dErrors.New(dErrors.CodeNotFound, "offer not found")
		}
		return Offer{}, dErrors.Wrap(err, dErrors.CodeInternal, "load offer")
	}
	if o.ProviderID != providerID {
		return Offer{}, dErrors.New(dErrors.CodeNotFound, "offer not found")
	}
	return o, nil
}

// ListForProvider returns all offers the provider has submitted, oldest
// first.
func (s *Service) ListForProvider(ctx context.Context, providerID id.ProviderID) ([]Offer, error) {
	offers, err := s.offers.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list offers")
	}
	return offers, nil
}

// ListForCustomer returns the offers targeting the customer's records in a
// sector, oldest first.
func (s *Service) ListForCustomer(ctx context.Context, customerID id.CustomerID, sector id.Sector) ([]Offer, error) {
	if !sector.IsValid() {
		return nil, dErrors.New(dErrors.CodeUnknownSector, "unknown sector: "+sector.String())
	}
	anonymousID, err := s.directory.Assign(ctx, customerID, sector)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "resolve anonymous id")
	}
	offers, err := s.offers.ListByAnonymousID(ctx, anonymousID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list offers")
	}
	return offers, nil
}

// ownedOffer loads an offer and verifies the caller is the customer behind
// its anonymous target. Foreign offers read as missing so customers cannot
// probe each other's traffic.
func (s *Service) ownedOffer(ctx context.Context, customerID id.CustomerID, offerID id.OfferID) (Offer, error) {
	if offerID.IsNil() {
		return Offer{}, dErrors.New(dErrors.CodeInvalidInput, "offer id is required")
	}
	o, err := s.offers.FindByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Offer{}, dErrors.New(dErrors.CodeNotFound, "offer not found")
		}
		return Offer{}, dErrors.Wrap(err, dErrors.CodeInternal, "load offer")
	}
	owner, err := s.directory.CustomerFor(ctx, o.AnonymousID)
	if err != nil {
		return Offer{}, dErrors.Wrap(err, dErrors.CodeInternal, "resolve record owner")
	}
	if owner != customerID {
		return Offer{}, dErrors.New(dErrors.CodeNotFound, "offer not found")
	}
	return o, nil
}

// decide moves a qualified offer to its customer decision. An offer past
// its validity window is expired in place and the decision refused, so the
// outcome is the same whether or not the sweep got there first.
func (s *Service) decide(ctx context.Context, o Offer, to Status) (Offer, error) {
	now := requestcontext.Now(ctx)
	if o.Status == StatusQualified && now.After(o.ExpiresAt) {
		if _, err := s.offers.TransitionStatus(ctx, o.ID, StatusQualified, StatusExpired, o.Version, now); err == nil {
			s.metrics.IncrementTransition(string(StatusExpired))
		}
		return Offer{}, dErrors.New(dErrors.CodeInvalidTransition,
			"cannot move offer from "+string(StatusExpired)+" to "+string(to))
	}
	if !o.Status.CanTransitionTo(to) {
		return Offer{}, dErrors.New(dErrors.CodeInvalidTransition,
			"cannot move offer from "+string(o.Status)+" to "+string(to))
	}
	updated, err := s.offers.TransitionStatus(ctx, o.ID, o.Status, to, o.Version, now)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncrementConflict()
			return Offer{}, dErrors.New(dErrors.CodeConflict, "offer was decided concurrently")
		}
		return Offer{}, dErrors.Wrap(err, dErrors.CodeInternal, "transition offer")
	}
	s.metrics.IncrementTransition(string(to))
	return updated, nil
}

// validateProposed checks every proposed field against the sector schema.
func validateProposed(sector id.Sector, proposed map[string]float64) error {
	if len(proposed) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "proposed terms are required")
	}
	sectorSchema, err := schema.SchemaFor(sector)
	if err != nil {
		return err
	}
	for field := range proposed {
		if _, ok := sectorSchema.Field(field); ok {
			continue
		}
		if schema.IsSharedField(field) {
			continue
		}
		return dErrors.New(dErrors.CodeInvalidFieldReference,
			"field not in "+sector.String()+" schema: "+field)
	}
	return nil
}

func copyProposed(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
