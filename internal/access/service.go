package access

import (
	"context"
	"errors"
	"log/slog"

	accessmetrics "github.com/tomassolanoprieto/subprice/internal/access/metrics"
	"github.com/tomassolanoprieto/subprice/internal/audit"
	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	dErrors "github.com/tomassolanoprieto/subprice/pkg/domain-errors"
	"github.com/tomassolanoprieto/subprice/pkg/platform/sentinel"
	"github.com/tomassolanoprieto/subprice/pkg/requestcontext"
)

// Service is the sole mutation path for provider entitlements. Admin and
// provider-initiated updates both land here so validation against the sector
// schema registry cannot be bypassed.
type Service struct {
	policies Store
	logger   *slog.Logger
	metrics  *accessmetrics.Metrics
	auditor  *audit.Publisher
}

func NewService(policies Store, logger *slog.Logger, metrics *accessmetrics.Metrics, auditor *audit.Publisher) *Service {
	return &Service{policies: policies, logger: logger, metrics: metrics, auditor: auditor}
}

// GetPolicy returns the provider's policy.
// Errors: CodeNotFound when the provider has no policy on record.
func (s *Service) GetPolicy(ctx context.Context, providerID id.ProviderID) (Policy, error) {
	if providerID.IsNil() {
		return Policy{}, dErrors.New(dErrors.CodeInvalidInput, "provider id is required")
	}
	policy, err := s.policies.FindByProvider(ctx, providerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Policy{}, dErrors.New(dErrors.CodeNotFound, "no access policy for provider")
		}
		return Policy{}, dErrors.Wrap(err, dErrors.CodeInternal, "load access policy")
	}
	return policy, nil
}

// UpdateEntitlements validates and applies a full entitlement replacement,
// creating the policy when the provider has none yet.
func (s *Service) UpdateEntitlements(ctx context.Context, providerID id.ProviderID, update EntitlementUpdate) (Policy, error) {
	if providerID.IsNil() {
		return Policy{}, dErrors.New(dErrors.CodeInvalidInput, "provider id is required")
	}
	if err := update.Validate(); err != nil {
		s.metrics.IncrementUpdateErrors()
		return Policy{}, err
	}

	now := requestcontext.Now(ctx)

	policy, err := s.policies.FindByProvider(ctx, providerID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return Policy{}, dErrors.Wrap(err, dErrors.CodeInternal, "load access policy")
		}
		policy = Policy{ProviderID: providerID}
	}

	updated := policy.Apply(update, now)
	if err := s.policies.Save(ctx, updated); err != nil {
		return Policy{}, dErrors.Wrap(err, dErrors.CodeInternal, "save access policy")
	}

	s.metrics.IncrementUpdates()
	s.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionEntitlementUpdate,
		ActorRole: string(requestcontext.RoleOf(ctx)),
		Subject:   providerID.String(),
		Detail:    "entitlements replaced",
	})
	if s.logger != nil {
		s.logger.InfoContext(ctx, "entitlements updated",
			"provider_id", providerID.String(),
			"sectors", len(updated.Sectors),
			"regions", len(updated.Regions),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return updated, nil
}
