// Package matching resolves provider queries against anonymized demand
// records, enforcing entitlement, geographic coverage, and field-level
// redaction in one place.
package matching

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomassolanoprieto/subprice/internal/access"
	"github.com/tomassolanoprieto/subprice/internal/demand"
	matchingmetrics "github.com/tomassolanoprieto/subprice/internal/matching/metrics"
	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	dErrors "github.com/tomassolanoprieto/subprice/pkg/domain-errors"
	"github.com/tomassolanoprieto/subprice/pkg/platform/sentinel"
	"github.com/tomassolanoprieto/subprice/pkg/requestcontext"
)

// Service is the matching engine.
type Service struct {
	policies access.Store
	records  demand.Store
	logger   *slog.Logger
	metrics  *matchingmetrics.Metrics
}

func NewService(policies access.Store, records demand.Store, logger *slog.Logger, metrics *matchingmetrics.Metrics) *Service {
	return &Service{policies: policies, records: records, logger: logger, metrics: metrics}
}

// Search returns the redacted demand records the provider is entitled to
// see, filtered by the query, evaluated at the given time.
//
// An out-of-entitlement query (unsubscribed sector, uncovered region,
// expired subscription, or no policy at all) yields an empty result rather
// than an error so providers cannot probe entitlement boundaries. Filtering
// on an unentitled field is different: the provider is asking about a field
// it knows it cannot see, and that fails loudly with CodeFilterNotEntitled.
func (s *Service) Search(ctx context.Context, providerID id.ProviderID, query Query, at time.Time) ([]demand.Record, error) {
	start := time.Now()
	if providerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "provider id is required")
	}
	if _, err := id.ParseSector(query.Sector.String()); err != nil {
		return nil, err
	}

	// Policy and candidate set load in parallel; both come from external
	// stores and neither depends on the other.
	var (
		policy     access.Policy
		candidates []demand.Record
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.policies.FindByProvider(gctx, providerID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				// No policy means no query rights; treated as empty below.
				return nil
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "load access policy")
		}
		policy = p
		return nil
	})
	g.Go(func() error {
		recs, err := s.records.ListBySector(gctx, query.Sector)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "list demand records")
		}
		candidates = recs
		return nil
	})
	if err := g.Wait(); err != nil {
		s.metrics.ObserveSearch(query.Sector.String(), "error", start, 0)
		return nil, err
	}

	if !s.mayQuery(policy, query, at) {
		s.observeDenied(ctx, providerID, query, start)
		return []demand.Record{}, nil
	}

	if err := query.validateEntitlement(policy); err != nil {
		s.metrics.ObserveSearch(query.Sector.String(), "rejected_filter", start, 0)
		return nil, err
	}

	results := make([]demand.Record, 0, len(candidates))
	for _, record := range candidates {
		if !s.matches(policy, query, record) {
			continue
		}
		results = append(results, policy.Redact(record))
	}

	// Stable order by anonymous ID ascending keeps pagination and tests
	// deterministic; no ranking in this version.
	sort.Slice(results, func(i, j int) bool { return results[i].AnonymousID < results[j].AnonymousID })

	s.metrics.ObserveSearch(query.Sector.String(), "ok", start, len(results))
	return results, nil
}

// mayQuery applies the coarse entitlement gate. With a region filter the
// query targets that region; without one it stands for every covered
// region, so any active coverage suffices.
func (s *Service) mayQuery(policy access.Policy, query Query, at time.Time) bool {
	if query.Region != "" {
		return policy.CanQuery(query.Sector, query.Region, at)
	}
	return policy.SubscribesTo(query.Sector) && policy.IsActiveAt(at) && len(policy.Regions) > 0
}

func (s *Service) matches(policy access.Policy, query Query, record demand.Record) bool {
	if !policy.CoversRegion(record.Region) {
		return false
	}
	if query.Region != "" && record.Region != query.Region {
		return false
	}
	if query.CurrentProviderID != "" && record.CurrentProviderID != query.CurrentProviderID {
		return false
	}
	for field, r := range query.Fields {
		value, ok := record.Value(field)
		if !ok {
			// A record missing a filtered field is excluded, never a
			// wildcard match.
			return false
		}
		if !r.Contains(value) {
			return false
		}
	}
	return true
}

func (s *Service) observeDenied(ctx context.Context, providerID id.ProviderID, query Query, start time.Time) {
	s.metrics.ObserveSearch(query.Sector.String(), "denied", start, 0)
	if s.logger != nil {
		s.logger.InfoContext(ctx, "search outside entitlement, returning empty",
			"provider_id", providerID.String(),
			"sector", query.Sector.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}
