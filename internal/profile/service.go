package profile

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tomassolanoprieto/subprice/internal/demand"
	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	dErrors "github.com/tomassolanoprieto/subprice/pkg/domain-errors"
	"github.com/tomassolanoprieto/subprice/pkg/platform/sentinel"
	"github.com/tomassolanoprieto/subprice/pkg/requestcontext"
)

// RecordRefresher regenerates and withdraws the anonymized demand records
// derived from declared profiles. The demand service satisfies this.
type RecordRefresher interface {
	Refresh(ctx context.Context, customerID id.CustomerID, sector id.Sector) (demand.Record, error)
	Withdraw(ctx context.Context, customerID id.CustomerID, sector id.Sector) error
}

// Service manages declared customer profiles and keeps the derived demand
// records in step with them.
type Service struct {
	profiles  Store
	refresher RecordRefresher
	logger    *slog.Logger
}

func NewService(profiles Store, refresher RecordRefresher, logger *slog.Logger) *Service {
	return &Service{profiles: profiles, refresher: refresher, logger: logger}
}

// SetProfile validates and replaces the customer's declared data for a
// sector, then regenerates the anonymized demand record. Unlike condition
// changes, a failed regeneration here fails the whole call: the declared
// profile and the published record must not drift apart on the write path
// that owns the data.
func (s *Service) SetProfile(ctx context.Context, customerID id.CustomerID, sector id.Sector, attrs demand.Attributes) (Profile, error) {
	if customerID.IsNil() {
		return Profile{}, dErrors.New(dErrors.CodeInvalidInput, "customer id is required")
	}
	if err := ValidateAttributes(sector, attrs); err != nil {
		return Profile{}, err
	}

	profile := Profile{
		CustomerID: customerID,
		Sector:     sector,
		Attributes: attrs,
		UpdatedAt:  requestcontext.Now(ctx),
	}
	if err := s.profiles.Save(ctx, profile); err != nil {
		return Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "save customer profile")
	}
	if _, err := s.refresher.Refresh(ctx, customerID, sector); err != nil {
		return Profile{}, err
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "customer profile updated",
			"sector", sector.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return profile, nil
}

// GetProfile returns the customer's declared data for a sector.
// Errors: CodeNotFound when nothing was declared yet.
func (s *Service) GetProfile(ctx context.Context, customerID id.CustomerID, sector id.Sector) (Profile, error) {
	if !sector.IsValid() {
		return Profile{}, dErrors.New(dErrors.CodeUnknownSector, "unknown sector: "+sector.String())
	}
	profile, err := s.profiles.FindByCustomerAndSector(ctx, customerID, sector)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Profile{}, dErrors.New(dErrors.CodeNotFound, "no profile for sector")
		}
		return Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "load customer profile")
	}
	return profile, nil
}

// DeleteProfile removes the declared data and withdraws the derived demand
// record from matching.
func (s *Service) DeleteProfile(ctx context.Context, customerID id.CustomerID, sector id.Sector) error {
	if !sector.IsValid() {
		return dErrors.New(dErrors.CodeUnknownSector, "unknown sector: "+sector.String())
	}
	if err := s.profiles.Delete(ctx, customerID, sector); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "no profile for sector")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete customer profile")
	}
	if err := s.refresher.Withdraw(ctx, customerID, sector); err != nil {
		// The profile is gone; a stale record disappears on the next
		// refresh. Surface it in logs only.
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "demand record withdrawal failed",
				"sector", sector.String(),
				"error", err,
			)
		}
	}
	return nil
}

// AttributeSource adapts the profile store to the demand service's
// attribute loader without creating a service cycle.
type AttributeSource struct {
	profiles Store
}

func NewAttributeSource(profiles Store) AttributeSource {
	return AttributeSource{profiles: profiles}
}

func (s AttributeSource) LoadAttributes(ctx context.Context, customerID id.CustomerID, sector id.Sector) (demand.Attributes, error) {
	profile, err := s.profiles.FindByCustomerAndSector(ctx, customerID, sector)
	if err != nil {
		return demand.Attributes{}, err
	}
	return profile.Attributes, nil
}
