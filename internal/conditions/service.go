package conditions

import (
	"context"
	"errors"
	"log/slog"

	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	dErrors "github.com/tomassolanoprieto/subprice/pkg/domain-errors"
	"github.com/tomassolanoprieto/subprice/pkg/platform/sentinel"
	"github.com/tomassolanoprieto/subprice/pkg/requestcontext"
)

// RecordRefresher regenerates the customer's anonymized demand record after
// a profile change. The demand service satisfies this.
type RecordRefresher interface {
	Refresh(ctx context.Context, customerID id.CustomerID, sector id.Sector) error
}

// Service manages customer condition profiles.
type Service struct {
	profiles  Store
	refresher RecordRefresher
	logger    *slog.Logger
}

func NewService(profiles Store, refresher RecordRefresher, logger *slog.Logger) *Service {
	return &Service{profiles: profiles, refresher: refresher, logger: logger}
}

// SetConditions validates and replaces the customer's conditions for a
// sector, then regenerates the demand record so published data stays in
// step with the declared profile.
func (s *Service) SetConditions(ctx context.Context, customerID id.CustomerID, sector id.Sector, conds []Condition) (Profile, error) {
	if customerID.IsNil() {
		return Profile{}, dErrors.New(dErrors.CodeInvalidInput, "customer id is required")
	}
	if err := ValidateConditions(sector, conds); err != nil {
		return Profile{}, err
	}

	profile := Profile{
		CustomerID: customerID,
		Sector:     sector,
		Conditions: append([]Condition{}, conds...),
		UpdatedAt:  requestcontext.Now(ctx),
	}
	if err := s.profiles.Save(ctx, profile); err != nil {
		return Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "save condition profile")
	}

	if s.refresher != nil {
		if err := s.refresher.Refresh(ctx, customerID, sector); err != nil {
			// The profile is saved; a failed regeneration leaves the previous
			// record in place until the next change. Surface it in logs only.
			if s.logger != nil {
				s.logger.ErrorContext(ctx, "demand record refresh failed",
					"customer_id", customerID.String(),
					"sector", sector.String(),
					"error", err,
				)
			}
		}
	}
	return profile, nil
}

// GetProfile returns the profile for a customer and sector. A customer who
// never declared conditions gets an empty profile, not an error: empty
// auto-qualifies every offer.
func (s *Service) GetProfile(ctx context.Context, customerID id.CustomerID, sector id.Sector) (Profile, error) {
	if customerID.IsNil() {
		return Profile{}, dErrors.New(dErrors.CodeInvalidInput, "customer id is required")
	}
	if !sector.IsValid() {
		return Profile{}, dErrors.New(dErrors.CodeUnknownSector, "unknown sector: "+sector.String())
	}
	profile, err := s.profiles.FindByCustomerAndSector(ctx, customerID, sector)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Profile{CustomerID: customerID, Sector: sector}, nil
		}
		return Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "load condition profile")
	}
	return profile, nil
}
