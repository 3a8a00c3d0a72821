package demand

import (
	"context"
	"log/slog"

	"github.com/tomassolanoprieto/subprice/internal/identity"
	"github.com/tomassolanoprieto/subprice/internal/schema"
	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	dErrors "github.com/tomassolanoprieto/subprice/pkg/domain-errors"
	"github.com/tomassolanoprieto/subprice/pkg/requestcontext"
)

// Attributes are the raw profile values a customer exposes for matching,
// supplied by the profile source collaborator (bill parsing, onboarding
// forms). The core validates them against the registry but does not own
// where they come from.
type Attributes struct {
	Region                string
	CurrentProviderID     string
	DesiredSavingsPercent float64
	MaxContractMonths     float64
	LastBillAmount        float64
	Values                map[string]float64
}

// ProfileSource loads a customer's declared attributes for one sector.
type ProfileSource interface {
	LoadAttributes(ctx context.Context, customerID id.CustomerID, sector id.Sector) (Attributes, error)
}

// Service regenerates anonymized demand records from customer profiles.
// Records are a derived projection: the only write path is Refresh, driven
// by profile or condition changes.
type Service struct {
	store     Store
	directory identity.Directory
	profiles  ProfileSource
	logger    *slog.Logger
}

func NewService(store Store, directory identity.Directory, profiles ProfileSource, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		directory: directory,
		profiles:  profiles,
		logger:    logger,
	}
}

// Refresh rebuilds the customer's demand record for a sector from the
// current profile attributes. The anonymous ID is stable across refreshes.
func (s *Service) Refresh(ctx context.Context, customerID id.CustomerID, sector id.Sector) (Record, error) {
	sectorSchema, err := schema.SchemaFor(sector)
	if err != nil {
		return Record{}, err
	}

	attrs, err := s.profiles.LoadAttributes(ctx, customerID, sector)
	if err != nil {
		return Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "load profile attributes")
	}
	if err := validateAttributes(sectorSchema, attrs); err != nil {
		return Record{}, err
	}

	anonymousID, err := s.directory.Assign(ctx, customerID, sector)
	if err != nil {
		return Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "assign anonymous id")
	}

	record := Record{
		AnonymousID:           anonymousID,
		Sector:                sector,
		Region:                attrs.Region,
		CurrentProviderID:     attrs.CurrentProviderID,
		DesiredSavingsPercent: attrs.DesiredSavingsPercent,
		MaxContractMonths:     attrs.MaxContractMonths,
		LastBillAmount:        attrs.LastBillAmount,
		Values:                copyValues(attrs.Values),
		GeneratedAt:           requestcontext.Now(ctx).UTC(),
	}

	if err := s.store.Upsert(ctx, record); err != nil {
		return Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "store demand record")
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "demand record refreshed",
			"anonymous_id", string(anonymousID),
			"sector", sector.String(),
		)
	}
	return record, nil
}

// Withdraw removes the customer's record for a sector from matching.
func (s *Service) Withdraw(ctx context.Context, customerID id.CustomerID, sector id.Sector) error {
	anonymousID, err := s.directory.Assign(ctx, customerID, sector)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "assign anonymous id")
	}
	if err := s.store.Delete(ctx, anonymousID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete demand record")
	}
	return nil
}

func validateAttributes(sectorSchema schema.Schema, attrs Attributes) error {
	if attrs.Region == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "region is required")
	}
	for field := range attrs.Values {
		if _, ok := sectorSchema.Field(field); !ok {
			return dErrors.New(dErrors.CodeInvalidFieldReference,
				"field not in "+sectorSchema.Sector.String()+" schema: "+field)
		}
	}
	return nil
}

func copyValues(values map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}
