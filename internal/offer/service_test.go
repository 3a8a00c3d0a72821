package offer

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/tomassolanoprieto/subprice/internal/access"
	"github.com/tomassolanoprieto/subprice/internal/conditions"
	"github.com/tomassolanoprieto/subprice/internal/demand"
	"github.com/tomassolanoprieto/subprice/internal/identity"
	"github.com/tomassolanoprieto/subprice/internal/schema"
	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	dErrors "github.com/tomassolanoprieto/subprice/pkg/domain-errors"
	"github.com/tomassolanoprieto/subprice/pkg/requestcontext"
)

type fakeNotifier struct {
	notified []Offer
	err      error
}

func (f *fakeNotifier) NotifyQualified(_ context.Context, o Offer) error {
	f.notified = append(f.notified, o)
	return f.err
}

type OfferServiceSuite struct {
	suite.Suite
	offers     *InMemoryStore
	policies   *access.InMemoryStore
	records    *demand.InMemoryStore
	profiles   *conditions.InMemoryStore
	directory  *identity.InMemoryDirectory
	notifier   *fakeNotifier
	service    *Service
	ctx        context.Context
	now        time.Time
	providerID id.ProviderID
	customerID id.CustomerID
	anonID     id.AnonymousID
}

func TestOfferServiceSuite(t *testing.T) {
	suite.Run(t, new(OfferServiceSuite))
}

const offerValidity = 72 * time.Hour

func (s *OfferServiceSuite) SetupTest() {
	s.offers = NewInMemoryStore()
	s.policies = access.NewInMemoryStore()
	s.records = demand.NewInMemoryStore()
	s.profiles = conditions.NewInMemoryStore()
	s.directory = identity.NewInMemoryDirectory()
	s.notifier = &fakeNotifier{}
	s.service = NewService(s.offers, s.policies, s.records, s.profiles, s.directory, s.notifier, offerValidity, nil, nil, nil)

	s.now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.providerID = id.ProviderID(uuid.New())
	s.customerID = id.CustomerID(uuid.New())

	s.Require().NoError(s.policies.Save(context.Background(), access.Policy{
		ProviderID: s.providerID,
		Sectors:    []id.Sector{id.SectorEnergy},
		EntitledFields: map[id.Sector][]string{
			id.SectorEnergy: {"consumption", "renewablePercentage"},
		},
		Regions:    []string{"Madrid"},
		ValidFrom:  s.now.AddDate(0, -1, 0),
		ValidUntil: s.now.AddDate(0, 1, 0),
	}))

	s.directory.RegisterContact(identity.CustomerContact{
		CustomerID: s.customerID,
		FullName:   "Lucia Fernandez",
		Email:      "lucia@example.com",
		Phone:      "+34600111222",
	})
	anonID, err := s.directory.Assign(context.Background(), s.customerID, id.SectorEnergy)
	s.Require().NoError(err)
	s.anonID = anonID

	s.Require().NoError(s.records.Upsert(context.Background(), demand.Record{
		AnonymousID:       s.anonID,
		Sector:            id.SectorEnergy,
		Region:            "Madrid",
		CurrentProviderID: "iberdrola",
		Values:            map[string]float64{"consumption": 250, "renewablePercentage": 40},
	}))
}

func (s *OfferServiceSuite) setConditions(conds ...conditions.Condition) {
	s.Require().NoError(s.profiles.Save(context.Background(), conditions.Profile{
		CustomerID: s.customerID,
		Sector:     id.SectorEnergy,
		Conditions: conds,
	}))
}

func (s *OfferServiceSuite) submit(proposed map[string]float64) (Offer, error) {
	return s.service.Submit(s.ctx, s.providerID, SubmitRequest{
		AnonymousID:   s.anonID,
		Sector:        id.SectorEnergy,
		Proposed:      proposed,
		MonthlyAmount: 49.90,
	})
}

func (s *OfferServiceSuite) TestSubmit() {
	s.Run("qualified when conditions met, customer notified", func() {
		s.SetupTest()
		s.setConditions(conditions.Condition{Field: "renewablePercentage", Comparator: schema.ComparatorMinimum, Threshold: 50})

		o, err := s.submit(map[string]float64{"renewablePercentage": 75})
		s.Require().NoError(err)
		s.Equal(StatusQualified, o.Status)
		s.Empty(o.FailedFields)
		s.Equal(s.now.Add(offerValidity), o.ExpiresAt)
		s.Require().Len(s.notifier.notified, 1)
		s.Equal(o.ID, s.notifier.notified[0].ID)
	})

	s.Run("disqualified names failing fields, no notification", func() {
		s.SetupTest()
		s.setConditions(conditions.Condition{Field: "renewablePercentage", Comparator: schema.ComparatorMinimum, Threshold: 50})

		o, err := s.submit(map[string]float64{"renewablePercentage": 30})
		s.Require().NoError(err)
		s.Equal(StatusDisqualified, o.Status)
		s.Equal([]string{"renewablePercentage"}, o.FailedFields)
		s.Empty(s.notifier.notified)
	})

	s.Run("no conditions auto-qualifies", func() {
		s.SetupTest()
		o, err := s.submit(map[string]float64{"consumption": 200})
		s.Require().NoError(err)
		s.Equal(StatusQualified, o.Status)
	})

	s.Run("notification failure does not fail submission", func() {
		s.SetupTest()
		s.notifier.err = context.DeadlineExceeded
		o, err := s.submit(map[string]float64{"consumption": 200})
		s.Require().NoError(err)
		s.Equal(StatusQualified, o.Status)
	})

	s.Run("missing monthly amount rejected", func() {
		s.SetupTest()
		_, err := s.service.Submit(s.ctx, s.providerID, SubmitRequest{
			AnonymousID: s.anonID,
			Sector:      id.SectorEnergy,
			Proposed:    map[string]float64{"consumption": 200},
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("unsubscribed sector forbidden", func() {
		s.SetupTest()
		_, err := s.service.Submit(s.ctx, s.providerID, SubmitRequest{
			AnonymousID:   s.anonID,
			Sector:        id.SectorCommunications,
			Proposed:      map[string]float64{"mobileLines": 2},
			MonthlyAmount: 25,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("expired subscription forbidden", func() {
		s.SetupTest()
		ctx := requestcontext.WithTime(context.Background(), s.now.AddDate(1, 0, 0))
		_, err := s.service.Submit(ctx, s.providerID, SubmitRequest{
			AnonymousID:   s.anonID,
			Sector:        id.SectorEnergy,
			Proposed:      map[string]float64{"consumption": 200},
			MonthlyAmount: 49.90,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("record outside coverage reads as missing", func() {
		s.SetupTest()
		s.Require().NoError(s.records.Upsert(context.Background(), demand.Record{
			AnonymousID: s.anonID,
			Sector:      id.SectorEnergy,
			Region:      "Sevilla",
			Values:      map[string]float64{"consumption": 250},
		}))
		_, err := s.submit(map[string]float64{"consumption": 200})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown proposed field rejected", func() {
		s.SetupTest()
		_, err := s.submit(map[string]float64{"mobileLines": 2})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidFieldReference))
	})
}

func (s *OfferServiceSuite) TestAccept() {
	s.Run("accepting a qualified offer reveals contact", func() {
		s.SetupTest()
		o, err := s.submit(map[string]float64{"consumption": 200})
		s.Require().NoError(err)

		result, err := s.service.Accept(s.ctx, s.customerID, o.ID)
		s.Require().NoError(err)
		s.Equal(StatusAccepted, result.Offer.Status)
		s.Equal("Lucia Fernandez", result.Contact.FullName)
		s.Equal("lucia@example.com", result.Contact.Email)
		s.Require().NotNil(result.Offer.DecidedAt)
		s.Equal(o.Version+1, result.Offer.Version)
	})

	s.Run("accepting a disqualified offer is an invalid transition", func() {
		s.SetupTest()
		s.setConditions(conditions.Condition{Field: "renewablePercentage", Comparator: schema.ComparatorMinimum, Threshold: 50})
		o, err := s.submit(map[string]float64{"renewablePercentage": 10})
		s.Require().NoError(err)
		s.Require().Equal(StatusDisqualified, o.Status)

		_, err = s.service.Accept(s.ctx, s.customerID, o.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("accepting twice conflicts on the second decision", func() {
		s.SetupTest()
		o, err := s.submit(map[string]float64{"consumption": 200})
		s.Require().NoError(err)

		_, err = s.service.Accept(s.ctx, s.customerID, o.ID)
		s.Require().NoError(err)
		_, err = s.service.Accept(s.ctx, s.customerID, o.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("accepting past the validity window expires the offer", func() {
		s.SetupTest()
		o, err := s.submit(map[string]float64{"consumption": 200})
		s.Require().NoError(err)

		late := requestcontext.WithTime(context.Background(), s.now.Add(offerValidity+time.Hour))
		_, err = s.service.Accept(late, s.customerID, o.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

		stored, err := s.offers.FindByID(context.Background(), o.ID)
		s.Require().NoError(err)
		s.Equal(StatusExpired, stored.Status)
	})

	s.Run("another customer's offer reads as missing", func() {
		s.SetupTest()
		o, err := s.submit(map[string]float64{"consumption": 200})
		s.Require().NoError(err)

		_, err = s.service.Accept(s.ctx, id.CustomerID(uuid.New()), o.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		stored, err := s.offers.FindByID(context.Background(), o.ID)
		s.Require().NoError(err)
		s.Equal(StatusQualified, stored.Status)
	})
}

func (s *OfferServiceSuite) TestReject() {
	s.Run("rejecting a qualified offer", func() {
		s.SetupTest()
		o, err := s.submit(map[string]float64{"consumption": 200})
		s.Require().NoError(err)

		updated, err := s.service.Reject(s.ctx, s.customerID, o.ID)
		s.Require().NoError(err)
		s.Equal(StatusRejected, updated.Status)
	})

	s.Run("rejecting an accepted offer is an invalid transition", func() {
		s.SetupTest()
		o, err := s.submit(map[string]float64{"consumption": 200})
		s.Require().NoError(err)
		_, err = s.service.Accept(s.ctx, s.customerID, o.ID)
		s.Require().NoError(err)

		_, err = s.service.Reject(s.ctx, s.customerID, o.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

func (s *OfferServiceSuite) TestListing() {
	s.SetupTest()
	first, err := s.submit(map[string]float64{"consumption": 200})
	s.Require().NoError(err)

	s.Run("provider sees own offer", func() {
		o, err := s.service.GetForProvider(s.ctx, s.providerID, first.ID)
		s.Require().NoError(err)
		s.Equal(first.ID, o.ID)
	})

	s.Run("foreign provider reads it as missing", func() {
		_, err := s.service.GetForProvider(s.ctx, id.ProviderID(uuid.New()), first.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("customer lists offers for the sector", func() {
		offers, err := s.service.ListForCustomer(s.ctx, s.customerID, id.SectorEnergy)
		s.Require().NoError(err)
		s.Require().Len(offers, 1)
		s.Equal(first.ID, offers[0].ID)
	})
}
