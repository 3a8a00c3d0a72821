package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/tomassolanoprieto/subprice/internal/access"
	accesshandler "github.com/tomassolanoprieto/subprice/internal/access/handler"
	"github.com/tomassolanoprieto/subprice/internal/conditions"
	conditionshandler "github.com/tomassolanoprieto/subprice/internal/conditions/handler"
	"github.com/tomassolanoprieto/subprice/internal/demand"
	"github.com/tomassolanoprieto/subprice/internal/identity"
	jwttoken "github.com/tomassolanoprieto/subprice/internal/jwt_token"
	"github.com/tomassolanoprieto/subprice/internal/matching"
	matchinghandler "github.com/tomassolanoprieto/subprice/internal/matching/handler"
	"github.com/tomassolanoprieto/subprice/internal/offer"
	offerhandler "github.com/tomassolanoprieto/subprice/internal/offer/handler"
	"github.com/tomassolanoprieto/subprice/internal/profile"
	profilehandler "github.com/tomassolanoprieto/subprice/internal/profile/handler"
	id "github.com/tomassolanoprieto/subprice/pkg/domain"
)

// demandRefresher narrows the demand service to the conditions refresh hook.
type demandRefresher struct {
	demand *demand.Service
}

func (r demandRefresher) Refresh(ctx context.Context, customerID id.CustomerID, sector id.Sector) error {
	_, err := r.demand.Refresh(ctx, customerID, sector)
	return err
}

// RouterSuite drives the full marketplace flow through the HTTP surface
// with real in-memory components and real JWT validation.
type RouterSuite struct {
	suite.Suite
	router     http.Handler
	jwt        *jwttoken.JWTService
	providerID uuid.UUID
	customerID uuid.UUID
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	policies := access.NewInMemoryStore()
	records := demand.NewInMemoryStore()
	profiles := conditions.NewInMemoryStore()
	declared := profile.NewInMemoryStore()
	offers := offer.NewInMemoryStore()
	directory := identity.NewInMemoryDirectory()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	accessService := access.NewService(policies, logger, nil, nil)
	demandService := demand.NewService(records, directory, profile.NewAttributeSource(declared), logger)
	profileService := profile.NewService(declared, demandService, logger)
	conditionsService := conditions.NewService(profiles, demandRefresher{demandService}, logger)
	matchingService := matching.NewService(policies, records, logger, nil)
	offerService := offer.NewService(offers, policies, records, profiles, directory, nil, 72*time.Hour, logger, nil, nil)

	s.jwt = jwttoken.NewJWTService("router-test-key", "subprice", "subprice-api")

	s.router = NewRouter(Handlers{
		Matching:   matchinghandler.New(matchingService, logger),
		Access:     accesshandler.New(accessService, logger),
		Conditions: conditionshandler.New(conditionsService, logger),
		Profiles:   profilehandler.New(profileService, logger),
		Offers:     offerhandler.New(offerService, logger),
	}, jwttoken.NewJWTServiceAdapter(s.jwt), logger, nil)

	s.providerID = uuid.New()
	s.customerID = uuid.New()

	directory.RegisterContact(identity.CustomerContact{
		CustomerID: id.CustomerID(s.customerID),
		FullName:   "Marta Ruiz",
		Email:      "marta@example.com",
		Phone:      "+34600999888",
	})
}

func (s *RouterSuite) token(subject uuid.UUID, role string) string {
	token, err := s.jwt.GenerateAccessToken(subject, role, time.Hour)
	s.Require().NoError(err)
	return token
}

func (s *RouterSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RouterSuite) decode(rec *httptest.ResponseRecorder, into any) {
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(into))
}

// seedMarketplace walks the admin and customer setup steps over HTTP.
func (s *RouterSuite) seedMarketplace() {
	admin := s.token(uuid.New(), "admin")
	rec := s.do(http.MethodPut, "/api/providers/"+s.providerID.String()+"/access", admin, map[string]any{
		"sectors":        []string{"energy"},
		"entitledFields": map[string][]string{"energy": {"consumption", "renewablePercentage"}},
		"regions":        []string{"Madrid"},
		"validFrom":      time.Now().Add(-time.Hour).Format(time.RFC3339),
		"validUntil":     time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	customer := s.token(s.customerID, "customer")
	rec = s.do(http.MethodPut, "/api/customers/me/profile/energy", customer, map[string]any{
		"region":                "Madrid",
		"currentProviderId":     "endesa",
		"desiredSavingsPercent": 20,
		"maxContractMonths":     12,
		"lastBillAmount":        95,
		"values":                map[string]float64{"consumption": 310, "renewablePercentage": 55},
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPut, "/api/customers/me/conditions/energy", customer, map[string]any{
		"conditions": []map[string]any{
			{"field": "renewablePercentage", "comparator": "minimum", "threshold": 50},
		},
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
}

func (s *RouterSuite) searchResults(rec *httptest.ResponseRecorder) []map[string]any {
	var body struct {
		Results []map[string]any `json:"results"`
	}
	s.decode(rec, &body)
	return body.Results
}

func (s *RouterSuite) TestAuthGates() {
	s.Run("no token is unauthorized", func() {
		rec := s.do(http.MethodGet, "/api/search?sector=energy", "", nil)
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("customer cannot search", func() {
		rec := s.do(http.MethodGet, "/api/search?sector=energy", s.token(s.customerID, "customer"), nil)
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("provider cannot update entitlements", func() {
		rec := s.do(http.MethodPut, "/api/providers/"+s.providerID.String()+"/access",
			s.token(s.providerID, "provider"), map[string]any{})
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("health endpoint needs no token", func() {
		rec := s.do(http.MethodGet, "/healthz", "", nil)
		s.Equal(http.StatusOK, rec.Code)
	})
}

func (s *RouterSuite) TestSearchFlow() {
	s.seedMarketplace()
	provider := s.token(s.providerID, "provider")

	s.Run("search returns the redacted record", func() {
		rec := s.do(http.MethodGet, "/api/search?sector=energy&consumption_min=300", provider, nil)
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

		results := s.searchResults(rec)
		s.Require().Len(results, 1)
		s.NotEmpty(results[0]["anonymousId"])

		values := results[0]["values"].(map[string]any)
		s.Contains(values, "consumption")
		s.Contains(values, "renewablePercentage")
	})

	s.Run("unentitled filter is rejected naming the field", func() {
		rec := s.do(http.MethodGet, "/api/search?sector=energy&powerCapacity_min=3", provider, nil)
		s.Require().Equal(http.StatusBadRequest, rec.Code)
		s.Contains(rec.Body.String(), "powerCapacity")
		s.Contains(rec.Body.String(), "filter_not_entitled")
	})

	s.Run("unsubscribed sector yields an empty result", func() {
		rec := s.do(http.MethodGet, "/api/search?sector=communications", provider, nil)
		s.Require().Equal(http.StatusOK, rec.Code)
		s.Empty(s.searchResults(rec))
	})
}

func (s *RouterSuite) TestOfferFlow() {
	s.seedMarketplace()
	provider := s.token(s.providerID, "provider")
	customer := s.token(s.customerID, "customer")

	rec := s.do(http.MethodGet, "/api/search?sector=energy", provider, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	results := s.searchResults(rec)
	s.Require().Len(results, 1)
	anonymousID := results[0]["anonymousId"].(string)

	var offerID string
	s.Run("qualified offer", func() {
		rec := s.do(http.MethodPost, "/api/offers", provider, map[string]any{
			"anonymousId":   anonymousID,
			"sector":        "energy",
			"proposed":      map[string]float64{"renewablePercentage": 80, "consumption": 310},
			"monthlyAmount": 42.50,
		})
		s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
		var body map[string]any
		s.decode(rec, &body)
		s.Equal("qualified", body["status"])
		s.InDelta(42.50, body["monthlyAmount"].(float64), 0.0001)
		offerID = body["id"].(string)
	})

	s.Run("disqualified offer names the failing field", func() {
		rec := s.do(http.MethodPost, "/api/offers", provider, map[string]any{
			"anonymousId":   anonymousID,
			"sector":        "energy",
			"proposed":      map[string]float64{"renewablePercentage": 30},
			"monthlyAmount": 39.90,
		})
		s.Require().Equal(http.StatusCreated, rec.Code)
		var body map[string]any
		s.decode(rec, &body)
		s.Equal("disqualified", body["status"])
		s.Equal([]any{"renewablePercentage"}, body["failedFields"])
	})

	s.Run("customer accepts and identity is revealed", func() {
		rec := s.do(http.MethodPost, "/api/offers/"+offerID+"/accept", customer, nil)
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
		var body struct {
			Offer   map[string]any `json:"offer"`
			Contact map[string]any `json:"contact"`
		}
		s.decode(rec, &body)
		s.Equal("accepted", body.Offer["status"])
		s.Equal("Marta Ruiz", body.Contact["fullName"])
	})

	s.Run("second decision conflicts", func() {
		rec := s.do(http.MethodPost, "/api/offers/"+offerID+"/reject", customer, nil)
		s.Require().Equal(http.StatusConflict, rec.Code)
		s.Contains(rec.Body.String(), "invalid_transition")
	})
}
