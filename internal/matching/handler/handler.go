package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomassolanoprieto/subprice/internal/demand"
	"github.com/tomassolanoprieto/subprice/internal/matching"
	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	dErrors "github.com/tomassolanoprieto/subprice/pkg/domain-errors"
	"github.com/tomassolanoprieto/subprice/pkg/platform/httputil"
	"github.com/tomassolanoprieto/subprice/pkg/requestcontext"
)

// Service defines the search operation the handler exposes.
type Service interface {
	Search(ctx context.Context, providerID id.ProviderID, query matching.Query, at time.Time) ([]demand.Record, error)
}

// Handler serves the provider search endpoint.
type Handler struct {
	matching Service
	logger   *slog.Logger
}

func New(matching Service, logger *slog.Logger) *Handler {
	return &Handler{matching: matching, logger: logger}
}

// Register mounts the search route. Caller wraps it in auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Get("/search", h.handleSearch)
}

// recordResponse is the wire shape of one redacted demand record.
type recordResponse struct {
	AnonymousID           string             `json:"anonymousId"`
	Sector                string             `json:"sector"`
	Region                string             `json:"region"`
	CurrentProviderID     string             `json:"currentProviderId"`
	DesiredSavingsPercent float64            `json:"desiredSavingsPercent"`
	MaxContractMonths     float64            `json:"maxContractMonths"`
	LastBillAmount        float64            `json:"lastBillAmount"`
	Values                map[string]float64 `json:"values"`
	GeneratedAt           time.Time          `json:"generatedAt"`
}

// handleSearch runs an entitlement-checked search over anonymized demand.
//
// Range filters arrive as <field>_min and <field>_max query parameters, for
// example consumption_min=200&consumption_max=400.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	providerID := requestcontext.ProviderID(ctx)

	query, err := parseQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	records, err := h.matching.Search(ctx, providerID, query, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "search failed",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	out := make([]recordResponse, 0, len(records))
	for _, record := range records {
		out = append(out, recordResponse{
			AnonymousID:           string(record.AnonymousID),
			Sector:                record.Sector.String(),
			Region:                record.Region,
			CurrentProviderID:     record.CurrentProviderID,
			DesiredSavingsPercent: record.DesiredSavingsPercent,
			MaxContractMonths:     record.MaxContractMonths,
			LastBillAmount:        record.LastBillAmount,
			Values:                record.Values,
			GeneratedAt:           record.GeneratedAt,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"results": out})
}

func parseQuery(r *http.Request) (matching.Query, error) {
	params := r.URL.Query()

	sector, err := id.ParseSector(params.Get("sector"))
	if err != nil {
		return matching.Query{}, err
	}

	query := matching.Query{
		Sector:            sector,
		Region:            params.Get("region"),
		CurrentProviderID: params.Get("currentProviderId"),
		Fields:            map[string]matching.Range{},
	}

	for key, values := range params {
		field, bound, ok := splitRangeParam(key)
		if !ok || len(values) == 0 {
			continue
		}
		limit, err := strconv.ParseFloat(values[0], 64)
		if err != nil {
			return matching.Query{}, dErrors.New(dErrors.CodeBadRequest, "not a number: "+key)
		}
		rng := query.Fields[field]
		if bound == "min" {
			rng.Min = &limit
		} else {
			rng.Max = &limit
		}
		query.Fields[field] = rng
	}
	return query, nil
}

func splitRangeParam(key string) (field, bound string, ok bool) {
	if f, found := strings.CutSuffix(key, "_min"); found {
		return f, "min", true
	}
	if f, found := strings.CutSuffix(key, "_max"); found {
		return f, "max", true
	}
	return "", "", false
}
