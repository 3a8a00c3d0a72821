package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomassolanoprieto/subprice/internal/conditions"
	"github.com/tomassolanoprieto/subprice/internal/schema"
	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	dErrors "github.com/tomassolanoprieto/subprice/pkg/domain-errors"
	"github.com/tomassolanoprieto/subprice/pkg/platform/httputil"
	"github.com/tomassolanoprieto/subprice/pkg/requestcontext"
)

// Service defines the condition profile operations the handler exposes.
type Service interface {
	SetConditions(ctx context.Context, customerID id.CustomerID, sector id.Sector, conds []conditions.Condition) (conditions.Profile, error)
	GetProfile(ctx context.Context, customerID id.CustomerID, sector id.Sector) (conditions.Profile, error)
}

// Handler serves the customer's own condition profiles.
type Handler struct {
	conditions Service
	logger     *slog.Logger
}

func New(conditions Service, logger *slog.Logger) *Handler {
	return &Handler{conditions: conditions, logger: logger}
}

// Register mounts the condition profile routes under the authenticated
// customer scope.
func (h *Handler) Register(r chi.Router) {
	r.Put("/customers/me/conditions/{sector}", h.handleSetConditions)
	r.Get("/customers/me/conditions/{sector}", h.handleGetProfile)
}

type conditionPayload struct {
	Field      string  `json:"field"`
	Comparator string  `json:"comparator"`
	Threshold  float64 `json:"threshold"`
}

type setConditionsRequest struct {
	Conditions []conditionPayload `json:"conditions"`
}

type profileResponse struct {
	Sector     string             `json:"sector"`
	Conditions []conditionPayload `json:"conditions"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

func (h *Handler) handleSetConditions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID := requestcontext.CustomerID(ctx)

	sector, err := id.ParseSector(chi.URLParam(r, "sector"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[setConditionsRequest](w, r, h.logger)
	if !ok {
		return
	}

	conds := make([]conditions.Condition, 0, len(req.Conditions))
	for _, c := range req.Conditions {
		comparator, err := schema.ParseComparator(c.Comparator)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		conds = append(conds, conditions.Condition{
			Field:      c.Field,
			Comparator: comparator,
			Threshold:  c.Threshold,
		})
	}

	profile, err := h.conditions.SetConditions(ctx, customerID, sector, conds)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "set conditions failed",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID := requestcontext.CustomerID(ctx)

	sector, err := id.ParseSector(chi.URLParam(r, "sector"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	profile, err := h.conditions.GetProfile(ctx, customerID, sector)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProfileResponse(profile))
}

func toProfileResponse(profile conditions.Profile) profileResponse {
	conds := make([]conditionPayload, 0, len(profile.Conditions))
	for _, c := range profile.Conditions {
		conds = append(conds, conditionPayload{
			Field:      c.Field,
			Comparator: string(c.Comparator),
			Threshold:  c.Threshold,
		})
	}
	return profileResponse{
		Sector:     profile.Sector.String(),
		Conditions: conds,
		UpdatedAt:  profile.UpdatedAt,
	}
}
