package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomassolanoprieto/subprice/internal/demand"
	"github.com/tomassolanoprieto/subprice/internal/profile"
	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	dErrors "github.com/tomassolanoprieto/subprice/pkg/domain-errors"
	"github.com/tomassolanoprieto/subprice/pkg/platform/httputil"
	"github.com/tomassolanoprieto/subprice/pkg/requestcontext"
)

// Service defines the declared profile operations the handler exposes.
type Service interface {
	SetProfile(ctx context.Context, customerID id.CustomerID, sector id.Sector, attrs demand.Attributes) (profile.Profile, error)
	GetProfile(ctx context.Context, customerID id.CustomerID, sector id.Sector) (profile.Profile, error)
	DeleteProfile(ctx context.Context, customerID id.CustomerID, sector id.Sector) error
}

// Handler serves the customer's own declared contract data.
type Handler struct {
	profiles Service
	logger   *slog.Logger
}

func New(profiles Service, logger *slog.Logger) *Handler {
	return &Handler{profiles: profiles, logger: logger}
}

// Register mounts the profile routes under the authenticated customer scope.
func (h *Handler) Register(r chi.Router) {
	r.Put("/customers/me/profile/{sector}", h.handleSetProfile)
	r.Get("/customers/me/profile/{sector}", h.handleGetProfile)
	r.Delete("/customers/me/profile/{sector}", h.handleDeleteProfile)
}

type profileRequest struct {
	Region                string             `json:"region"`
	CurrentProviderID     string             `json:"currentProviderId"`
	DesiredSavingsPercent float64            `json:"desiredSavingsPercent"`
	MaxContractMonths     float64            `json:"maxContractMonths"`
	LastBillAmount        float64            `json:"lastBillAmount"`
	Values                map[string]float64 `json:"values"`
}

type profileResponse struct {
	Sector string `json:"sector"`
	profileRequest
	UpdatedAt time.Time `json:"updatedAt"`
}

func (h *Handler) handleSetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID := requestcontext.CustomerID(ctx)

	sector, err := id.ParseSector(chi.URLParam(r, "sector"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[profileRequest](w, r, h.logger)
	if !ok {
		return
	}

	p, err := h.profiles.SetProfile(ctx, customerID, sector, demand.Attributes{
		Region:                req.Region,
		CurrentProviderID:     req.CurrentProviderID,
		DesiredSavingsPercent: req.DesiredSavingsPercent,
		MaxContractMonths:     req.MaxContractMonths,
		LastBillAmount:        req.LastBillAmount,
		Values:                req.Values,
	})
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "profile update failed",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProfileResponse(p))
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sector, err := id.ParseSector(chi.URLParam(r, "sector"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.profiles.GetProfile(ctx, requestcontext.CustomerID(ctx), sector)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProfileResponse(p))
}

func (h *Handler) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sector, err := id.ParseSector(chi.URLParam(r, "sector"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.profiles.DeleteProfile(ctx, requestcontext.CustomerID(ctx), sector); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toProfileResponse(p profile.Profile) profileResponse {
	return profileResponse{
		Sector: p.Sector.String(),
		profileRequest: profileRequest{
			Region:                p.Attributes.Region,
			CurrentProviderID:     p.Attributes.CurrentProviderID,
			DesiredSavingsPercent: p.Attributes.DesiredSavingsPercent,
			MaxContractMonths:     p.Attributes.MaxContractMonths,
			LastBillAmount:        p.Attributes.LastBillAmount,
			Values:                p.Attributes.Values,
		},
		UpdatedAt: p.UpdatedAt,
	}
}
