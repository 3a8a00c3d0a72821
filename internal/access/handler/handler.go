package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomassolanoprieto/subprice/internal/access"
	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	dErrors "github.com/tomassolanoprieto/subprice/pkg/domain-errors"
	"github.com/tomassolanoprieto/subprice/pkg/platform/httputil"
	"github.com/tomassolanoprieto/subprice/pkg/requestcontext"
)

// Service defines the policy operations the handler exposes.
type Service interface {
	GetPolicy(ctx context.Context, providerID id.ProviderID) (access.Policy, error)
	UpdateEntitlements(ctx context.Context, providerID id.ProviderID, update access.EntitlementUpdate) (access.Policy, error)
}

// Handler serves access policy administration.
type Handler struct {
	access Service
	logger *slog.Logger
}

func New(access Service, logger *slog.Logger) *Handler {
	return &Handler{access: access, logger: logger}
}

// Register mounts the policy routes. The read route is open to the provider
// itself and admins; writes are wired admin-only by the router.
func (h *Handler) Register(read, write chi.Router) {
	read.Get("/providers/{providerID}/access", h.handleGetPolicy)
	write.Put("/providers/{providerID}/access", h.handleUpdateEntitlements)
}

type entitlementUpdateRequest struct {
	Sectors        []string            `json:"sectors"`
	EntitledFields map[string][]string `json:"entitledFields"`
	Regions        []string            `json:"regions"`
	ValidFrom      time.Time           `json:"validFrom"`
	ValidUntil     time.Time           `json:"validUntil"`
}

type policyResponse struct {
	ProviderID     string              `json:"providerId"`
	Sectors        []string            `json:"sectors"`
	EntitledFields map[string][]string `json:"entitledFields"`
	Regions        []string            `json:"regions"`
	ValidFrom      time.Time           `json:"validFrom"`
	ValidUntil     time.Time           `json:"validUntil"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

func (h *Handler) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	providerID, err := id.ParseProviderID(chi.URLParam(r, "providerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	// Providers may only read their own policy; admins read any.
	if requestcontext.RoleOf(ctx) == requestcontext.RoleProvider && requestcontext.ProviderID(ctx) != providerID {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "policy belongs to another provider"))
		return
	}

	policy, err := h.access.GetPolicy(ctx, providerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPolicyResponse(policy))
}

func (h *Handler) handleUpdateEntitlements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	providerID, err := id.ParseProviderID(chi.URLParam(r, "providerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.Decode[entitlementUpdateRequest](w, r, h.logger)
	if !ok {
		return
	}

	policy, err := h.access.UpdateEntitlements(ctx, providerID, toUpdate(req))
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "entitlement update failed",
				"error", err,
				"provider_id", providerID.String(),
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPolicyResponse(policy))
}

func toUpdate(req entitlementUpdateRequest) access.EntitlementUpdate {
	sectors := make([]id.Sector, 0, len(req.Sectors))
	for _, s := range req.Sectors {
		sectors = append(sectors, id.Sector(s))
	}
	fields := make(map[id.Sector][]string, len(req.EntitledFields))
	for s, names := range req.EntitledFields {
		fields[id.Sector(s)] = names
	}
	return access.EntitlementUpdate{
		Sectors:        sectors,
		EntitledFields: fields,
		Regions:        req.Regions,
		ValidFrom:      req.ValidFrom,
		ValidUntil:     req.ValidUntil,
	}
}

func toPolicyResponse(policy access.Policy) policyResponse {
	sectors := make([]string, 0, len(policy.Sectors))
	for _, s := range policy.Sectors {
		sectors = append(sectors, s.String())
	}
	fields := make(map[string][]string, len(policy.EntitledFields))
	for s, names := range policy.EntitledFields {
		fields[s.String()] = names
	}
	return policyResponse{
		ProviderID:     policy.ProviderID.String(),
		Sectors:        sectors,
		EntitledFields: fields,
		Regions:        policy.Regions,
		ValidFrom:      policy.ValidFrom,
		ValidUntil:     policy.ValidUntil,
		UpdatedAt:      policy.UpdatedAt,
	}
}
