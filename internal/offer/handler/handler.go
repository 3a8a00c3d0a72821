package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomassolanoprieto/subprice/internal/offer"
	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	dErrors "github.com/tomassolanoprieto/subprice/pkg/domain-errors"
	"github.com/tomassolanoprieto/subprice/pkg/platform/httputil"
	"github.com/tomassolanoprieto/subprice/pkg/requestcontext"
)

// Service defines the offer lifecycle operations the handler exposes.
type Service interface {
	Submit(ctx context.Context, providerID id.ProviderID, req offer.SubmitRequest) (offer.Offer, error)
	Accept(ctx context.Context, customerID id.CustomerID, offerID id.OfferID) (offer.AcceptResult, error)
	Reject(ctx context.Context, customerID id.CustomerID, offerID id.OfferID) (offer.Offer, error)
	GetForProvider(ctx context.Context, providerID id.ProviderID, offerID id.OfferID) (offer.Offer, error)
	ListForProvider(ctx context.Context, providerID id.ProviderID) ([]offer.Offer, error)
	ListForCustomer(ctx context.Context, customerID id.CustomerID, sector id.Sector) ([]offer.Offer, error)
}

// Handler serves offer submission and customer decisions.
type Handler struct {
	offers Service
	logger *slog.Logger
}

func New(offers Service, logger *slog.Logger) *Handler {
	return &Handler{offers: offers, logger: logger}
}

// Register mounts the offer routes on role-scoped routers.
func (h *Handler) Register(provider, customer chi.Router) {
	provider.Post("/offers", h.handleSubmit)
	provider.Get("/offers", h.handleListForProvider)
	provider.Get("/offers/{offerID}", h.handleGetForProvider)

	customer.Get("/customers/me/offers", h.handleListForCustomer)
	customer.Post("/offers/{offerID}/accept", h.handleAccept)
	customer.Post("/offers/{offerID}/reject", h.handleReject)
}

type submitRequest struct {
	AnonymousID   string             `json:"anonymousId"`
	Sector        string             `json:"sector"`
	Proposed      map[string]float64 `json:"proposed"`
	MonthlyAmount float64            `json:"monthlyAmount"`
}

type offerResponse struct {
	ID            string             `json:"id"`
	AnonymousID   string             `json:"anonymousId"`
	Sector        string             `json:"sector"`
	Proposed      map[string]float64 `json:"proposed"`
	MonthlyAmount float64            `json:"monthlyAmount"`
	Status        string             `json:"status"`
	FailedFields  []string           `json:"failedFields,omitempty"`
	SubmittedAt   time.Time          `json:"submittedAt"`
	ExpiresAt     time.Time          `json:"expiresAt"`
	DecidedAt     *time.Time         `json:"decidedAt,omitempty"`
}

type contactResponse struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type acceptResponse struct {
	Offer   offerResponse   `json:"offer"`
	Contact contactResponse `json:"contact"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	providerID := requestcontext.ProviderID(ctx)

	req, ok := httputil.Decode[submitRequest](w, r, h.logger)
	if !ok {
		return
	}

	o, err := h.offers.Submit(ctx, providerID, offer.SubmitRequest{
		AnonymousID:   id.AnonymousID(req.AnonymousID),
		Sector:        id.Sector(req.Sector),
		Proposed:      req.Proposed,
		MonthlyAmount: req.MonthlyAmount,
	})
	if err != nil {
		h.writeServiceError(ctx, w, "offer submission failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toOfferResponse(o))
}

func (h *Handler) handleGetForProvider(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	offerID, err := id.ParseOfferID(chi.URLParam(r, "offerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	o, err := h.offers.GetForProvider(ctx, requestcontext.ProviderID(ctx), offerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toOfferResponse(o))
}

func (h *Handler) handleListForProvider(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	offers, err := h.offers.ListForProvider(ctx, requestcontext.ProviderID(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, "offer listing failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"offers": toOfferResponses(offers)})
}

func (h *Handler) handleListForCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sector, err := id.ParseSector(r.URL.Query().Get("sector"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	offers, err := h.offers.ListForCustomer(ctx, requestcontext.CustomerID(ctx), sector)
	if err != nil {
		h.writeServiceError(ctx, w, "offer listing failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"offers": toOfferResponses(offers)})
}

func (h *Handler) handleAccept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	offerID, err := id.ParseOfferID(chi.URLParam(r, "offerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.offers.Accept(ctx, requestcontext.CustomerID(ctx), offerID)
	if err != nil {
		h.writeServiceError(ctx, w, "offer acceptance failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, acceptResponse{
		Offer: toOfferResponse(result.Offer),
		Contact: contactResponse{
			FullName: result.Contact.FullName,
			Email:    result.Contact.Email,
			Phone:    result.Contact.Phone,
		},
	})
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	offerID, err := id.ParseOfferID(chi.URLParam(r, "offerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	o, err := h.offers.Reject(ctx, requestcontext.CustomerID(ctx), offerID)
	if err != nil {
		h.writeServiceError(ctx, w, "offer rejection failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toOfferResponse(o))
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, message string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, message,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}

// toOfferResponse omits the provider ID on purpose: providers already know
// it and customers never learn which provider is probing until they hold a
// qualified offer, where it arrives through the notification channel.
func toOfferResponse(o offer.Offer) offerResponse {
	return offerResponse{
		ID:            o.ID.String(),
		AnonymousID:   string(o.AnonymousID),
		Sector:        o.Sector.String(),
		Proposed:      o.Proposed,
		MonthlyAmount: o.MonthlyAmount,
		Status:        string(o.Status),
		FailedFields:  o.FailedFields,
		SubmittedAt:   o.SubmittedAt,
		ExpiresAt:     o.ExpiresAt,
		DecidedAt:     o.DecidedAt,
	}
}

func toOfferResponses(offers []offer.Offer) []offerResponse {
	out := make([]offerResponse, 0, len(offers))
	for _, o := range offers {
		out = append(out, toOfferResponse(o))
	}
	return out
}
