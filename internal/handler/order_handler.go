package handler

import (
	"net/http"

	"order-composer/internal/model"
	"order-composer/internal/service"

	"github.com/rs/zerolog"
)

// OrderHandler handles order-level HTTP requests.
type OrderHandler struct {
	items      service.OrderItemService
	activation service.ActivationService
	logger     zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(items service.OrderItemService, activation service.ActivationService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		items:      items,
		activation: activation,
		logger:     logger.With().Str("handler", "order").Logger(),
	}
}

// Provision handles POST /api/orders requests. Without an orderId a Draft
// order is created for the given price book.
func (h *OrderHandler) Provision(w http.ResponseWriter, r *http.Request) {
	var req model.ProvisionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	result, err := h.items.Provision(r.Context(), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// GetSummary handles GET /api/orders/{orderID} requests.
func (h *OrderHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	orderID, err := orderIDParam(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	summary, err := h.items.Summary(r.Context(), orderID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// CanActivate handles GET /api/orders/{orderID}/activation requests.
func (h *OrderHandler) CanActivate(w http.ResponseWriter, r *http.Request) {
	orderID, err := orderIDParam(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	ok, err := h.activation.CanActivate(r.Context(), orderID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.ActivationResponse{OrderID: orderID, CanActivate: ok})
}

// Activate handles POST /api/orders/{orderID}/activate requests.
func (h *OrderHandler) Activate(w http.ResponseWriter, r *http.Request) {
	orderID, err := orderIDParam(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	order, err := h.activation.Activate(r.Context(), orderID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}
