package handler

import (
	"net/http"
	"strconv"

	"order-composer/internal/config"
	"order-composer/internal/model"
	"order-composer/internal/service"

	"github.com/rs/zerolog"
)

// OrderItemHandler handles line item HTTP requests.
type OrderItemHandler struct {
	service service.OrderItemService
	listing config.ListingConfig
	logger  zerolog.Logger
}

// NewOrderItemHandler creates a new order item handler.
func NewOrderItemHandler(service service.OrderItemService, listing config.ListingConfig, logger zerolog.Logger) *OrderItemHandler {
	return &OrderItemHandler{
		service: service,
		listing: listing,
		logger:  logger.With().Str("handler", "order_item").Logger(),
	}
}

// Add handles POST /api/orders/{orderID}/items requests.
func (h *OrderItemHandler) Add(w http.ResponseWriter, r *http.Request) {
	orderID, err := orderIDParam(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.AddItemsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	affected, err := h.service.AddOrUpdateQuantities(r.Context(), orderID, req.ProductIDToQuantity)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.AffectedResponse{Affected: affected})
}

// List handles GET /api/orders/{orderID}/items?offset=&pageSize= requests.
func (h *OrderItemHandler) List(w http.ResponseWriter, r *http.Request) {
	orderID, err := orderIDParam(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	offset, err := intQuery(r, "offset", 0)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	pageSize, err := intQuery(r, "pageSize", h.listing.DefaultPageSize)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	page, err := h.service.ListOrderItems(r.Context(), orderID, offset, pageSize)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// Update handles PATCH /api/order-items requests.
func (h *OrderItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateItemsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	updated, err := h.service.UpdateQuantities(r.Context(), req.OrderItemIDToQuantity)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.AffectedResponse{Affected: updated})
}

// Delete handles DELETE /api/order-items requests.
func (h *OrderItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req model.DeleteItemsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	deleted, err := h.service.DeleteItems(r.Context(), req.OrderItemIDs)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.AffectedResponse{Affected: deleted})
}

func intQuery(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.ErrInvalidPagination
	}
	return v, nil
}
