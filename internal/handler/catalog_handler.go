package handler

import (
	"net/http"

	"order-composer/internal/service"

	"github.com/rs/zerolog"
)

// CatalogHandler serves product searches for an order.
type CatalogHandler struct {
	service service.CatalogService
	logger  zerolog.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(service service.CatalogService, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger.With().Str("handler", "catalog").Logger(),
	}
}

// Search handles GET /api/orders/{orderID}/products?parentName= requests.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	orderID, err := orderIDParam(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	groups, err := h.service.ListAvailableProducts(r.Context(), orderID, r.URL.Query().Get("parentName"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, groups)
}
