package service

import (
	"context"
	"fmt"
	"strings"

	"order-composer/internal/metrics"
	"order-composer/internal/model"
	"order-composer/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// catalogService implements CatalogService.
type catalogService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	m *metrics.Metrics,
	logger zerolog.Logger,
) CatalogService {
	return &catalogService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		metrics:     m,
		logger:      logger.With().Str("service", "catalog").Logger(),
	}
}

// ListAvailableProducts returns the priced catalog of the order's price book.
func (s *catalogService) ListAvailableProducts(ctx context.Context, orderID uuid.UUID, searchTerm string) ([]model.ParentNode, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	term := strings.TrimSpace(searchTerm)

	rows, err := s.productRepo.SearchCatalog(ctx, order.PriceBookID, orderID, term)
	if err != nil {
		s.logger.Error().Err(err).
			Str("order_id", orderID.String()).
			Str("term", term).
			Msg("failed to search catalog")
		return nil, fmt.Errorf("failed to search catalog: %w", err)
	}

	groups, err := model.BuildCatalog(rows)
	if err != nil {
		s.logger.Error().Err(err).Str("price_book_id", order.PriceBookID).Msg("catalog data is inconsistent")
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}

	s.metrics.CatalogSearch()
	s.logger.Debug().
		Str("order_id", orderID.String()).
		Str("term", term).
		Int("parents", len(groups)).
		Msg("catalog searched")

	return groups, nil
}
