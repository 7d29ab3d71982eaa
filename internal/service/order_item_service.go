package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"order-composer/internal/config"
	"order-composer/internal/events"
	"order-composer/internal/metrics"
	"order-composer/internal/model"
	"order-composer/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// orderItemService implements OrderItemService.
type orderItemService struct {
	orderRepo   repository.OrderRepository
	itemRepo    repository.OrderItemRepository
	productRepo repository.ProductRepository
	gate        ActivationService
	publisher   events.Publisher
	metrics     *metrics.Metrics
	listing     config.ListingConfig
	logger      zerolog.Logger
}

// NewOrderItemService creates a new order item service. Every mutation is
// gated by gate.EnsureDraft inside its own transaction.
func NewOrderItemService(
	orderRepo repository.OrderRepository,
	itemRepo repository.OrderItemRepository,
	productRepo repository.ProductRepository,
	gate ActivationService,
	publisher events.Publisher,
	m *metrics.Metrics,
	listing config.ListingConfig,
	logger zerolog.Logger,
) OrderItemService {
	return &orderItemService{
		orderRepo:   orderRepo,
		itemRepo:    itemRepo,
		productRepo: productRepo,
		gate:        gate,
		publisher:   publisher,
		metrics:     m,
		listing:     listing,
		logger:      logger.With().Str("service", "order_item").Logger(),
	}
}

// AddOrUpdateQuantities creates or re-quantifies one line per product.
// The activation gate runs before input checks so an activated order always
// reports OrderActivated.
func (s *orderItemService) AddOrUpdateQuantities(ctx context.Context, orderID uuid.UUID, productIDToQuantity map[string]int) (int, error) {
	var affected int
	err := runInTx(ctx, s.orderRepo, s.logger, func(tx pgx.Tx) error {
		order, err := s.gate.EnsureDraft(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if len(productIDToQuantity) == 0 {
			return model.ErrEmptyBatch
		}
		if err := s.validateProductQuantities(productIDToQuantity); err != nil {
			return err
		}
		affected, err = s.upsertLines(ctx, tx, order, productIDToQuantity)
		return err
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("order_id", orderID.String()).Msg("failed to add order items")
		return 0, err
	}

	s.afterMutation(ctx, "add", []uuid.UUID{orderID}, affected)
	return affected, nil
}

// Provision adds products to an existing order, or creates a Draft order for
// the price book first when no order ID is given.
func (s *orderItemService) Provision(ctx context.Context, req *model.ProvisionRequest) (*model.ProvisionResult, error) {
	if req == nil {
		return nil, model.NewDomainError(model.KindInvalidRequest, model.ErrCodeMissingField, "Request body is required")
	}

	if req.OrderID != nil {
		affected, err := s.AddOrUpdateQuantities(ctx, *req.OrderID, req.ProductIDToQuantity)
		if err != nil {
			return nil, err
		}
		summary, err := s.Summary(ctx, *req.OrderID)
		if err != nil {
			return nil, err
		}
		return &model.ProvisionResult{Affected: affected, Order: summary}, nil
	}

	if strings.TrimSpace(req.PriceBookID) == "" {
		return nil, model.NewDomainError(model.KindInvalidRequest, model.ErrCodeMissingField, "priceBookId is required when orderId is absent")
	}
	if err := s.validateProductQuantities(req.ProductIDToQuantity); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order := &model.Order{
		ID:          uuid.New(),
		Status:      model.OrderStatusDraft,
		PriceBookID: req.PriceBookID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var affected int
	err := runInTx(ctx, s.orderRepo, s.logger, func(tx pgx.Tx) error {
		active, err := s.productRepo.IsPriceBookActive(ctx, tx, order.PriceBookID)
		if err != nil {
			return err
		}
		if !active {
			return model.ErrPriceBookNotFound
		}
		if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
			return err
		}
		affected, err = s.upsertLines(ctx, tx, order, req.ProductIDToQuantity)
		return err
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("price_book_id", req.PriceBookID).Msg("failed to provision order")
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("price_book_id", order.PriceBookID).
		Int("affected", affected).
		Msg("order provisioned")
	s.afterMutation(ctx, "add", []uuid.UUID{order.ID}, affected)

	summary, err := s.Summary(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return &model.ProvisionResult{Affected: affected, Order: summary}, nil
}

// UpdateQuantities sets the quantity of existing lines. Either every line is
// updated or none is.
func (s *orderItemService) UpdateQuantities(ctx context.Context, orderItemIDToQuantity map[uuid.UUID]int) (int, error) {
	if len(orderItemIDToQuantity) == 0 {
		return 0, model.ErrEmptyBatch
	}

	ids := make([]uuid.UUID, 0, len(orderItemIDToQuantity))
	for id := range orderItemIDToQuantity {
		ids = append(ids, id)
	}

	var (
		updated  int
		orderIDs []uuid.UUID
	)
	err := runInTx(ctx, s.orderRepo, s.logger, func(tx pgx.Tx) error {
		items, err := s.itemRepo.GetByIDs(ctx, tx, ids)
		if err != nil {
			return err
		}

		// Gate the owning orders before judging the input.
		orderIDs, err = s.lockOwningOrders(ctx, tx, items)
		if err != nil {
			return err
		}
		if len(items) != len(ids) {
			return missingItems(ids, items)
		}
		for id, qty := range orderItemIDToQuantity {
			if !validQuantity(qty) {
				return invalidQuantity(id.String(), qty)
			}
		}

		updated, err = s.itemRepo.UpdateQuantities(ctx, tx, orderItemIDToQuantity)
		if err != nil {
			return err
		}
		// A line deleted between the read and the lock.
		if updated != len(ids) {
			return model.ErrOrderItemNotFound
		}
		return nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Int("count", len(ids)).Msg("failed to update order item quantities")
		return 0, err
	}

	s.afterMutation(ctx, "update", orderIDs, updated)
	return updated, nil
}

// DeleteItems removes the lines that exist among orderItemIDs. An empty list
// deletes nothing.
func (s *orderItemService) DeleteItems(ctx context.Context, orderItemIDs []uuid.UUID) (int, error) {
	if len(orderItemIDs) == 0 {
		return 0, nil
	}

	var (
		deleted  int
		orderIDs []uuid.UUID
	)
	err := runInTx(ctx, s.orderRepo, s.logger, func(tx pgx.Tx) error {
		items, err := s.itemRepo.GetByIDs(ctx, tx, dedupe(orderItemIDs))
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}

		orderIDs, err = s.lockOwningOrders(ctx, tx, items)
		if err != nil {
			return err
		}

		existing := make([]uuid.UUID, len(items))
		for i, item := range items {
			existing[i] = item.ID
		}
		deleted, err = s.itemRepo.DeleteByIDs(ctx, tx, existing)
		return err
	})
	if err != nil {
		s.logger.Warn().Err(err).Int("count", len(orderItemIDs)).Msg("failed to delete order items")
		return 0, err
	}

	s.afterMutation(ctx, "delete", orderIDs, deleted)
	return deleted, nil
}

// ListOrderItems returns one page of an order's lines.
func (s *orderItemService) ListOrderItems(ctx context.Context, orderID uuid.UUID, offset, pageSize int) (*model.Page, error) {
	if offset < 0 || pageSize < 1 || pageSize > s.listing.MaxPageSize {
		return nil, model.ErrInvalidPagination
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	// One extra row tells whether another page follows.
	items, err := s.itemRepo.ListByOrder(ctx, orderID, pageSize+1, offset)
	if err != nil {
		s.logger.Error().Err(err).
			Str("order_id", orderID.String()).
			Int("offset", offset).
			Int("page_size", pageSize).
			Msg("failed to list order items")
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}

	hasMore := len(items) > pageSize
	if hasMore {
		items = items[:pageSize]
	}

	return &model.Page{Items: items, Offset: offset, PageSize: pageSize, HasMore: hasMore}, nil
}

// Summary aggregates an order's lines.
func (s *orderItemService) Summary(ctx context.Context, orderID uuid.UUID) (*model.OrderSummary, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	lines, quantity, amount, err := s.itemRepo.Summarize(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to summarise order: %w", err)
	}

	return &model.OrderSummary{
		Order:         *order,
		LineCount:     lines,
		TotalQuantity: quantity,
		TotalAmount:   amount,
	}, nil
}

// upsertLines prices the products against the order's price book and writes
// them in product ID order.
func (s *orderItemService) upsertLines(ctx context.Context, tx pgx.Tx, order *model.Order, productIDToQuantity map[string]int) (int, error) {
	if len(productIDToQuantity) == 0 {
		return 0, nil
	}

	productIDs := make([]string, 0, len(productIDToQuantity))
	for id := range productIDToQuantity {
		productIDs = append(productIDs, id)
	}
	sort.Strings(productIDs)

	priced, err := s.productRepo.GetPricedProducts(ctx, tx, order.PriceBookID, productIDs)
	if err != nil {
		return 0, err
	}

	var missing []string
	for _, id := range productIDs {
		if _, ok := priced[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return 0, model.NewDomainError(model.KindNotFound, model.ErrCodeProductNotFound,
			fmt.Sprintf("Products not orderable in price book %s: %s", order.PriceBookID, strings.Join(missing, ", ")))
	}

	lines := make([]model.LineUpsert, len(productIDs))
	for i, id := range productIDs {
		lines[i] = model.LineUpsert{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: id,
			UnitPrice: priced[id].UnitPrice,
			Quantity:  productIDToQuantity[id],
		}
	}

	if err := s.itemRepo.UpsertItems(ctx, tx, lines); err != nil {
		return 0, err
	}
	return len(lines), nil
}

// lockOwningOrders gates every order owning items, locking in ID order.
func (s *orderItemService) lockOwningOrders(ctx context.Context, tx pgx.Tx, items []model.OrderLineItem) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool)
	var orderIDs []uuid.UUID
	for _, item := range items {
		if !seen[item.OrderID] {
			seen[item.OrderID] = true
			orderIDs = append(orderIDs, item.OrderID)
		}
	}
	sort.Slice(orderIDs, func(i, j int) bool { return orderIDs[i].String() < orderIDs[j].String() })

	for _, id := range orderIDs {
		if _, err := s.gate.EnsureDraft(ctx, tx, id); err != nil {
			return nil, err
		}
	}
	return orderIDs, nil
}

func (s *orderItemService) afterMutation(ctx context.Context, operation string, orderIDs []uuid.UUID, affected int) {
	if affected == 0 {
		return
	}

	s.metrics.LineItemsChanged(operation, affected)
	if err := s.publisher.Publish(ctx, events.NewItemsChanged(orderIDs, affected)); err != nil {
		s.logger.Warn().Err(err).Str("operation", operation).Msg("failed to publish items changed event")
	}

	s.logger.Info().
		Str("operation", operation).
		Int("affected", affected).
		Int("orders", len(orderIDs)).
		Msg("order items changed")
}

func (s *orderItemService) validateProductQuantities(productIDToQuantity map[string]int) error {
	for id, qty := range productIDToQuantity {
		if strings.TrimSpace(id) == "" {
			return model.NewDomainError(model.KindInvalidRequest, model.ErrCodeMissingField, "Product ID is required")
		}
		if !validQuantity(qty) {
			s.logger.Warn().Str("product_id", id).Int("quantity", qty).Msg("invalid quantity")
			return invalidQuantity(id, qty)
		}
	}
	return nil
}

// validQuantity bounds qty to what the INTEGER quantity column holds.
func validQuantity(qty int) bool {
	return qty >= 1 && qty <= math.MaxInt32
}

func invalidQuantity(id string, qty int) error {
	return model.NewDomainError(model.KindInvalidQuantity, model.ErrCodeInvalidQuantity,
		fmt.Sprintf("Quantity for %s must be between 1 and %d, got %d", id, math.MaxInt32, qty))
}

func missingItems(requested []uuid.UUID, found []model.OrderLineItem) error {
	present := make(map[uuid.UUID]bool, len(found))
	for _, item := range found {
		present[item.ID] = true
	}

	var missing []string
	for _, id := range requested {
		if !present[id] {
			missing = append(missing, id.String())
		}
	}
	sort.Strings(missing)

	return model.NewDomainError(model.KindNotFound, model.ErrCodeOrderItemNotFound,
		"Order items not found: "+strings.Join(missing, ", "))
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
