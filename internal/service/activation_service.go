package service

import (
	"context"
	"fmt"
	"time"

	"order-composer/internal/events"
	"order-composer/internal/metrics"
	"order-composer/internal/model"
	"order-composer/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// activationService implements ActivationService.
type activationService struct {
	orderRepo repository.OrderRepository
	itemRepo  repository.OrderItemRepository
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewActivationService creates a new activation service.
func NewActivationService(
	orderRepo repository.OrderRepository,
	itemRepo repository.OrderItemRepository,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger zerolog.Logger,
) ActivationService {
	return &activationService{
		orderRepo: orderRepo,
		itemRepo:  itemRepo,
		publisher: publisher,
		metrics:   m,
		logger:    logger.With().Str("service", "activation").Logger(),
	}
}

// GetOrder retrieves an order.
func (s *activationService) GetOrder(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

// EnsureDraft locks the order row in tx and fails unless it is a Draft.
func (s *activationService) EnsureDraft(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	if order.IsActivated() {
		s.logger.Warn().Str("order_id", orderID.String()).Msg("rejected change to activated order")
		return nil, model.ErrOrderActivated
	}
	return order, nil
}

// CanActivate evaluates the activation rule against current data.
func (s *activationService) CanActivate(ctx context.Context, orderID uuid.UUID) (bool, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return false, err
	}

	var facts model.ActivationFacts
	err = runInTx(ctx, s.orderRepo, s.logger, func(tx pgx.Tx) error {
		facts, err = s.facts(ctx, tx, order)
		return err
	})
	if err != nil {
		return false, err
	}

	return model.CanActivate(facts), nil
}

// Activate moves a Draft order to Activated. The rule is evaluated on facts
// read under the order row lock, in the transaction that writes the status.
func (s *activationService) Activate(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	var activated *model.Order

	err := runInTx(ctx, s.orderRepo, s.logger, func(tx pgx.Tx) error {
		order, err := s.orderRepo.GetForUpdate(ctx, tx, orderID)
		if err != nil {
			return fmt.Errorf("failed to lock order: %w", err)
		}
		if order == nil {
			return model.ErrOrderNotFound
		}
		if order.IsActivated() {
			return model.ErrAlreadyActivated
		}

		facts, err := s.facts(ctx, tx, order)
		if err != nil {
			return err
		}
		if !model.CanActivate(facts) {
			return notActivatable(facts)
		}

		now := time.Now().UTC()
		if err := s.orderRepo.UpdateStatus(ctx, tx, orderID, model.OrderStatusActivated, now); err != nil {
			return err
		}

		order.Status = model.OrderStatusActivated
		order.UpdatedAt = now
		order.ActivatedAt = &now
		activated = order
		return nil
	})
	if err != nil {
		if model.KindOf(err) != model.KindUnexpected {
			s.metrics.Activation("rejected")
		}
		s.logger.Warn().Err(err).Str("order_id", orderID.String()).Msg("order activation failed")
		return nil, err
	}

	s.metrics.Activation("activated")
	if pubErr := s.publisher.Publish(ctx, events.NewActivated(orderID)); pubErr != nil {
		s.logger.Warn().Err(pubErr).Str("order_id", orderID.String()).Msg("failed to publish activation event")
	}

	s.logger.Info().Str("order_id", orderID.String()).Msg("order activated")
	return activated, nil
}

func (s *activationService) facts(ctx context.Context, tx pgx.Tx, order *model.Order) (model.ActivationFacts, error) {
	lines, unpriced, err := s.itemRepo.CountActivationFacts(ctx, tx, order.ID, order.PriceBookID)
	if err != nil {
		return model.ActivationFacts{}, fmt.Errorf("failed to read activation facts: %w", err)
	}
	return model.ActivationFacts{Status: order.Status, LineCount: lines, UnpricedLineCount: unpriced}, nil
}

func notActivatable(f model.ActivationFacts) error {
	switch {
	case f.LineCount == 0:
		return model.NewDomainError(model.KindNotActivatable, model.ErrCodeNotActivatable, "Order has no line items")
	case f.UnpricedLineCount > 0:
		return model.NewDomainError(model.KindNotActivatable, model.ErrCodeNotActivatable,
			fmt.Sprintf("%d line item(s) are no longer priced in the order's price book", f.UnpricedLineCount))
	default:
		return model.ErrNotActivatable
	}
}
