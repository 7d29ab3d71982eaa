package handler

import (
	"context"

	"order-composer/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

// MockCatalogService is a mock implementation of service.CatalogService
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) ListAvailableProducts(ctx context.Context, orderID uuid.UUID, searchTerm string) ([]model.ParentNode, error) {
	args := m.Called(ctx, orderID, searchTerm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ParentNode), args.Error(1)
}

// MockOrderItemService is a mock implementation of service.OrderItemService
type MockOrderItemService struct {
	mock.Mock
}

func (m *MockOrderItemService) AddOrUpdateQuantities(ctx context.Context, orderID uuid.UUID, productIDToQuantity map[string]int) (int, error) {
	args := m.Called(ctx, orderID, productIDToQuantity)
	return args.Int(0), args.Error(1)
}

func (m *MockOrderItemService) UpdateQuantities(ctx context.Context, orderItemIDToQuantity map[uuid.UUID]int) (int, error) {
	args := m.Called(ctx, orderItemIDToQuantity)
	return args.Int(0), args.Error(1)
}

func (m *MockOrderItemService) DeleteItems(ctx context.Context, orderItemIDs []uuid.UUID) (int, error) {
	args := m.Called(ctx, orderItemIDs)
	return args.Int(0), args.Error(1)
}

func (m *MockOrderItemService) Provision(ctx context.Context, req *model.ProvisionRequest) (*model.ProvisionResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProvisionResult), args.Error(1)
}

func (m *MockOrderItemService) ListOrderItems(ctx context.Context, orderID uuid.UUID, offset, pageSize int) (*model.Page, error) {
	args := m.Called(ctx, orderID, offset, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Page), args.Error(1)
}

func (m *MockOrderItemService) Summary(ctx context.Context, orderID uuid.UUID) (*model.OrderSummary, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderSummary), args.Error(1)
}

// MockActivationService is a mock implementation of service.ActivationService
type MockActivationService struct {
	mock.Mock
}

func (m *MockActivationService) CanActivate(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockActivationService) Activate(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockActivationService) EnsureDraft(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockActivationService) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}
