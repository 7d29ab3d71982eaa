package service

import (
	"context"
	"time"

	"order-composer/internal/events"
	"order-composer/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	// Return a MockTx interface value, not a pointer
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus, at time.Time) error {
	args := m.Called(ctx, tx, id, status, at)
	return args.Error(0)
}

// MockOrderItemRepository is a mock implementation of OrderItemRepository.
type MockOrderItemRepository struct {
	mock.Mock
}

func (m *MockOrderItemRepository) UpsertItems(ctx context.Context, tx pgx.Tx, items []model.LineUpsert) error {
	args := m.Called(ctx, tx, items)
	return args.Error(0)
}

func (m *MockOrderItemRepository) GetByIDs(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) ([]model.OrderLineItem, error) {
	args := m.Called(ctx, tx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OrderLineItem), args.Error(1)
}

func (m *MockOrderItemRepository) UpdateQuantities(ctx context.Context, tx pgx.Tx, quantities map[uuid.UUID]int) (int, error) {
	args := m.Called(ctx, tx, quantities)
	return args.Int(0), args.Error(1)
}

func (m *MockOrderItemRepository) DeleteByIDs(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) (int, error) {
	args := m.Called(ctx, tx, ids)
	return args.Int(0), args.Error(1)
}

func (m *MockOrderItemRepository) ListByOrder(ctx context.Context, orderID uuid.UUID, limit, offset int) ([]model.OrderLineItem, error) {
	args := m.Called(ctx, orderID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OrderLineItem), args.Error(1)
}

func (m *MockOrderItemRepository) Summarize(ctx context.Context, orderID uuid.UUID) (int, int, decimal.Decimal, error) {
	args := m.Called(ctx, orderID)
	return args.Int(0), args.Int(1), args.Get(2).(decimal.Decimal), args.Error(3)
}

func (m *MockOrderItemRepository) CountActivationFacts(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, priceBookID string) (int, int, error) {
	args := m.Called(ctx, tx, orderID, priceBookID)
	return args.Int(0), args.Int(1), args.Error(2)
}

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProductRepository) SearchCatalog(ctx context.Context, priceBookID string, orderID uuid.UUID, parentNameTerm string) ([]model.CatalogRow, error) {
	args := m.Called(ctx, priceBookID, orderID, parentNameTerm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CatalogRow), args.Error(1)
}

func (m *MockProductRepository) GetPricedProducts(ctx context.Context, tx pgx.Tx, priceBookID string, productIDs []string) (map[string]model.PricedProduct, error) {
	args := m.Called(ctx, tx, priceBookID, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]model.PricedProduct), args.Error(1)
}

func (m *MockProductRepository) IsPriceBookActive(ctx context.Context, tx pgx.Tx, priceBookID string) (bool, error) {
	args := m.Called(ctx, tx, priceBookID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) UpsertPriceBook(ctx context.Context, tx pgx.Tx, book model.PriceBook) error {
	return m.Called(ctx, tx, book).Error(0)
}

func (m *MockProductRepository) UpsertProducts(ctx context.Context, tx pgx.Tx, products []model.Product) error {
	return m.Called(ctx, tx, products).Error(0)
}

func (m *MockProductRepository) UpsertPriceBookEntries(ctx context.Context, tx pgx.Tx, entries []model.PriceBookEntry) error {
	return m.Called(ctx, tx, entries).Error(0)
}

// MockPublisher is a mock implementation of events.Publisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event events.OrderEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }

func draftOrder(id uuid.UUID) *model.Order {
	return &model.Order{ID: id, Status: model.OrderStatusDraft, PriceBookID: "PB-STD"}
}

func activatedOrder(id uuid.UUID) *model.Order {
	now := time.Now()
	return &model.Order{ID: id, Status: model.OrderStatusActivated, PriceBookID: "PB-STD", ActivatedAt: &now}
}
