// Package workflow composes the catalog, selection, line item and activation
// operations into the interactive order editing session.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"order-composer/internal/model"
	"order-composer/internal/selection"
	"order-composer/internal/service"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrBusy is returned when a mutation is requested while another one is in flight.
var ErrBusy = errors.New("workspace is busy with another change")

// EventType names a state change delivered to subscribers.
type EventType string

const (
	EventItemsChanged     EventType = "items_changed"
	EventActivated        EventType = "activated"
	EventCatalogRefreshed EventType = "catalog_refreshed"
	EventLinesRefreshed   EventType = "lines_refreshed"
)

// Event is delivered to subscribers after the workspace state changed.
type Event struct {
	Type    EventType
	OrderID uuid.UUID
	Token   uint64
}

// State is a snapshot of the workspace. Activated and CanActivate are
// display hints and never gate a write.
type State struct {
	OrderID     uuid.UUID
	SearchTerm  string
	Catalog     []model.ParentNode
	Selected    []string
	Lines       []model.OrderLineItem
	HasMore     bool
	Activated   bool
	CanActivate bool
	CatalogErr  error
	LinesErr    error
	Token       uint64
}

// Options configures a workspace.
type Options struct {
	PageSize  int
	CacheSize int
}

type pageKey struct {
	offset int
	size   int
	token  uint64
}

// Workspace is one editing session over one order.
type Workspace struct {
	orderID    uuid.UUID
	catalog    service.CatalogService
	items      service.OrderItemService
	activation service.ActivationService
	pageSize   int
	pages      *lru.Cache[pageKey, *model.Page]
	logger     zerolog.Logger

	busy atomic.Bool

	mu          sync.Mutex
	sel         *selection.Model
	term        string
	groups      []model.ParentNode
	lines       []model.OrderLineItem
	hasMore     bool
	activated   bool
	canActivate bool
	catalogErr  error
	linesErr    error
	token       uint64

	subsMu sync.Mutex
	subs   map[int]func(Event)
	nextID int
}

// New creates a workspace for orderID. Call Refresh to load it.
func New(
	orderID uuid.UUID,
	catalog service.CatalogService,
	items service.OrderItemService,
	activation service.ActivationService,
	opts Options,
	logger zerolog.Logger,
) (*Workspace, error) {
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 64
	}

	pages, err := lru.New[pageKey, *model.Page](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create page cache: %w", err)
	}

	return &Workspace{
		orderID:    orderID,
		catalog:    catalog,
		items:      items,
		activation: activation,
		pageSize:   opts.PageSize,
		pages:      pages,
		logger:     logger.With().Str("component", "workspace").Str("order_id", orderID.String()).Logger(),
		sel:        selection.New(nil),
		groups:     []model.ParentNode{},
		lines:      []model.OrderLineItem{},
		subs:       make(map[int]func(Event)),
	}, nil
}

// Subscribe registers fn for every event and returns a function that removes it.
func (w *Workspace) Subscribe(fn func(Event)) func() {
	w.subsMu.Lock()
	defer w.subsMu.Unlock()

	id := w.nextID
	w.nextID++
	w.subs[id] = fn

	return func() {
		w.subsMu.Lock()
		defer w.subsMu.Unlock()
		delete(w.subs, id)
	}
}

func (w *Workspace) emit(t EventType) {
	w.mu.Lock()
	ev := Event{Type: t, OrderID: w.orderID, Token: w.token}
	w.mu.Unlock()

	w.subsMu.Lock()
	fns := make([]func(Event), 0, len(w.subs))
	for _, fn := range w.subs {
		fns = append(fns, fn)
	}
	w.subsMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// State returns a snapshot of the workspace.
func (w *Workspace) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	lines := make([]model.OrderLineItem, len(w.lines))
	copy(lines, w.lines)
	groups := make([]model.ParentNode, len(w.groups))
	copy(groups, w.groups)

	return State{
		OrderID:     w.orderID,
		SearchTerm:  w.term,
		Catalog:     groups,
		Selected:    w.sel.Selected(),
		Lines:       lines,
		HasMore:     w.hasMore,
		Activated:   w.activated,
		CanActivate: w.canActivate,
		CatalogErr:  w.catalogErr,
		LinesErr:    w.linesErr,
		Token:       w.token,
	}
}

// Refresh reloads the catalog, the loaded lines and the activation hint.
// Each view degrades on its own; one failed read does not cancel the others.
func (w *Workspace) Refresh(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return w.RefreshCatalog(ctx) })
	g.Go(func() error { return w.RefreshLines(ctx) })
	g.Go(func() error { return w.refreshActivation(ctx) })
	return g.Wait()
}

// Search replaces the catalog snapshot with the results for term.
func (w *Workspace) Search(ctx context.Context, term string) error {
	w.mu.Lock()
	w.term = term
	w.mu.Unlock()

	return w.RefreshCatalog(ctx)
}

// RefreshCatalog re-runs the current search. On failure the catalog is
// emptied and the error kept in State().CatalogErr.
func (w *Workspace) RefreshCatalog(ctx context.Context) error {
	w.mu.Lock()
	term := w.term
	w.mu.Unlock()

	groups, err := w.catalog.ListAvailableProducts(ctx, w.orderID, term)
	if err != nil {
		w.logger.Warn().Err(err).Str("term", term).Msg("catalog refresh failed")
		groups = []model.ParentNode{}
	}

	w.mu.Lock()
	w.groups = groups
	w.catalogErr = err
	w.sel.Reset(groups)
	w.mu.Unlock()

	w.emit(EventCatalogRefreshed)
	return err
}

// RefreshLines re-reads as many lines as are loaded, at least one page,
// keeping the scroll position. On failure the lines are emptied and the error
// kept in State().LinesErr.
func (w *Workspace) RefreshLines(ctx context.Context) error {
	w.mu.Lock()
	want := len(w.lines)
	token := w.token
	w.mu.Unlock()

	if want < w.pageSize {
		want = w.pageSize
	}

	var (
		lines   []model.OrderLineItem
		hasMore bool
		err     error
	)
	for offset := 0; offset < want; offset += w.pageSize {
		var page *model.Page
		page, err = w.page(ctx, offset, token)
		if err != nil {
			break
		}
		lines = append(lines, page.Items...)
		hasMore = page.HasMore
		if !page.HasMore {
			break
		}
	}

	if err != nil {
		w.logger.Warn().Err(err).Msg("line refresh failed")
		lines, hasMore = nil, false
	}
	if lines == nil {
		lines = []model.OrderLineItem{}
	}

	w.mu.Lock()
	w.lines = lines
	w.hasMore = hasMore
	w.linesErr = err
	w.mu.Unlock()

	w.emit(EventLinesRefreshed)
	return err
}

// LoadMore appends the next page of lines.
func (w *Workspace) LoadMore(ctx context.Context) error {
	w.mu.Lock()
	offset := len(w.lines)
	more := w.hasMore
	token := w.token
	w.mu.Unlock()

	if !more {
		return nil
	}

	page, err := w.page(ctx, offset, token)
	if err != nil {
		w.logger.Warn().Err(err).Int("offset", offset).Msg("load more failed")
		w.mu.Lock()
		w.linesErr = err
		w.mu.Unlock()
		return err
	}

	w.mu.Lock()
	// A mutation reloaded the lines while the page was in flight.
	if w.token != token || len(w.lines) != offset {
		w.mu.Unlock()
		return nil
	}
	w.lines = append(w.lines, page.Items...)
	w.hasMore = page.HasMore
	w.linesErr = nil
	w.mu.Unlock()

	w.emit(EventLinesRefreshed)
	return nil
}

// page reads one page through the cache. A new token after each mutation
// makes earlier entries unreachable.
func (w *Workspace) page(ctx context.Context, offset int, token uint64) (*model.Page, error) {
	key := pageKey{offset: offset, size: w.pageSize, token: token}
	if page, ok := w.pages.Get(key); ok {
		return page, nil
	}

	page, err := w.items.ListOrderItems(ctx, w.orderID, offset, w.pageSize)
	if err != nil {
		return nil, err
	}
	w.pages.Add(key, page)
	return page, nil
}

func (w *Workspace) refreshActivation(ctx context.Context) error {
	order, err := w.activation.GetOrder(ctx, w.orderID)
	if err != nil {
		w.logger.Warn().Err(err).Msg("activation hint refresh failed")
		return nil
	}

	can := false
	if !order.IsActivated() {
		if can, err = w.activation.CanActivate(ctx, w.orderID); err != nil {
			w.logger.Warn().Err(err).Msg("activation hint refresh failed")
			can = false
		}
	}

	w.mu.Lock()
	w.activated = order.IsActivated()
	w.canActivate = can
	w.mu.Unlock()
	return nil
}

// Select adds a child to the selection.
func (w *Workspace) Select(childID string) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sel.Select(childID)
}

// Deselect removes a child from the selection.
func (w *Workspace) Deselect(childID string) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sel.Deselect(childID)
}

// AddSelected adds every selected child with quantity 1. The selection is
// cleared only when the add succeeds.
func (w *Workspace) AddSelected(ctx context.Context) (int, error) {
	if !w.busy.CompareAndSwap(false, true) {
		return 0, ErrBusy
	}
	defer w.busy.Store(false)

	w.mu.Lock()
	quantities := w.sel.Quantities()
	w.mu.Unlock()

	if len(quantities) == 0 {
		return 0, model.ErrEmptyBatch
	}

	affected, err := w.items.AddOrUpdateQuantities(ctx, w.orderID, quantities)
	if err != nil {
		return 0, err
	}

	w.mu.Lock()
	w.sel.Clear()
	w.mu.Unlock()

	w.afterMutation(ctx, EventItemsChanged)
	return affected, nil
}

// EditQuantities sets line quantities.
func (w *Workspace) EditQuantities(ctx context.Context, orderItemIDToQuantity map[uuid.UUID]int) (int, error) {
	if !w.busy.CompareAndSwap(false, true) {
		return 0, ErrBusy
	}
	defer w.busy.Store(false)

	updated, err := w.items.UpdateQuantities(ctx, orderItemIDToQuantity)
	if err != nil {
		return 0, err
	}

	w.afterMutation(ctx, EventItemsChanged)
	return updated, nil
}

// DeleteLines removes lines.
func (w *Workspace) DeleteLines(ctx context.Context, orderItemIDs []uuid.UUID) (int, error) {
	if !w.busy.CompareAndSwap(false, true) {
		return 0, ErrBusy
	}
	defer w.busy.Store(false)

	deleted, err := w.items.DeleteItems(ctx, orderItemIDs)
	if err != nil {
		return 0, err
	}

	w.afterMutation(ctx, EventItemsChanged)
	return deleted, nil
}

// Activate activates the order.
func (w *Workspace) Activate(ctx context.Context) (*model.Order, error) {
	if !w.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer w.busy.Store(false)

	order, err := w.activation.Activate(ctx, w.orderID)
	if err != nil {
		return nil, err
	}

	w.afterMutation(ctx, EventActivated)
	return order, nil
}

// afterMutation invalidates cached pages and refetches every view before
// notifying subscribers.
func (w *Workspace) afterMutation(ctx context.Context, t EventType) {
	w.mu.Lock()
	w.token++
	w.mu.Unlock()

	if err := w.Refresh(ctx); err != nil {
		w.logger.Warn().Err(err).Msg("refresh after change failed")
	}

	w.emit(t)
}
