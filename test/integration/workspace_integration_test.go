package integration

import (
	"context"
	"testing"

	"order-composer/internal/model"
	"order-composer/internal/workflow"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspace_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	svc := newTestServices(testDB)
	ctx := context.Background()

	newWorkspace := func(t *testing.T) *workflow.Workspace {
		t.Helper()

		CleanupDB(t, testDB.Pool)
		SeedCatalog(t, testDB.Pool)

		result, err := svc.items.Provision(ctx, &model.ProvisionRequest{PriceBookID: "PB-STD", ProductIDToQuantity: map[string]int{}})
		require.NoError(t, err)

		ws, err := workflow.New(result.Order.Order.ID, svc.catalog, svc.items, svc.activation, workflow.Options{PageSize: 2}, zerolog.Nop())
		require.NoError(t, err)
		require.NoError(t, ws.Refresh(ctx))
		return ws
	}

	t.Run("Select, add and activate", func(t *testing.T) {
		ws := newWorkspace(t)

		var events []workflow.EventType
		unsubscribe := ws.Subscribe(func(e workflow.Event) { events = append(events, e.Type) })
		defer unsubscribe()

		state := ws.State()
		require.Len(t, state.Catalog, 2)
		assert.Empty(t, state.Lines)
		assert.False(t, state.CanActivate)

		_, err := ws.Select("C1")
		require.NoError(t, err)
		_, err = ws.Select("C2")
		assert.ErrorIs(t, err, model.ErrSelectionConflict)
		_, err = ws.Select("C3")
		require.NoError(t, err)

		affected, err := ws.AddSelected(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, affected)

		state = ws.State()
		assert.Empty(t, state.Selected)
		require.Len(t, state.Lines, 2)
		assert.True(t, state.CanActivate)
		assert.Contains(t, events, workflow.EventItemsChanged)

		// Selections always add a single unit.
		for _, line := range state.Lines {
			assert.Equal(t, 1, line.Quantity)
		}

		_, err = ws.EditQuantities(ctx, map[uuid.UUID]int{state.Lines[0].ID: 3})
		require.NoError(t, err)
		state = ws.State()
		assert.Equal(t, 3, state.Lines[0].Quantity)
		assert.True(t, decimal.NewFromInt(30).Equal(state.Lines[0].TotalPrice))

		order, err := ws.Activate(ctx)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusActivated, order.Status)

		state = ws.State()
		assert.True(t, state.Activated)
		assert.False(t, state.CanActivate)

		_, err = ws.DeleteLines(ctx, []uuid.UUID{state.Lines[0].ID})
		assert.ErrorIs(t, err, model.ErrOrderActivated)
		assert.Len(t, ws.State().Lines, 2)
	})

	t.Run("Load more keeps loaded pages fresh", func(t *testing.T) {
		ws := newWorkspace(t)

		for _, id := range []string{"C1", "C3"} {
			_, err := ws.Select(id)
			require.NoError(t, err)
		}
		_, err := ws.AddSelected(ctx)
		require.NoError(t, err)

		_, err = ws.Select("C2")
		require.NoError(t, err)
		_, err = ws.AddSelected(ctx)
		require.NoError(t, err)

		state := ws.State()
		require.Len(t, state.Lines, 2)
		assert.True(t, state.HasMore)

		require.NoError(t, ws.LoadMore(ctx))
		state = ws.State()
		require.Len(t, state.Lines, 3)
		assert.False(t, state.HasMore)

		// Deleting the first line shifts the rest up; both pages are reread.
		deleted, err := ws.DeleteLines(ctx, []uuid.UUID{state.Lines[0].ID})
		require.NoError(t, err)
		assert.Equal(t, 1, deleted)

		state = ws.State()
		require.Len(t, state.Lines, 2)
		assert.False(t, state.HasMore)
	})

	t.Run("Search narrows the catalog", func(t *testing.T) {
		ws := newWorkspace(t)

		require.NoError(t, ws.Search(ctx, "MONI"))
		state := ws.State()
		require.Len(t, state.Catalog, 1)
		assert.Equal(t, "P2", state.Catalog[0].Product.ID)
		assert.Equal(t, "MONI", state.SearchTerm)
	})
}
