// Package selection keeps the children picked from a catalog snapshot before
// they are added to an order. At most one child per parent may be selected.
package selection

import (
	"fmt"

	"order-composer/internal/model"
)

// Model is the selection over one catalog snapshot. It is not safe for
// concurrent use.
type Model struct {
	parentOf map[string]string // child ID -> parent ID
	names    map[string]string // product ID -> display name
	order    []string          // selected child IDs, in selection order
	byParent map[string]string // parent ID -> selected child ID
}

// New creates an empty selection over groups.
func New(groups []model.ParentNode) *Model {
	m := &Model{byParent: make(map[string]string)}
	m.index(groups)
	return m
}

func (m *Model) index(groups []model.ParentNode) {
	m.parentOf = make(map[string]string)
	m.names = make(map[string]string)
	for _, g := range groups {
		m.names[g.Product.ID] = g.Product.Name
		for _, c := range g.Children {
			m.parentOf[c.Product.ID] = g.Product.ID
			m.names[c.Product.ID] = c.Product.Name
		}
	}
}

// Select adds childID. Selecting a child whose parent already has another
// selected child fails with a SelectionConflict error and leaves the
// selection unchanged.
func (m *Model) Select(childID string) ([]string, error) {
	parentID, ok := m.parentOf[childID]
	if !ok {
		return m.Selected(), model.NewDomainError(model.KindNotFound, model.ErrCodeProductNotFound,
			fmt.Sprintf("Product %s is not in the current catalog", childID))
	}

	if held, taken := m.byParent[parentID]; taken {
		if held == childID {
			return m.Selected(), nil
		}
		return m.Selected(), model.NewDomainError(model.KindSelectionConflict, model.ErrCodeSelectionConflict,
			fmt.Sprintf("Only one product of %s can be selected; %s is already selected", m.name(parentID), m.name(held)))
	}

	m.byParent[parentID] = childID
	m.order = append(m.order, childID)
	return m.Selected(), nil
}

// Deselect removes childID. Removing a child that is not selected is a no-op.
func (m *Model) Deselect(childID string) []string {
	parentID, ok := m.parentOf[childID]
	if !ok || m.byParent[parentID] != childID {
		return m.Selected()
	}

	delete(m.byParent, parentID)
	m.remove(childID)
	return m.Selected()
}

// Reset swaps the catalog snapshot. Selected children that are absent from
// the new snapshot, or now belong to a parent that already holds an earlier
// selection, are dropped.
func (m *Model) Reset(groups []model.ParentNode) []string {
	previous := m.order
	m.index(groups)
	m.order = nil
	m.byParent = make(map[string]string)

	for _, id := range previous {
		parentID, ok := m.parentOf[id]
		if !ok {
			continue
		}
		if _, taken := m.byParent[parentID]; taken {
			continue
		}
		m.byParent[parentID] = id
		m.order = append(m.order, id)
	}
	return m.Selected()
}

// Clear drops every selection.
func (m *Model) Clear() {
	m.order = nil
	m.byParent = make(map[string]string)
}

// Selected returns the selected child IDs in selection order.
func (m *Model) Selected() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// IsSelected reports whether childID is selected.
func (m *Model) IsSelected(childID string) bool {
	parentID, ok := m.parentOf[childID]
	return ok && m.byParent[parentID] == childID
}

// Quantities is the add batch for the selection. Each selected child is
// added with quantity 1.
func (m *Model) Quantities() map[string]int {
	q := make(map[string]int, len(m.order))
	for _, id := range m.order {
		q[id] = 1
	}
	return q
}

func (m *Model) remove(childID string) {
	for i, id := range m.order {
		if id == childID {
			m.order = append(m.order[:i:i], m.order[i+1:]...)
			return
		}
	}
}

func (m *Model) name(id string) string {
	if n := m.names[id]; n != "" {
		return n
	}
	return id
}
