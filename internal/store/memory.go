package store

import (
	"context"
	"slices"

	"todoapp/internal/todo"
)

// Memory is an arena of items keyed by id with a separate insertion order.
// It is not safe for concurrent use.
type Memory struct {
	records map[int]*todo.Item
	order   []int
	nextID  int
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty store whose first id is 1.
func NewMemory() *Memory {
	return &Memory{records: make(map[int]*todo.Item)}
}

func (m *Memory) Insert(_ context.Context, item todo.Item) (todo.Item, error) {
	m.nextID++
	item.ID = m.nextID
	stored := cloneItem(item)
	m.records[item.ID] = &stored
	m.order = append(m.order, item.ID)
	return cloneItem(stored), nil
}

func (m *Memory) Get(_ context.Context, id int) (todo.Item, error) {
	record, ok := m.records[id]
	if !ok {
		return todo.Item{}, ErrNotFound
	}
	return cloneItem(*record), nil
}

func (m *Memory) FindByText(_ context.Context, text string, caseInsensitive bool) (todo.Item, error) {
	for _, id := range m.order {
		record := m.records[id]
		if textMatches(record.Text, text, caseInsensitive) {
			return cloneItem(*record), nil
		}
	}
	return todo.Item{}, ErrNotFound
}

func (m *Memory) List(context.Context) ([]todo.Item, error) {
	items := make([]todo.Item, 0, len(m.order))
	for _, id := range m.order {
		items = append(items, cloneItem(*m.records[id]))
	}
	return items, nil
}

func (m *Memory) Update(_ context.Context, item todo.Item) error {
	if _, ok := m.records[item.ID]; !ok {
		return ErrNotFound
	}
	stored := cloneItem(item)
	m.records[item.ID] = &stored
	return nil
}

func (m *Memory) Remove(_ context.Context, id int) (bool, error) {
	if _, ok := m.records[id]; !ok {
		return false, nil
	}
	delete(m.records, id)
	m.order = slices.DeleteFunc(m.order, func(existing int) bool { return existing == id })
	return true, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

// cloneItem copies the item so stored records never alias caller memory.
func cloneItem(item todo.Item) todo.Item {
	if item.UpdatedDate != nil {
		updated := *item.UpdatedDate
		item.UpdatedDate = &updated
	}
	return item
}
