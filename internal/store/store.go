// Package store holds the item store implementations: an in-memory arena,
// a database/sql store for Postgres and SQLite, and a redis store.
package store

import (
	"context"
	"errors"
	"strings"

	"todoapp/internal/todo"
)

// ErrNotFound is returned when no item matches the lookup.
var ErrNotFound = errors.New("todo item not found")

// Store is the authoritative item collection. Implementations assign ids on
// Insert and return items in insertion order from List. None of them
// synchronize concurrent mutation; callers serialize access.
type Store interface {
	Insert(ctx context.Context, item todo.Item) (todo.Item, error)
	Get(ctx context.Context, id int) (todo.Item, error)
	FindByText(ctx context.Context, text string, caseInsensitive bool) (todo.Item, error)
	List(ctx context.Context) ([]todo.Item, error)
	Update(ctx context.Context, item todo.Item) error
	Remove(ctx context.Context, id int) (bool, error)
	Ping(ctx context.Context) error
}

func textMatches(a, b string, caseInsensitive bool) bool {
	if caseInsensitive {
		return strings.EqualFold(a, b)
	}
	return a == b
}
