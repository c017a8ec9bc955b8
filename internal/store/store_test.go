package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todoapp/internal/todo"
)

// testStoreContract exercises the behavior every backend shares.
func testStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()

	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("insert assigns increasing ids", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		first, err := s.Insert(ctx, todo.Item{Text: "one", CreatedDate: created})
		require.NoError(t, err)
		second, err := s.Insert(ctx, todo.Item{Text: "two", Completed: true, CreatedDate: created})
		require.NoError(t, err)

		assert.Equal(t, 1, first.ID)
		assert.Equal(t, 2, second.ID)

		got, err := s.Get(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, "two", got.Text)
		assert.True(t, got.Completed)
		assert.True(t, created.Equal(got.CreatedDate))
		assert.Nil(t, got.UpdatedDate)
	})

	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), 42)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("find by text", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.Insert(ctx, todo.Item{Text: "Buy Milk", CreatedDate: created})
		require.NoError(t, err)

		got, err := s.FindByText(ctx, "buy milk", true)
		require.NoError(t, err)
		assert.Equal(t, "Buy Milk", got.Text)

		_, err = s.FindByText(ctx, "buy milk", false)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = s.FindByText(ctx, "walk dog", true)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("find by text folds non-ASCII case", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.Insert(ctx, todo.Item{Text: "Äpfel kaufen", CreatedDate: created})
		require.NoError(t, err)

		got, err := s.FindByText(ctx, "äpfel KAUFEN", true)
		require.NoError(t, err)
		assert.Equal(t, "Äpfel kaufen", got.Text)

		_, err = s.FindByText(ctx, "äpfel kaufen", false)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list keeps insertion order of survivors", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		for _, text := range []string{"a", "b", "c"} {
			_, err := s.Insert(ctx, todo.Item{Text: text, CreatedDate: created})
			require.NoError(t, err)
		}

		removed, err := s.Remove(ctx, 2)
		require.NoError(t, err)
		assert.True(t, removed)

		items, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "a", items[0].Text)
		assert.Equal(t, "c", items[1].Text)
	})

	t.Run("list empty", func(t *testing.T) {
		s := newStore(t)
		items, err := s.List(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	})

	t.Run("update replaces record", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		item, err := s.Insert(ctx, todo.Item{Text: "draft", CreatedDate: created})
		require.NoError(t, err)

		updated := created.Add(time.Hour)
		item.Text = "final"
		item.Completed = true
		item.UpdatedDate = &updated
		require.NoError(t, s.Update(ctx, item))

		got, err := s.Get(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, "final", got.Text)
		assert.True(t, got.Completed)
		require.NotNil(t, got.UpdatedDate)
		assert.True(t, updated.Equal(*got.UpdatedDate))
	})

	t.Run("update missing", func(t *testing.T) {
		s := newStore(t)
		err := s.Update(context.Background(), todo.Item{ID: 9, Text: "ghost", CreatedDate: created})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("remove is permanent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		item, err := s.Insert(ctx, todo.Item{Text: "gone", CreatedDate: created})
		require.NoError(t, err)

		removed, err := s.Remove(ctx, item.ID)
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = s.Remove(ctx, item.ID)
		require.NoError(t, err)
		assert.False(t, removed)

		_, err = s.Get(ctx, item.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		next, err := s.Insert(ctx, todo.Item{Text: "next", CreatedDate: created})
		require.NoError(t, err)
		assert.Greater(t, next.ID, item.ID, "ids are never reused")
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, newStore(t).Ping(context.Background()))
	})
}
