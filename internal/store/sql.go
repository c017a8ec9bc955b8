package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"todoapp/internal/todo"
)

// SQLStore keeps items in the todo_items table. The queries use $N
// placeholders, which both Postgres and SQLite accept.
type SQLStore struct {
	db *sql.DB
}

var _ Store = (*SQLStore)(nil)

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) DB() *sql.DB {
	return s.db
}

const itemColumns = `id, text, completed, created_date, updated_date`

func (s *SQLStore) Insert(ctx context.Context, item todo.Item) (todo.Item, error) {
	if item.CreatedDate.IsZero() {
		item.CreatedDate = time.Now().UTC()
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO todo_items (text, completed, created_date, updated_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, item.Text, item.Completed, item.CreatedDate, nullTime(item.UpdatedDate)).Scan(&item.ID)
	if err != nil {
		return todo.Item{}, fmt.Errorf("insert todo item: %w", err)
	}
	return item, nil
}

func (s *SQLStore) Get(ctx context.Context, id int) (todo.Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM todo_items WHERE id=$1`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return todo.Item{}, ErrNotFound
	}
	if err != nil {
		return todo.Item{}, fmt.Errorf("get todo item %d: %w", id, err)
	}
	return item, nil
}

// FindByText folds case with strings.EqualFold. SQL LOWER folds only ASCII
// on SQLite and follows the collation on Postgres.
func (s *SQLStore) FindByText(ctx context.Context, text string, caseInsensitive bool) (todo.Item, error) {
	if caseInsensitive {
		items, err := s.List(ctx)
		if err != nil {
			return todo.Item{}, fmt.Errorf("find todo item by text: %w", err)
		}
		for _, item := range items {
			if textMatches(item.Text, text, true) {
				return item, nil
			}
		}
		return todo.Item{}, ErrNotFound
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM todo_items WHERE text=$1 ORDER BY id LIMIT 1`, text)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return todo.Item{}, ErrNotFound
	}
	if err != nil {
		return todo.Item{}, fmt.Errorf("find todo item by text: %w", err)
	}
	return item, nil
}

func (s *SQLStore) List(ctx context.Context) ([]todo.Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM todo_items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list todo items: %w", err)
	}
	defer rows.Close()

	items := []todo.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan todo item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list todo items: %w", err)
	}
	return items, nil
}

func (s *SQLStore) Update(ctx context.Context, item todo.Item) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE todo_items
		SET text=$1, completed=$2, updated_date=$3
		WHERE id=$4
	`, item.Text, item.Completed, nullTime(item.UpdatedDate), item.ID)
	if err != nil {
		return fmt.Errorf("update todo item %d: %w", item.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update todo item %d: %w", item.ID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Remove(ctx context.Context, id int) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM todo_items WHERE id=$1`, id)
	if err != nil {
		return false, fmt.Errorf("delete todo item %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete todo item %d: %w", id, err)
	}
	return affected > 0, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (todo.Item, error) {
	var (
		item    todo.Item
		updated sql.NullTime
	)
	if err := row.Scan(&item.ID, &item.Text, &item.Completed, &item.CreatedDate, &updated); err != nil {
		return todo.Item{}, err
	}
	if updated.Valid {
		t := updated.Time
		item.UpdatedDate = &t
	}
	return item, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
