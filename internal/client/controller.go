package client

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"todoapp/internal/logging"
	"todoapp/internal/todo"
)

// Backend is the part of API the controller needs.
type Backend interface {
	List(ctx context.Context) ([]todo.ItemDTO, error)
	Create(ctx context.Context, text string) (todo.ItemDTO, error)
	Replace(ctx context.Context, item todo.ItemForUpdate) (todo.ItemDTO, error)
	Delete(ctx context.Context, id int) error
}

var _ Backend = (*API)(nil)

// RollbackPolicy decides what a failed mutation restores.
type RollbackPolicy int

const (
	// RollbackItem restores only the item the failed call touched.
	RollbackItem RollbackPolicy = iota
	// RollbackList restores the whole list as it was before the mutation,
	// discarding changes that landed in the meantime.
	RollbackList
)

// ViewItem is an item as the frontend shows it.
type ViewItem struct {
	ID        int
	Text      string
	Completed bool
	IsEditing bool
}

func (v ViewItem) forUpdate() todo.ItemForUpdate {
	return todo.ItemForUpdate{ID: v.ID, Text: v.Text, Completed: v.Completed}
}

func viewOf(dto todo.ItemDTO) ViewItem {
	return ViewItem{ID: dto.ID, Text: dto.Text, Completed: dto.Completed}
}

// Controller owns the list a frontend renders. Mutations apply locally
// first, then call the backend without holding the lock, and roll back on
// failure. Failures are not retried.
type Controller struct {
	api      Backend
	policy   RollbackPolicy
	onChange func()
	log      zerolog.Logger

	mu      sync.Mutex
	items   []ViewItem
	err     string
	loading bool
}

type ControllerOption func(*Controller)

func WithRollback(policy RollbackPolicy) ControllerOption {
	return func(c *Controller) { c.policy = policy }
}

// WithOnChange registers fn to run after every local state change. It runs
// outside the controller lock.
func WithOnChange(fn func()) ControllerOption {
	return func(c *Controller) { c.onChange = fn }
}

func NewController(api Backend, opts ...ControllerOption) *Controller {
	c := &Controller{
		api:    api,
		policy: RollbackItem,
		log:    logging.Component("client"),
		items:  []ViewItem{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Items returns a copy of the current list.
func (c *Controller) Items() []ViewItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// Err returns the last user visible error message, or "" when none.
func (c *Controller) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Load replaces the list with the server's. On failure the list is empty and
// the error message is set.
func (c *Controller) Load(ctx context.Context) error {
	c.update(func() {
		c.loading = true
		c.err = ""
	})

	dtos, err := c.api.List(ctx)

	c.update(func() {
		c.loading = false
		if err != nil {
			c.items = []ViewItem{}
			c.err = err.Error()
			return
		}
		items := make([]ViewItem, 0, len(dtos))
		for _, dto := range dtos {
			items = append(items, viewOf(dto))
		}
		c.items = items
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("load items failed")
	}
	return err
}

// Add creates the item on the server and appends it once it is confirmed.
func (c *Controller) Add(ctx context.Context, text string) error {
	c.update(func() { c.err = "" })

	created, err := c.api.Create(ctx, text)

	c.update(func() {
		if err != nil {
			c.err = err.Error()
			return
		}
		c.items = append(c.items, viewOf(created))
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("create item failed")
	}
	return err
}

// Remove drops the item locally, then deletes it on the server.
func (c *Controller) Remove(ctx context.Context, id int) error {
	var (
		snapshot []ViewItem
		removed  ViewItem
		index    int
		found    bool
	)
	c.update(func() {
		snapshot = slices.Clone(c.items)
		index = c.indexOf(id)
		if index < 0 {
			return
		}
		found = true
		removed = c.items[index]
		c.items = slices.Delete(c.items, index, index+1)
	})

	err := c.api.Delete(ctx, id)
	if err == nil {
		return nil
	}

	c.log.Warn().Err(err).Int("id", id).Msg("delete item failed")
	c.update(func() {
		c.err = err.Error()
		if c.policy == RollbackList {
			c.items = snapshot
			return
		}
		if !found || c.indexOf(id) >= 0 {
			return
		}
		at := min(index, len(c.items))
		c.items = slices.Insert(c.items, at, removed)
	})
	return err
}

// ToggleCompleted flips the completed flag locally, then sends the full
// item. The server response is not reconciled.
func (c *Controller) ToggleCompleted(ctx context.Context, id int) error {
	var (
		snapshot []ViewItem
		before   ViewItem
		updated  ViewItem
		found    bool
	)
	c.update(func() {
		snapshot = slices.Clone(c.items)
		i := c.indexOf(id)
		if i < 0 {
			return
		}
		found = true
		before = c.items[i]
		c.items[i].Completed = !c.items[i].Completed
		updated = c.items[i]
	})
	if !found {
		return nil
	}

	_, err := c.api.Replace(ctx, updated.forUpdate())
	if err == nil {
		return nil
	}

	c.log.Warn().Err(err).Int("id", id).Msg("update item failed")
	c.rollback(err, snapshot, id, func(item *ViewItem) {
		item.Completed = before.Completed
	})
	return err
}

// BeginEdit puts the item into edit mode. It has no server effect.
func (c *Controller) BeginEdit(id int) {
	c.setEditing(id, true)
}

// CancelEdit leaves edit mode without saving.
func (c *Controller) CancelEdit(id int) {
	c.setEditing(id, false)
}

// SaveEdit applies the new text locally and leaves edit mode, then replaces
// the item on the server keeping its completed flag. On success the item is
// reconciled with the server's copy. On failure the text is rolled back and
// edit mode stays off.
func (c *Controller) SaveEdit(ctx context.Context, id int, text string) error {
	var (
		snapshot []ViewItem
		before   ViewItem
		payload  todo.ItemForUpdate
		found    bool
	)
	c.update(func() {
		snapshot = slices.Clone(c.items)
		i := c.indexOf(id)
		if i < 0 {
			return
		}
		found = true
		before = c.items[i]
		c.items[i].Text = text
		c.items[i].IsEditing = false
		payload = todo.ItemForUpdate{ID: id, Text: text, Completed: before.Completed}
	})
	if !found {
		return nil
	}

	saved, err := c.api.Replace(ctx, payload)
	if err != nil {
		c.log.Warn().Err(err).Int("id", id).Msg("save item failed")
		c.rollback(err, snapshot, id, func(item *ViewItem) {
			item.Text = before.Text
		})
		c.setEditing(id, false)
		return err
	}

	c.update(func() {
		if i := c.indexOf(id); i >= 0 {
			c.items[i] = viewOf(saved)
		}
	})
	return nil
}

// rollback restores the snapshot under RollbackList. Under RollbackItem it
// applies restore to the item with id only.
func (c *Controller) rollback(err error, snapshot []ViewItem, id int, restore func(*ViewItem)) {
	c.update(func() {
		c.err = err.Error()
		if c.policy == RollbackList {
			c.items = snapshot
			return
		}
		if i := c.indexOf(id); i >= 0 {
			restore(&c.items[i])
		}
	})
}

func (c *Controller) setEditing(id int, editing bool) {
	c.update(func() {
		if i := c.indexOf(id); i >= 0 {
			c.items[i].IsEditing = editing
		}
	})
}

// indexOf expects mu to be held.
func (c *Controller) indexOf(id int) int {
	return slices.IndexFunc(c.items, func(item ViewItem) bool { return item.ID == id })
}

// update runs fn under the lock, then notifies the change hook.
func (c *Controller) update(fn func()) {
	c.mu.Lock()
	fn()
	c.mu.Unlock()

	if c.onChange != nil {
		c.onChange()
	}
}
