package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"todoapp/internal/config"
	"todoapp/internal/logging"
	"todoapp/internal/store"
	"todoapp/internal/todo"
)

// Service applies the item rules on top of a store. Every operation holds
// mu for its whole duration; the stores themselves are not synchronized.
type Service struct {
	store              store.Store
	now                func() time.Time
	log                zerolog.Logger
	uniqueTextOnUpdate bool
	mu                 sync.Mutex
}

// Option adjusts a Service built by New.
type Option func(*Service)

// WithClock replaces time.Now for created and updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithUniqueTextOnUpdate makes replace and patch reject text that matches a
// different item.
func WithUniqueTextOnUpdate(enabled bool) Option {
	return func(s *Service) { s.uniqueTextOnUpdate = enabled }
}

func New(cfg config.Config, dataStore store.Store, opts ...Option) *Service {
	s := &Service{
		store:              dataStore,
		now:                time.Now,
		log:                logging.Component("service"),
		uniqueTextOnUpdate: cfg.UniqueTextOnUpdate,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bootstrap inserts the seed items when the store is empty.
func (s *Service) Bootstrap(ctx context.Context, seed []config.SeedItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	if len(items) > 0 || len(seed) == 0 {
		return nil
	}

	for _, entry := range seed {
		if err := todo.ValidateText(entry.Text); err != nil {
			return fmt.Errorf("seed item %q: %w", entry.Text, err)
		}
	}
	for _, entry := range seed {
		if _, err := s.store.Insert(ctx, todo.Item{
			Text:        entry.Text,
			Completed:   entry.Completed,
			CreatedDate: s.now(),
		}); err != nil {
			return fmt.Errorf("seed item %q: %w", entry.Text, err)
		}
	}
	s.log.Info().Int("count", len(seed)).Msg("seeded todo items")
	return nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) ListAll(ctx context.Context) ([]todo.ItemDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]todo.ItemDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, item.DTO())
	}
	return dtos, nil
}

func (s *Service) GetByID(ctx context.Context, id int) (todo.ItemDTO, error) {
	if id == 0 {
		return todo.ItemDTO{}, validationError("id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.get(ctx, id)
	if err != nil {
		return todo.ItemDTO{}, err
	}
	return item.DTO(), nil
}

func (s *Service) Create(ctx context.Context, input todo.ItemForCreate) (todo.ItemDTO, error) {
	if err := todo.ValidateText(input.Text); err != nil {
		return todo.ItemDTO{}, fieldValidationError(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.FindByText(ctx, input.Text, true); err == nil {
		return todo.ItemDTO{}, conflictError(input.Text)
	} else if !errors.Is(err, store.ErrNotFound) {
		return todo.ItemDTO{}, err
	}

	item, err := s.store.Insert(ctx, todo.Item{
		Text:        input.Text,
		Completed:   input.Completed,
		CreatedDate: s.now(),
	})
	if err != nil {
		return todo.ItemDTO{}, err
	}
	s.log.Debug().Int("id", item.ID).Msg("todo item created")
	return item.DTO(), nil
}

// Replace overwrites text and completed of an existing item.
func (s *Service) Replace(ctx context.Context, id int, input todo.ItemForUpdate) (todo.ItemDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.replace(ctx, id, input)
}

// ApplyPatch applies every operation to a working copy of the item, then
// stores the result with the same rules as Replace.
func (s *Service) ApplyPatch(ctx context.Context, id int, patch todo.Patch) (todo.ItemDTO, error) {
	if id == 0 {
		return todo.ItemDTO{}, validationError("id is required")
	}
	if len(patch) == 0 {
		return todo.ItemDTO{}, validationError("patch document is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.get(ctx, id)
	if err != nil {
		return todo.ItemDTO{}, err
	}
	working, err := patch.ApplyTo(current.ForUpdate())
	if err != nil {
		return todo.ItemDTO{}, fieldValidationError(err)
	}
	return s.replace(ctx, id, working)
}

func (s *Service) Delete(ctx context.Context, id int) error {
	if id == 0 {
		return validationError("id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.store.Remove(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return notFoundError(id)
	}
	s.log.Debug().Int("id", id).Msg("todo item deleted")
	return nil
}

// replace expects mu to be held.
func (s *Service) replace(ctx context.Context, id int, input todo.ItemForUpdate) (todo.ItemDTO, error) {
	if err := todo.ValidateForUpdate(id, input); err != nil {
		return todo.ItemDTO{}, fieldValidationError(err)
	}

	current, err := s.get(ctx, id)
	if err != nil {
		return todo.ItemDTO{}, err
	}

	if s.uniqueTextOnUpdate {
		other, err := s.store.FindByText(ctx, input.Text, true)
		switch {
		case err == nil && other.ID != id:
			return todo.ItemDTO{}, conflictError(input.Text)
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return todo.ItemDTO{}, err
		}
	}

	updated := s.now()
	current.Text = input.Text
	current.Completed = input.Completed
	current.UpdatedDate = &updated

	if err := s.store.Update(ctx, current); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return todo.ItemDTO{}, notFoundError(id)
		}
		return todo.ItemDTO{}, err
	}
	return current.DTO(), nil
}

func (s *Service) get(ctx context.Context, id int) (todo.Item, error) {
	item, err := s.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return todo.Item{}, notFoundError(id)
	}
	if err != nil {
		return todo.Item{}, err
	}
	return item, nil
}
