// Package client talks to the item API and keeps the optimistic list state
// a frontend renders.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"todoapp/internal/envelope"
	"todoapp/internal/todo"
)

const itemsPath = "/api/ToDoItems"

// API is an HTTP client for the item endpoints. Every call unwraps the
// response envelope, so a failed envelope becomes an error carrying its
// joined messages.
type API struct {
	baseURL string
	http    *http.Client
}

// NewAPI returns a client for the server at baseURL. A nil httpClient gets a
// client with a ten second timeout.
func NewAPI(baseURL string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

func (a *API) List(ctx context.Context) ([]todo.ItemDTO, error) {
	items, err := call[[]todo.ItemDTO](ctx, a, http.MethodGet, itemsPath, nil)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []todo.ItemDTO{}
	}
	return items, nil
}

func (a *API) Get(ctx context.Context, id int) (todo.ItemDTO, error) {
	return call[todo.ItemDTO](ctx, a, http.MethodGet, itemPath(id), nil)
}

func (a *API) Create(ctx context.Context, text string) (todo.ItemDTO, error) {
	return call[todo.ItemDTO](ctx, a, http.MethodPost, itemsPath, todo.ItemForCreate{Text: text})
}

func (a *API) Replace(ctx context.Context, item todo.ItemForUpdate) (todo.ItemDTO, error) {
	return call[todo.ItemDTO](ctx, a, http.MethodPut, itemPath(item.ID), item)
}

func (a *API) Patch(ctx context.Context, id int, patch todo.Patch) (todo.ItemDTO, error) {
	return call[todo.ItemDTO](ctx, a, http.MethodPatch, itemPath(id), patch)
}

func (a *API) Delete(ctx context.Context, id int) error {
	_, err := call[struct{}](ctx, a, http.MethodDelete, itemPath(id), nil)
	return err
}

func itemPath(id int) string {
	return fmt.Sprintf("%s/%d", itemsPath, id)
}

func call[T any](ctx context.Context, a *API, method, path string, payload any) (T, error) {
	var zero T

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return zero, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return zero, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return zero, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Debug().Err(err).Msg("client: close response body")
		}
	}()

	if resp.StatusCode == http.StatusNoContent {
		return zero, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, fmt.Errorf("read %s %s response: %w", method, path, err)
	}

	var result envelope.Response[T]
	if err := json.Unmarshal(raw, &result); err != nil || (result.StatusCode == 0 && !result.IsSuccess) {
		return zero, fmt.Errorf("%s %s: unexpected response (status %d)", method, path, resp.StatusCode)
	}
	return result.Unwrap()
}
