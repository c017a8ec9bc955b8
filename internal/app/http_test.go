package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todoapp/internal/config"
	"todoapp/internal/envelope"
	"todoapp/internal/todo"
)

func newSeededServer(t *testing.T) (http.Handler, *fakeStore) {
	t.Helper()
	fs := newFakeStore()
	svc := newTestService(fs)
	require.NoError(t, svc.Bootstrap(context.Background(), config.DefaultSeed()))
	return NewHTTPServer(svc, "*").Handler(), fs
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decodeEnvelope[T any](t *testing.T, rr *httptest.ResponseRecorder) envelope.Response[T] {
	t.Helper()
	var resp envelope.Response[T]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), "body: %s", rr.Body.String())
	return resp
}

func TestItemsEndToEnd(t *testing.T) {
	handler, _ := newSeededServer(t)

	rr := doRequest(t, handler, http.MethodGet, "/api/ToDoItems", "")
	require.Equal(t, http.StatusOK, rr.Code)
	list := decodeEnvelope[[]todo.ItemDTO](t, rr)
	assert.True(t, list.IsSuccess)
	assert.Equal(t, http.StatusOK, list.StatusCode)
	assert.Empty(t, list.ErrorMessages)
	require.NotNil(t, list.Result)
	assert.Equal(t, []todo.ItemDTO{
		{ID: 1, Text: "ToDo item 1"},
		{ID: 2, Text: "ToDo item 2"},
		{ID: 3, Text: "ToDo item 3"},
	}, *list.Result)

	rr = doRequest(t, handler, http.MethodPost, "/api/ToDoItems", `{"text":"A new POST ToDo item"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "/api/ToDoItems/4", rr.Header().Get("Location"))
	created := decodeEnvelope[todo.ItemDTO](t, rr)
	assert.Equal(t, http.StatusCreated, created.StatusCode)
	assert.Equal(t, todo.ItemDTO{ID: 4, Text: "A new POST ToDo item"}, *created.Result)

	rr = doRequest(t, handler, http.MethodDelete, "/api/ToDoItems/4", "")
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Zero(t, rr.Body.Len())

	rr = doRequest(t, handler, http.MethodGet, "/api/ToDoItems/4", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	missing := decodeEnvelope[todo.ItemDTO](t, rr)
	assert.False(t, missing.IsSuccess)
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
	assert.Nil(t, missing.Result)
	assert.NotEmpty(t, missing.ErrorMessages)
}

func TestFailureEnvelopeShape(t *testing.T) {
	handler, _ := newSeededServer(t)

	rr := doRequest(t, handler, http.MethodGet, "/api/ToDoItems/99", "")
	require.Equal(t, http.StatusNotFound, rr.Code)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw))
	assert.Equal(t, float64(404), raw["statusCode"])
	assert.Equal(t, false, raw["isSuccess"])
	assert.Nil(t, raw["result"])
	assert.Contains(t, raw, "result")
	assert.IsType(t, []any{}, raw["errorMessages"])
}

func TestItemRoutes(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{name: "get by id", method: http.MethodGet, path: "/api/ToDoItems/2", wantStatus: http.StatusOK},
		{name: "case insensitive resource", method: http.MethodGet, path: "/api/todoitems/2", wantStatus: http.StatusOK},
		{name: "trailing slash", method: http.MethodGet, path: "/api/ToDoItems/", wantStatus: http.StatusOK},
		{name: "get id zero", method: http.MethodGet, path: "/api/ToDoItems/0", wantStatus: http.StatusBadRequest},
		{name: "non integer id", method: http.MethodGet, path: "/api/ToDoItems/abc", wantStatus: http.StatusNotFound},
		{name: "unknown route", method: http.MethodGet, path: "/api/Other", wantStatus: http.StatusNotFound},
		{name: "nested route", method: http.MethodGet, path: "/api/ToDoItems/1/extra", wantStatus: http.StatusNotFound},
		{name: "post duplicate", method: http.MethodPost, path: "/api/ToDoItems", body: `{"text":"todo ITEM 1"}`, wantStatus: http.StatusBadRequest},
		{name: "post blank", method: http.MethodPost, path: "/api/ToDoItems", body: `{"text":""}`, wantStatus: http.StatusBadRequest},
		{name: "post malformed", method: http.MethodPost, path: "/api/ToDoItems", body: `{"text":`, wantStatus: http.StatusBadRequest},
		{name: "post empty body", method: http.MethodPost, path: "/api/ToDoItems", wantStatus: http.StatusBadRequest},
		{name: "put", method: http.MethodPut, path: "/api/ToDoItems/1", body: `{"id":1,"text":"ToDo item 1","completed":true}`, wantStatus: http.StatusOK},
		{name: "put mismatch", method: http.MethodPut, path: "/api/ToDoItems/1", body: `{"id":2,"text":"x"}`, wantStatus: http.StatusBadRequest},
		{name: "put absent", method: http.MethodPut, path: "/api/ToDoItems/50", body: `{"id":50,"text":"x"}`, wantStatus: http.StatusNotFound},
		{name: "patch", method: http.MethodPatch, path: "/api/ToDoItems/1", body: `[{"op":"replace","path":"/completed","value":true}]`, wantStatus: http.StatusOK},
		{name: "patch empty", method: http.MethodPatch, path: "/api/ToDoItems/1", body: `[]`, wantStatus: http.StatusBadRequest},
		{name: "patch bad path", method: http.MethodPatch, path: "/api/ToDoItems/1", body: `[{"op":"replace","path":"/id","value":3}]`, wantStatus: http.StatusBadRequest},
		{name: "patch not array", method: http.MethodPatch, path: "/api/ToDoItems/1", body: `{"op":"replace"}`, wantStatus: http.StatusBadRequest},
		{name: "patch absent", method: http.MethodPatch, path: "/api/ToDoItems/50", body: `[{"op":"replace","path":"/text","value":"x"}]`, wantStatus: http.StatusNotFound},
		{name: "delete id zero", method: http.MethodDelete, path: "/api/ToDoItems/0", wantStatus: http.StatusBadRequest},
		{name: "delete absent", method: http.MethodDelete, path: "/api/ToDoItems/50", wantStatus: http.StatusNotFound},
		{name: "collection method", method: http.MethodDelete, path: "/api/ToDoItems", wantStatus: http.StatusMethodNotAllowed},
		{name: "item method", method: http.MethodPost, path: "/api/ToDoItems/1", body: `{}`, wantStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _ := newSeededServer(t)

			rr := doRequest(t, handler, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code, "body: %s", rr.Body.String())

			resp := decodeEnvelope[any](t, rr)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantStatus < 300, resp.IsSuccess)
		})
	}
}

func TestPatchTextLeavesCompletedOverHTTP(t *testing.T) {
	handler, _ := newSeededServer(t)

	rr := doRequest(t, handler, http.MethodPut, "/api/ToDoItems/2", `{"id":2,"text":"ToDo item 2","completed":true}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, handler, http.MethodPatch, "/api/ToDoItems/2", `[{"op":"Replace","path":"/Text","value":"renamed"}]`)
	require.Equal(t, http.StatusOK, rr.Code)
	patched := decodeEnvelope[todo.ItemDTO](t, rr)
	assert.Equal(t, todo.ItemDTO{ID: 2, Text: "renamed", Completed: true}, *patched.Result)
}

func TestValidationMessagesReachEnvelope(t *testing.T) {
	handler, _ := newSeededServer(t)

	rr := doRequest(t, handler, http.MethodPost, "/api/ToDoItems", `{"text":"   "}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	resp := decodeEnvelope[todo.ItemDTO](t, rr)
	assert.Equal(t, []string{"text: is required"}, resp.ErrorMessages)

	rr = doRequest(t, handler, http.MethodPost, "/api/ToDoItems", `{"text":"not json"`)
	resp = decodeEnvelope[todo.ItemDTO](t, rr)
	assert.Equal(t, []string{"invalid JSON body"}, resp.ErrorMessages)
}

func TestPanicBecomesServerError(t *testing.T) {
	fs := newFakeStore()
	fs.listFn = func(context.Context) ([]todo.Item, error) {
		panic("store exploded")
	}
	handler := NewHTTPServer(newTestService(fs), "*").Handler()

	rr := doRequest(t, handler, http.MethodGet, "/api/ToDoItems", "")
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	resp := decodeEnvelope[any](t, rr)
	assert.False(t, resp.IsSuccess)
	assert.Equal(t, []string{"Internal server error"}, resp.ErrorMessages)

	// The service lock is released by the deferred unlock.
	fs.listFn = nil
	rr = doRequest(t, handler, http.MethodGet, "/api/ToDoItems", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}
