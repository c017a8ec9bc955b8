package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"todoapp/internal/envelope"
	"todoapp/internal/logging"
	"todoapp/internal/todo"
)

const (
	itemsResource = "ToDoItems"
	maxBodyBytes  = 1 << 20
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
	log        zerolog.Logger
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{
		service:    service,
		corsOrigin: corsOrigin,
		log:        logging.Component("http"),
	}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(s.recoverPanics(http.HandlerFunc(s.handle)))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		s.handleReady(w, r)
		return
	}

	parts := splitPath(r.URL.Path)
	if len(parts) < 2 || !strings.EqualFold(parts[0], "api") || !strings.EqualFold(parts[1], itemsResource) {
		writeFailure(w, http.StatusNotFound, "Not found")
		return
	}

	switch len(parts) {
	case 2:
		s.handleCollection(w, r)
	case 3:
		id, err := strconv.Atoi(parts[2])
		if err != nil {
			writeFailure(w, http.StatusNotFound, "Not found")
			return
		}
		s.handleItem(w, r, id)
	default:
		writeFailure(w, http.StatusNotFound, "Not found")
	}
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	statusCode := http.StatusOK
	checks := map[string]any{
		"store": map[string]any{"status": "ok"},
	}

	if err := s.service.Ping(ctx); err != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		checks["store"] = map[string]any{
			"status": "error",
			"error":  err.Error(),
		}
	}

	writeJSON(w, statusCode, map[string]any{
		"ok":     status == "ready",
		"status": status,
		"checks": checks,
	})
}

func (s *HTTPServer) handleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		items, err := s.service.ListAll(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, envelope.OK(http.StatusOK, items))

	case http.MethodPost:
		var body todo.ItemForCreate
		if err := decodeBody(r, &body); err != nil {
			writeFailure(w, http.StatusBadRequest, err.Error())
			return
		}
		item, err := s.service.Create(r.Context(), body)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Location", fmt.Sprintf("/api/%s/%d", itemsResource, item.ID))
		writeJSON(w, http.StatusCreated, envelope.OK(http.StatusCreated, item))

	default:
		writeFailure(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *HTTPServer) handleItem(w http.ResponseWriter, r *http.Request, id int) {
	switch r.Method {
	case http.MethodGet:
		item, err := s.service.GetByID(r.Context(), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, envelope.OK(http.StatusOK, item))

	case http.MethodPut:
		var body todo.ItemForUpdate
		if err := decodeBody(r, &body); err != nil {
			writeFailure(w, http.StatusBadRequest, err.Error())
			return
		}
		item, err := s.service.Replace(r.Context(), id, body)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, envelope.OK(http.StatusOK, item))

	case http.MethodPatch:
		data, err := readBody(r)
		if err != nil {
			writeFailure(w, http.StatusBadRequest, err.Error())
			return
		}
		patch, err := todo.DecodePatch(data)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		item, err := s.service.ApplyPatch(r.Context(), id, patch)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, envelope.OK(http.StatusOK, item))

	case http.MethodDelete:
		if err := s.service.Delete(r.Context(), id); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeFailure(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, messages := mapError(err)
	if status >= http.StatusInternalServerError {
		s.log.Error().
			Err(err).
			Str("request_id", logging.GetRequestID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
	} else {
		s.log.Debug().Str("code", code).Strs("messages", messages).Msg("request rejected")
	}
	writeFailure(w, status, messages...)
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		r = r.WithContext(logging.WithRequestID(r.Context(), requestID))

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		s.log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", writer.status).
			Int64("duration_ms", time.Since(started).Milliseconds()).
			Msg("request")
	})
}

func (s *HTTPServer) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error().
					Str("request_id", logging.GetRequestID(r.Context())).
					Interface("panic", rec).
					Msg("handler panicked")
				writeFailure(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
	header.Set("Access-Control-Expose-Headers", "Location, X-Request-ID")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeFailure(w http.ResponseWriter, status int, messages ...string) {
	writeJSON(w, status, envelope.Fail(status, messages...))
}

func decodeBody(r *http.Request, target any) error {
	data, err := readBody(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, errors.New("request body is required")
	}
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, errors.New("could not read request body")
	}
	if len(data) > maxBodyBytes {
		return nil, errors.New("request body too large")
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.New("request body is required")
	}
	return data, nil
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
