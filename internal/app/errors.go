package app

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"todoapp/internal/store"
	"todoapp/internal/todo"
)

// Error codes.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeConflict   = "CONFLICT"
	CodeNotFound   = "NOT_FOUND"
	CodeInternal   = "SERVER_ERROR"
)

type DomainError struct {
	Status   int
	Code     string
	Messages []string
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, strings.Join(e.Messages, "; "))
}

func domainError(status int, code string, messages ...string) *DomainError {
	return &DomainError{
		Status:   status,
		Code:     code,
		Messages: messages,
	}
}

func validationError(messages ...string) *DomainError {
	return domainError(http.StatusBadRequest, CodeValidation, messages...)
}

// fieldValidationError converts criterio field errors, falling back to the
// plain error text.
func fieldValidationError(err error) *DomainError {
	if messages := todo.FieldMessages(err); len(messages) > 0 {
		return validationError(messages...)
	}
	return validationError(err.Error())
}

func conflictError(text string) *DomainError {
	return domainError(http.StatusBadRequest, CodeConflict, fmt.Sprintf("ToDoItem %q already exists", text))
}

func notFoundError(id int) *DomainError {
	return domainError(http.StatusNotFound, CodeNotFound, fmt.Sprintf("ToDoItem %d not found", id))
}

// mapError converts any error reaching the HTTP boundary into a status and
// the messages for the envelope.
func mapError(err error) (status int, code string, messages []string) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Messages
	}
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound, CodeNotFound, []string{"ToDoItem not found"}
	}
	if messages := todo.FieldMessages(err); len(messages) > 0 {
		return http.StatusBadRequest, CodeValidation, messages
	}
	return http.StatusInternalServerError, CodeInternal, []string{err.Error()}
}
