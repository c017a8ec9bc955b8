// Package envelope defines the uniform wrapper returned by every item endpoint.
package envelope

import (
	"errors"
	"strings"
)

// Response wraps a result with its status. Result is nil on failure.
type Response[T any] struct {
	StatusCode    int      `json:"statusCode"`
	IsSuccess     bool     `json:"isSuccess"`
	ErrorMessages []string `json:"errorMessages"`
	Result        *T       `json:"result"`
}

// OK builds a successful response.
func OK[T any](status int, result T) Response[T] {
	return Response[T]{
		StatusCode:    status,
		IsSuccess:     true,
		ErrorMessages: []string{},
		Result:        &result,
	}
}

// Fail builds a failed response with one entry per message.
func Fail(status int, messages ...string) Response[any] {
	if messages == nil {
		messages = []string{}
	}
	return Response[any]{
		StatusCode:    status,
		IsSuccess:     false,
		ErrorMessages: messages,
	}
}

// Unwrap returns the result of a successful response or an error carrying
// the joined messages.
func (r Response[T]) Unwrap() (T, error) {
	var zero T
	if !r.IsSuccess {
		message := strings.Join(r.ErrorMessages, "; ")
		if message == "" {
			message = "Unknown API error"
		}
		return zero, errors.New(message)
	}
	if r.Result == nil {
		return zero, nil
	}
	return *r.Result, nil
}
