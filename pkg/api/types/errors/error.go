package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ErrorMessage is the body of non-2xx responses.
type ErrorMessage struct {
	Message     string `json:"message"`
	Description string `json:"description,omitempty"`
	Cause       error  `json:"-"`
}

// MarshalJSON renders the message as a response body.
//
// echo renders errors by Error() unless they are json.Marshaler.
func (e ErrorMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Message     string `json:"message"`
		Description string `json:"description,omitempty"`
	}{Message: e.Message, Description: e.Description})
}

func (em *ErrorMessage) UnmarshalJSON(bytes []byte) error {
	f := new(struct {
		Message     *string `json:"message"`
		Description *string `json:"description,omitempty"`
	})
	if err := json.Unmarshal(bytes, f); err != nil {
		return err
	}

	if f.Message == nil {
		return fmt.Errorf(`required field missing: "message"`)
	}
	em.Message = *f.Message

	if f.Description != nil {
		em.Description = *f.Description
	}

	return nil
}

func (e ErrorMessage) String() string {
	lines := []string{e.Message}
	if e.Description != "" {
		lines = append(lines, e.Description)
	}
	if e.Cause != nil {
		lines = append(lines, fmt.Sprint(" caused by:", e.Cause.Error()))
	}
	return strings.Join(lines, "\n")
}

func (e ErrorMessage) Error() string {
	return e.String()
}

func (e ErrorMessage) Unwrap() error {
	return e.Cause
}

type ErrorMessageOption func(in *ErrorMessage) *ErrorMessage

func WithDescription(description string) ErrorMessageOption {
	return func(in *ErrorMessage) *ErrorMessage {
		if description != "" {
			in.Description = description
		}
		return in
	}
}

func WithError(err error) ErrorMessageOption {
	return func(in *ErrorMessage) *ErrorMessage {
		if err != nil {
			in.Cause = err
		}
		return in
	}
}

// NewErrorMessage builds an error which echo renders as ErrorMessage.
func NewErrorMessage(code int, message string, opts ...ErrorMessageOption) *echo.HTTPError {
	msg := ErrorMessage{Message: message}
	for _, opt := range opts {
		msg = *opt(&msg)
	}

	return echo.NewHTTPError(code, msg).SetInternal(msg)
}

func BadRequest(description string, err error) *echo.HTTPError {
	return NewErrorMessage(
		http.StatusBadRequest,
		"invalid request",
		WithDescription(description),
		WithError(err),
	)
}
