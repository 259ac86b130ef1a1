package errors_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	apierr "github.com/opst/playground/pkg/api/types/errors"
)

func TestNewErrorMessage(t *testing.T) {
	t.Run("echo renders it as {message, description}", func(t *testing.T) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		resp := httptest.NewRecorder()
		c := e.NewContext(req, resp)

		cause := errors.New("fake error")
		e.DefaultHTTPErrorHandler(
			apierr.NewErrorMessage(
				http.StatusInternalServerError, "capacity exhausted",
				apierr.WithDescription("contact the operator"),
				apierr.WithError(cause),
			),
			c,
		)

		if resp.Code != http.StatusInternalServerError {
			t.Errorf("unexpected status: %d", resp.Code)
		}
		body := map[string]any{}
		if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		want := map[string]any{"message": "capacity exhausted", "description": "contact the operator"}
		if len(body) != len(want) || body["message"] != want["message"] || body["description"] != want["description"] {
			t.Errorf("unexpected body: %v", body)
		}
	})

	t.Run("description is omitted when empty", func(t *testing.T) {
		b, err := json.Marshal(apierr.ErrorMessage{Message: "wrong passcode"})
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != `{"message":"wrong passcode"}` {
			t.Errorf("unexpected json: %s", b)
		}
	})

	t.Run("cause can be unwrapped", func(t *testing.T) {
		cause := errors.New("fake error")
		herr := apierr.NewErrorMessage(http.StatusInternalServerError, "failed", apierr.WithError(cause))
		if !errors.Is(herr.Internal, cause) {
			t.Errorf("cause is lost: %v", herr.Internal)
		}
	})
}

func TestErrorMessage_UnmarshalJSON(t *testing.T) {
	t.Run("it reads message and description", func(t *testing.T) {
		got := apierr.ErrorMessage{}
		if err := json.Unmarshal([]byte(`{"message":"m","description":"d"}`), &got); err != nil {
			t.Fatal(err)
		}
		if got.Message != "m" || got.Description != "d" {
			t.Errorf("unexpected: %+v", got)
		}
	})

	t.Run("message is required", func(t *testing.T) {
		got := apierr.ErrorMessage{}
		if err := json.Unmarshal([]byte(`{"description":"d"}`), &got); err == nil {
			t.Error("expected error, but got nil")
		}
	})
}
