package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	apierr "github.com/opst/playground/pkg/api/types/errors"
	"github.com/opst/playground/pkg/orchestrator"
)

// Orchestrator is what team handlers need.
//
// *orchestrator.Orchestrator satisfies this.
type Orchestrator interface {
	Join(ctx context.Context, req orchestrator.JoinRequest, log orchestrator.Logger) orchestrator.Outcome
	AwaitReadiness(ctx context.Context, team string, log orchestrator.Logger) orchestrator.Outcome
}

type Revoker interface {
	Revoke() *http.Cookie
}

type JoinRequestBody struct {
	Passcode *string `json:"passcode,omitempty"`
}

type JoinResponse struct {
	Message  string `json:"message"`
	Passcode string `json:"passcode,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// JoinHandler handles POST /:team/join .
//
// # Args
//
// - o: orchestrator
//
// - teamParam: name of the path parameter for team name
func JoinHandler(o Orchestrator, teamParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()

		body := new(JoinRequestBody)
		if err := json.NewDecoder(req.Body).Decode(body); err != nil && !errors.Is(err, io.EOF) {
			return apierr.BadRequest(`request body should be {"passcode": string}, or empty`, err)
		}

		jr := orchestrator.JoinRequest{Team: c.Param(teamParam)}
		if body.Passcode != nil {
			jr.Passcode = *body.Passcode
		}

		out := o.Join(req.Context(), jr, c.Logger())
		if !out.OK() {
			return failure(out)
		}
		if out.Session != nil {
			c.SetCookie(out.Session)
		}
		return c.JSON(http.StatusOK, JoinResponse{Message: out.Message, Passcode: out.Passcode})
	}
}

// WaitTillReadyHandler handles GET /:team/wait-till-ready .
//
// It keeps the request open until the instance of the team gets ready.
func WaitTillReadyHandler(o Orchestrator, teamParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		out := o.AwaitReadiness(c.Request().Context(), c.Param(teamParam), c.Logger())
		if !out.OK() {
			return failure(out)
		}
		return c.NoContent(http.StatusOK)
	}
}

// LogoutHandler handles POST /logout .
//
// It always succeeds, with or without session.
func LogoutHandler(r Revoker) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.SetCookie(r.Revoke())
		return c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
	}
}

func HealthzHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func failure(out orchestrator.Outcome) *echo.HTTPError {
	return apierr.NewErrorMessage(
		out.Status, out.Message,
		apierr.WithDescription(out.Description),
	)
}
