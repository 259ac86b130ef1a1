package handlers

import (
	"errors"

	"github.com/labstack/echo/v4"
)

const teamParam = "team"

// Route registers the playground API to e.
func Route(e *echo.Echo, o Orchestrator, r Revoker) {
	e.POST("/:"+teamParam+"/join", JoinHandler(o, teamParam))
	e.GET("/:"+teamParam+"/wait-till-ready", WaitTillReadyHandler(o, teamParam))
	e.POST("/logout", LogoutHandler(r))
	e.GET("/healthz", HealthzHandler)
}

// ErrorHandler renders errors with echo's default handler, and logs them.
//
// HTTPErrors are logged at debug level only. They are outcomes already
// logged at their own level where they are decided.
func ErrorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		e.DefaultHTTPErrorHandler(err, c)

		var herr *echo.HTTPError
		if errors.As(err, &herr) {
			c.Logger().Debugf("%d: %v", herr.Code, err)
			return
		}
		c.Logger().Error(err)
	}
}
