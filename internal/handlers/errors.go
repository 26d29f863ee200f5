package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/nano-midea/feedengine/internal/apperr"
	"github.com/labstack/echo/v4"
)

// httpError maps an engine error to its HTTP status. The message of
// unclassified errors is not exposed.
func httpError(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	switch apperr.KindOf(err) {
	case apperr.ErrValidation:
		return echo.NewHTTPError(http.StatusBadRequest, message(err)).SetInternal(err)
	case apperr.ErrNotFound:
		return echo.NewHTTPError(http.StatusNotFound, message(err)).SetInternal(err)
	case apperr.ErrConflict:
		return echo.NewHTTPError(http.StatusConflict, message(err)).SetInternal(err)
	case apperr.ErrUnauthorized:
		return echo.NewHTTPError(http.StatusForbidden, message(err)).SetInternal(err)
	case apperr.ErrTimeout:
		return echo.NewHTTPError(http.StatusGatewayTimeout, "store timeout").SetInternal(err)
	case apperr.ErrUnavailable:
		return echo.NewHTTPError(http.StatusServiceUnavailable, "store unavailable").SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
	}
}

func message(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return err.Error()
}

// bind decodes and validates the request body into req.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	return c.Validate(req)
}

// page reads the cursor and limit query parameters.
func page(c echo.Context) (string, int, error) {
	var limit int
	if err := echo.QueryParamsBinder(c).Int("limit", &limit).BindError(); err != nil {
		return "", 0, echo.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
	}
	return c.QueryParam("cursor"), limit, nil
}
