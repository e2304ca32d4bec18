package handler // HTTP handlers for the REST surface

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/boardgameshare/server/internal/model"
	"github.com/boardgameshare/server/internal/service"
)

// principal rebuilds the acting account from the JWT claims stored in
// context by the auth middleware. Only the ID and role flag are
// needed; the authorization gate works on those alone.
func principal(c echo.Context) (model.Account, bool) {
	id, ok := claimUint(c.Get("account_id"))
	if !ok || id == 0 {
		return model.Account{}, false
	}
	role, _ := c.Get("role").(string)
	return model.Account{ID: id, Role: role}, true
}

// claimUint coerces a JWT claim value to uint64. Numeric claims decode
// as float64; some issuers use strings.
func claimUint(v interface{}) (uint64, bool) {
	switch t := v.(type) {
	case float64:
		return uint64(t), true
	case uint64:
		return t, true
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// writeServiceError maps engine error kinds onto HTTP responses. The
// error message carries the kind prefix plus detail, which is what
// clients see.
func writeServiceError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrDependency):
		status = http.StatusBadGateway
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}
