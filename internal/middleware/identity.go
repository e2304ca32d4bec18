package middleware

// identity.go holds helpers shared across middleware files. The rate
// limiter and response cache key some strategies on the requesting
// account, falling back to "guest" for anonymous traffic.

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// accountKey returns a stable identifier for the requesting account,
// derived from the claims JWTAuth stored in context. Anonymous
// requests key as "guest".
func accountKey(c echo.Context) string {
	v := c.Get("account_id")
	if v == nil {
		return "guest"
	}
	switch id := v.(type) {
	case string:
		if id != "" {
			return id
		}
	case float64:
		// JSON numbers in JWT claims decode as float64.
		return fmt.Sprintf("%.0f", id)
	case uint64:
		return fmt.Sprintf("%d", id)
	}
	return "guest"
}
