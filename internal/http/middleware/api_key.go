package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v4"
)

const clientKeyCtx = "client_key"

// ClientKeyFromCtx returns the API key the request authenticated with.
func ClientKeyFromCtx(c echo.Context) (string, bool) {
	v, ok := c.Get(clientKeyCtx).(string)
	return v, ok && v != ""
}

// APIKeyMiddleware authenticates requests using the X-API-Key header
// against the configured key set. An empty set disables authentication,
// which is only sensible for local development.
func APIKeyMiddleware(keys []string) echo.MiddlewareFunc {
	allowed := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			allowed = append(allowed, k)
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(allowed) == 0 {
				return next(c)
			}

			key := strings.TrimSpace(c.Request().Header.Get("X-API-Key"))
			if key == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing api key"})
			}
			for _, k := range allowed {
				if subtle.ConstantTimeCompare([]byte(k), []byte(key)) == 1 {
					c.Set(clientKeyCtx, key)
					return next(c)
				}
			}
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid api key"})
		}
	}
}
