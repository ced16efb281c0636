package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"

	"realestate-lifecycle/internal/domain/shared"
)

const (
	HeaderActorID   = "Ax-Actor-Id"
	HeaderActorRole = "Ax-Actor-Role"
	HeaderRequestID = "Ax-Request-Id"
	HeaderRequestAt = "Ax-Request-At"
)

var reActorToken = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:@-]{0,63}$`)

func isMutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

// Actor puts the calling staff identity on the request context. Mutating requests must carry
// Ax-Actor-Id; reads may be anonymous.
func Actor() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			a := shared.Actor{
				ID:   strings.TrimSpace(req.Header.Get(HeaderActorID)),
				Role: strings.TrimSpace(req.Header.Get(HeaderActorRole)),
			}
			if a.ID == "" {
				if isMutating(req.Method) {
					return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing " + HeaderActorID})
				}
				return next(c)
			}
			if !reActorToken.MatchString(a.ID) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid " + HeaderActorID})
			}
			if a.Role != "" && !reActorToken.MatchString(a.Role) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid " + HeaderActorRole})
			}
			c.SetRequest(req.WithContext(shared.WithActor(req.Context(), a)))
			return next(c)
		}
	}
}
