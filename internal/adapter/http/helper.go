package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"realestate-lifecycle/internal/domain/shared"
)

const dateLayout = "2006-01-02"

// parseDate reads a calendar date; empty means absent.
func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return nil, shared.Validationf("date %q must be formatted %s", raw, dateLayout)
	}
	return &t, nil
}

// parseInstant accepts RFC3339 or a bare calendar date (midnight UTC).
func parseInstant(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.ParseInLocation(dateLayout, raw, time.UTC); err == nil {
		return t, nil
	}
	return time.Time{}, shared.Validationf("timestamp %q must be RFC3339 or %s", raw, dateLayout)
}

// actorFrom reads the identity set by the actor middleware.
func actorFrom(c echo.Context) shared.Actor {
	a, _ := shared.ActorFrom(c.Request().Context())
	return a
}

func missingID(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing id path param", Kind: string(shared.KindValidation)})
}

func queryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, shared.Validationf("query %s must be a non-negative integer", name)
	}
	return n, nil
}
