package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"realestate-lifecycle/internal/domain/shared"
)

// statusFor maps a domain error kind to its HTTP status.
func statusFor(kind shared.Kind) int {
	switch kind {
	case shared.KindValidation:
		return http.StatusBadRequest
	case shared.KindMissingReason:
		return http.StatusUnprocessableEntity
	case shared.KindNotFound:
		return http.StatusNotFound
	case shared.KindInvalidTransition, shared.KindAlreadyConverted, shared.KindAlreadyPaid,
		shared.KindConcurrentModification:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {error, kind}. Errors outside the domain taxonomy are logged
// upstream and reported without detail.
func writeError(c echo.Context, err error) error {
	var de *shared.Error
	if !errors.As(err, &de) {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
	return c.JSON(statusFor(de.Kind), ErrorResponse{Error: de.Error(), Kind: string(de.Kind)})
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body", Kind: string(shared.KindValidation)})
}

func validationFailed(c echo.Context, err error) error {
	return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation failed",
		Kind:    string(shared.KindValidation),
		Details: ToFieldErrors(err),
	})
}
