package rest

import (
	"errors"
	"net/http"

	"github.com/domflow/tigerad/domain"
	jsonres "github.com/domflow/tigerad/pkg/response"
	"github.com/labstack/echo/v4"
)

// writeError translates business sentinels into HTTP responses. Anything
// unmapped is a 500 with a generic body so internals never leak.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidCoordinate), errors.Is(err, domain.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, jsonres.Error("BAD_REQUEST", err.Error(), nil))
	case errors.Is(err, domain.ErrInsufficientCredits):
		return c.JSON(http.StatusBadRequest, jsonres.Error("INSUFFICIENT_CREDITS", err.Error(), nil))
	case errors.Is(err, domain.ErrDuplicateReference):
		return c.JSON(http.StatusConflict, jsonres.Error("DUPLICATE_REFERENCE", err.Error(), nil))
	case errors.Is(err, domain.ErrEmailExists):
		return c.JSON(http.StatusConflict, jsonres.Error("EMAIL_EXISTS", err.Error(), nil))
	case errors.Is(err, domain.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, jsonres.Error("UNAUTHORIZED", "Invalid credentials", nil))
	case errors.Is(err, domain.ErrForbidden):
		return c.JSON(http.StatusForbidden, jsonres.Error("FORBIDDEN", "Access denied", nil))
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, jsonres.Error("NOT_FOUND", err.Error(), nil))
	case errors.Is(err, domain.ErrRateLimited):
		return c.JSON(http.StatusTooManyRequests, jsonres.Error("RATE_LIMITED", "Too many requests, try again later", nil))
	case errors.Is(err, domain.ErrPaymentFailed):
		return c.JSON(http.StatusBadGateway, jsonres.Error("PAYMENT_FAILED", err.Error(), nil))
	default:
		return c.JSON(http.StatusInternalServerError, jsonres.Error("INTERNAL_ERROR", "Internal server error", nil))
	}
}

// ownerID reads the authenticated owner set by the auth middleware.
func ownerID(c echo.Context) (uint64, bool) {
	id, ok := c.Get("user_id").(uint64)
	return id, ok
}
