package domain

import "errors"

// Sentinel errors shared across services and handlers. Rate-limit and
// insufficient-credit hits are frequent, expected outcomes; handlers map them
// to 429/400 without logging them as failures.
var (
	ErrInvalidCoordinate   = errors.New("latitude must be in [-90,90] and longitude in [-180,180]")
	ErrInvalidInput        = errors.New("missing or malformed request field")
	ErrRateLimited         = errors.New("rate limit exceeded")
	ErrNotFound            = errors.New("resource not found or inactive")
	ErrInsufficientCredits = errors.New("insufficient available credits")
	ErrDuplicateReference  = errors.New("payment reference already recorded")
	ErrUnauthorized        = errors.New("missing or invalid credentials")
	ErrForbidden           = errors.New("operation not permitted for this account")
	ErrPaymentFailed       = errors.New("payment gateway rejected the charge")
	ErrEmailExists         = errors.New("email already registered")
)
