package domain

import "errors"

var (
	// ErrNotConfigured means the merchant receiving address is unset, so
	// crypto checkout cannot be offered at all.
	ErrNotConfigured = errors.New("nano payments are not configured")

	ErrNoItems           = errors.New("no items provided")
	ErrInvalidTotal      = errors.New("invalid order total")
	ErrPriceUnavailable  = errors.New("exchange rate unavailable")
	ErrSessionNotFound   = errors.New("payment session not found")
	ErrSessionNotPending = errors.New("payment session is not pending")
	ErrValidation        = errors.New("validation failed")
)
