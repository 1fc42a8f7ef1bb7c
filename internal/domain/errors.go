package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")

	ErrMissingApartment  = errors.New("apartment is required")
	ErrInvalidApartment  = errors.New("invalid apartment number format")
	ErrApartmentNotFound = errors.New("apartment not found")
	ErrNotBound          = errors.New("apartment has no linked account")
	ErrInvalidDays       = errors.New("days must be a positive integer")
)
