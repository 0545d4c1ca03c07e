package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("conflict")
	ErrCapacityExceeded  = errors.New("capacity exceeded")
	ErrInvalidDate       = errors.New("invalid date")
	ErrValidation        = errors.New("validation failed")
	ErrRateLimited       = errors.New("rate limited")
)
