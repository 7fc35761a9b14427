package utils

import "errors"

// Common application errors used across the gateway.
var (
	ErrNotFound             = errors.New("NOT_FOUND")
	ErrInvalidLayout        = errors.New("INVALID_LAYOUT")
	ErrInvalidFilter        = errors.New("INVALID_FILTER")
	ErrInvalidID            = errors.New("INVALID_ID")
	ErrConfirmationRequired = errors.New("CONFIRMATION_REQUIRED")
	ErrNoWorkspace          = errors.New("NO_WORKSPACE")
)
