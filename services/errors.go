package services

import "errors"

// Sentinel errors returned by the service layer. Controllers map them onto
// HTTP statuses and app codes; everything else is treated as a persistence
// failure.
var (
	ErrUnauthorized = errors.New("caller is not allowed to perform this action")
	ErrNotFound     = errors.New("record not found")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflicting concurrent write")
)
