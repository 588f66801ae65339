package service

import "errors"

// Sentinel errors services wrap with context. Handlers map them to HTTP
// status codes: ErrNotFound → 404, ErrConflict → 409, everything else
// raised by validation → 400.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicateSerial   = errors.New("duplicate serial number")
)
