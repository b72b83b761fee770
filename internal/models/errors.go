package models

import "errors"

// Domain errors. Handlers map these to HTTP statuses: validation errors to
// 400, ErrNotFound to 404, the rest to 409.
var (
	ErrNotFound          = errors.New("order not found")
	ErrInvalidCart       = errors.New("invalid cart")
	ErrInvalidAddress    = errors.New("invalid address")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNoteRequired      = errors.New("note required")
	ErrNotCancellable    = errors.New("order can no longer be cancelled")
	ErrDuplicateNumber   = errors.New("order number already in use")
	ErrConcurrentUpdate  = errors.New("order was modified concurrently")
)
