package status

import "errors"

var (
	ErrValidation        = errors.New("request: validation failed")
	ErrNotFound          = errors.New("resource: not found")
	ErrInvalidToken      = errors.New("auth: invalid token")
	ErrForbidden         = errors.New("auth: admin access required")
	ErrEmailTaken        = errors.New("auth: email already registered")
	ErrBadCredentials    = errors.New("auth: bad credentials")
	ErrCapacityExhausted = errors.New("offer: capacity exhausted")
	ErrAlreadyPaid       = errors.New("payment: ticket already paid")
	ErrConflict          = errors.New("reservation: illegal status transition")
)
