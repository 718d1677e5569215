package society

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("operation not permitted for role")
	ErrTenantMismatch    = errors.New("resource belongs to another society")
	ErrInvalidInput      = errors.New("invalid input")
)
