package core

import "errors"

// Sentinel errors the API layer maps to response codes. Wrap them with
// fmt.Errorf("%w: ...") so errors.Is keeps working through the service
// layers.
var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
