package user

import "errors"

var (
	ErrInvalidToken            = errors.New("invalid or malformed token")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	ErrCompanyIDRequired       = errors.New("company ID is required")
)
