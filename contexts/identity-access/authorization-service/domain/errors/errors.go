package errors

import "errors"

var (
	ErrInvalidPermission = errors.New("invalid permission")
	ErrInvalidUserID     = errors.New("invalid user id")
	ErrInvalidCompanyID  = errors.New("invalid company id")
	ErrInvalidRoleID     = errors.New("invalid role id")
	ErrInvalidAdminID    = errors.New("invalid admin id")
	ErrRoleNotFound      = errors.New("role not found")
	ErrRoleNotAssigned   = errors.New("role not assigned")
	ErrForbidden         = errors.New("forbidden")
	ErrPersistence       = errors.New("authorization store unavailable")
)
