package domain

import (
	"errors"
	"fmt"
)

// Error categories. Every sentinel below wraps exactly one of them so callers
// can branch with errors.Is on either the specific error or its category.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrValidation       = errors.New("validation failed")
)

var (
	ErrCustomerNotFound    = fmt.Errorf("customer %w", ErrNotFound)
	ErrUserNotFound        = fmt.Errorf("user %w", ErrNotFound)
	ErrAffiliationNotFound = fmt.Errorf("affiliation %w", ErrNotFound)
	ErrDetailNotFound      = fmt.Errorf("transaction detail %w", ErrNotFound)

	ErrDuplicatePhone       = fmt.Errorf("%w: phone number already registered", ErrConflict)
	ErrAffiliationExists    = fmt.Errorf("%w: affiliation name already exists", ErrConflict)
	ErrUserExists           = fmt.Errorf("%w: username already taken", ErrConflict)
	ErrEmailTaken           = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrSelfDeletion         = fmt.Errorf("%w: cannot delete your own account", ErrPermissionDenied)
	ErrForeignAffiliation   = fmt.Errorf("%w: affiliation belongs to another user", ErrPermissionDenied)
	ErrPrivilegedOnly       = fmt.Errorf("%w: admin or manager role required", ErrPermissionDenied)
	ErrAdminOnly            = fmt.Errorf("%w: admin role required", ErrPermissionDenied)
	ErrInvalidCustomerState = fmt.Errorf("%w: unknown customer status", ErrValidation)
	ErrInvalidDealState     = fmt.Errorf("%w: unknown transaction status", ErrValidation)
	ErrInvalidPeriod        = fmt.Errorf("%w: unknown period", ErrValidation)
)

// Invalid builds a validation error carrying a human-readable message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
