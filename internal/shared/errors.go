package shared

import "errors"

var (
	// ErrNotFound indicates the record is absent, soft-deleted, or owned by another tenant.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a business key collision such as a contract or receipt number.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrValidation indicates the input failed domain validation.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates the record's status forbids the requested mutation.
	ErrConflict = errors.New("status conflict")
	// ErrUnauthorized indicates a request without a resolvable identity.
	ErrUnauthorized = errors.New("unauthorized")
)

// UserSafeMessage returns a message suitable for API consumers.
func UserSafeMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "The requested record was not found"
	case errors.Is(err, ErrDuplicate):
		return "A record with the same number already exists"
	case errors.Is(err, ErrConflict):
		return "The record's current status does not allow this operation"
	case errors.Is(err, ErrValidation):
		return err.Error()
	default:
		return "An unexpected error occurred"
	}
}
