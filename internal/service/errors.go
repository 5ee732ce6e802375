package service

import "errors"

// Error kinds. Handlers map a kind to an HTTP status with errors.Is.
var (
	ErrInvalid         = errors.New("invalid")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidState    = errors.New("invalid state")
)

// Error is a client-facing failure. Msg is safe to return in a response body.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Invalid builds a validation error with a request-specific message.
func Invalid(msg string) error { return newError(ErrInvalid, msg) }

var (
	ErrEmailTaken          = newError(ErrConflict, "email already registered")
	ErrInvalidCredentials  = newError(ErrUnauthenticated, "invalid credentials")
	ErrInvalidRefreshToken = newError(ErrUnauthenticated, "invalid refresh token")
	ErrUserNotFound        = newError(ErrNotFound, "user not found")

	ErrListingNotFound = newError(ErrNotFound, "listing not found")
	ErrNotListingOwner = newError(ErrForbidden, "not the owner of this listing")

	ErrBookingNotFound   = newError(ErrNotFound, "booking not found")
	ErrBookingRole       = newError(ErrForbidden, "only tenants can create bookings")
	ErrBookingForbidden  = newError(ErrForbidden, "forbidden")
	ErrTenantCancelOnly  = newError(ErrForbidden, "tenant can only cancel their pending booking")
	ErrBookingNotPending = newError(ErrInvalidState, "only pending bookings can be updated")
	ErrInvalidTransition = newError(ErrInvalidState, "invalid status transition")
	ErrNoFieldsToUpdate  = newError(ErrInvalid, "no fields to update")

	ErrFavoriteNotFound  = newError(ErrNotFound, "favorite not found")
	ErrFavoriteForbidden = newError(ErrForbidden, "forbidden")
	ErrAlreadyFavorited  = newError(ErrConflict, "already in favorites")

	ErrThreadNotFound   = newError(ErrNotFound, "thread not found")
	ErrNotParticipant   = newError(ErrForbidden, "not a participant of this thread")
	ErrTenantIDRequired = newError(ErrForbidden, "tenant_id is required")
	ErrTenantIDMismatch = newError(ErrForbidden, "tenant_id must match the current user")
	ErrThreadForbidden  = newError(ErrForbidden, "forbidden")
	ErrTenantNotFound   = newError(ErrNotFound, "tenant not found")
)
