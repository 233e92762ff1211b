package pagedresults

import "errors"

// Paged results errors. ResultCode maps each of them to the LDAP result
// code returned to the client.
var (
	// ErrMissingContext is returned when a request arrives without the
	// operation it belongs to.
	ErrMissingContext = errors.New("pagedresults: missing operation context")
	// ErrMalformedControlValue is returned when the control value is empty
	// or is not a valid realSearchControlValue. Decoding failures wrap the
	// underlying BER error.
	ErrMalformedControlValue = errors.New("pagedresults: malformed control value")
	// ErrInvalidCookie is returned when the cookie is not a decimal index
	// or the index lies outside the slot table.
	ErrInvalidCookie = errors.New("pagedresults: invalid cookie")
	// ErrCancelled is returned when the cookie refers to a slot that was
	// abandoned or has expired.
	ErrCancelled = errors.New("pagedresults: paged search cancelled")
)
