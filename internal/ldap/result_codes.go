package ldap

// ResultCode is an LDAP result code as defined in RFC 4511 Section 4.1.9.
type ResultCode int

// Result codes used by the paged results core and the connection layer.
const (
	// ResultSuccess indicates the operation completed successfully.
	ResultSuccess ResultCode = 0

	// ResultOperationsError indicates an internal processing error, such
	// as a request arriving without its connection or operation context.
	ResultOperationsError ResultCode = 1

	// ResultProtocolError indicates malformed or out-of-range protocol data,
	// including an undecodable control value or an unknown paging cookie.
	ResultProtocolError ResultCode = 2

	// ResultTimeLimitExceeded indicates the search time limit was reached.
	ResultTimeLimitExceeded ResultCode = 3

	// ResultSizeLimitExceeded indicates the search size limit was reached.
	ResultSizeLimitExceeded ResultCode = 4

	// ResultAdminLimitExceeded indicates a server-side limit was reached.
	ResultAdminLimitExceeded ResultCode = 11

	// ResultUnavailableCriticalExtension indicates a critical control
	// could not be honoured.
	ResultUnavailableCriticalExtension ResultCode = 12

	// ResultBusy indicates the server is too busy to service the request.
	ResultBusy ResultCode = 51

	// ResultUnwillingToPerform indicates the server refuses the request.
	ResultUnwillingToPerform ResultCode = 53

	// ResultOther indicates an error not covered by another code.
	ResultOther ResultCode = 80

	// ResultCancelled indicates the operation was cancelled (RFC 3909).
	// Paged searches report it when the cookie names a slot that was
	// abandoned or expired.
	ResultCancelled ResultCode = 118

	// ResultNoSuchOperation indicates the target of a cancel is unknown.
	ResultNoSuchOperation ResultCode = 119
)

// String returns the RFC name of the result code.
func (r ResultCode) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultOperationsError:
		return "operationsError"
	case ResultProtocolError:
		return "protocolError"
	case ResultTimeLimitExceeded:
		return "timeLimitExceeded"
	case ResultSizeLimitExceeded:
		return "sizeLimitExceeded"
	case ResultAdminLimitExceeded:
		return "adminLimitExceeded"
	case ResultUnavailableCriticalExtension:
		return "unavailableCriticalExtension"
	case ResultBusy:
		return "busy"
	case ResultUnwillingToPerform:
		return "unwillingToPerform"
	case ResultOther:
		return "other"
	case ResultCancelled:
		return "canceled"
	case ResultNoSuchOperation:
		return "noSuchOperation"
	default:
		return "unknown"
	}
}

// IsSuccess returns true if the result code indicates success.
func (r ResultCode) IsSuccess() bool {
	return r == ResultSuccess
}
