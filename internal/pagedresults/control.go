package pagedresults

import (
	"errors"
	"fmt"
	"math"

	"github.com/KilimcininKorOglu/oba-pagedresults/internal/ber"
	"github.com/KilimcininKorOglu/oba-pagedresults/internal/ldap"
)

// DecodeControlValue decodes a Simple Paged Results control value (RFC 2696)
//
//	realSearchControlValue ::= SEQUENCE {
//	    size            INTEGER (0..maxInt),
//	    cookie          OCTET STRING }
func DecodeControlValue(value []byte) (size int32, cookie []byte, err error) {
	if len(value) == 0 {
		return 0, nil, fmt.Errorf("%w: empty value", ErrMalformedControlValue)
	}

	seq, err := ber.NewBERDecoder(value).ReadSequenceContents()
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrMalformedControlValue, err)
	}
	n, err := seq.ReadInteger()
	if err != nil {
		return 0, nil, fmt.Errorf("%w: size: %w", ErrMalformedControlValue, err)
	}
	if n < 0 || n > math.MaxInt32 {
		return 0, nil, fmt.Errorf("%w: size %d out of range", ErrMalformedControlValue, n)
	}
	cookie, err = seq.ReadOctetString()
	if err != nil {
		return 0, nil, fmt.Errorf("%w: cookie: %w", ErrMalformedControlValue, err)
	}
	return int32(n), cookie, nil
}

// EncodeControlValue encodes a Simple Paged Results control value.
func EncodeControlValue(size int32, cookie []byte) ([]byte, error) {
	enc := ber.NewBEREncoder(8 + len(cookie))
	pos := enc.BeginSequence()
	if err := enc.WriteInteger(int64(size)); err != nil {
		return nil, err
	}
	if err := enc.WriteOctetString(cookie); err != nil {
		return nil, err
	}
	if err := enc.EndSequence(pos); err != nil {
		return nil, err
	}
	return enc.Bytes(), nil
}

// ParseRequest handles the paged results control of an incoming search. It
// decodes value, resets the operation's size limit and allocates or
// resolves the slot named by the cookie, all under the connection lock.
func (t *Table) ParseRequest(op Operation, value []byte, b Backend) (pageSize int32, index int, err error) {
	if op == nil {
		return 0, -1, ErrMissingContext
	}

	pageSize, cookie, err := DecodeControlValue(value)
	if err != nil {
		return 0, -1, err
	}

	l := t.Lock()
	defer l.Unlock()

	op.SetPagedSizeLimit(-1)
	index, err = l.AllocateOrResolve(cookie, b, op.MessageID())
	if err != nil {
		t.logger.Debug("paged results request rejected", "msgid", op.MessageID(), "error", err)
	}
	return pageSize, index, err
}

// BuildResponse queues the paged results response control on ctrls. The
// cookie is empty when currentSearchCount is negative, meaning no more
// pages, and the encoded index otherwise. A paged results control already
// on the list is replaced in place.
func BuildResponse(ctrls *ldap.Controls, critical bool, estimate int32, currentSearchCount, index int) error {
	cookie := []byte{}
	if currentSearchCount >= 0 {
		cookie = EncodeCookie(index)
	}

	value, err := EncodeControlValue(estimate, cookie)
	if err != nil {
		return fmt.Errorf("pagedresults: encode response: %w", err)
	}

	ctrl := ldap.Control{
		OID:         ldap.OIDPagedResults,
		Criticality: critical,
		Value:       value,
	}
	if i, ok := ctrls.Find(ldap.OIDPagedResults); ok {
		ctrls.Replace(i, ctrl)
	} else {
		ctrls.Append(ctrl)
	}
	return nil
}

// ResultCode maps an error from this package to an LDAP result code.
func ResultCode(err error) ldap.ResultCode {
	switch {
	case err == nil:
		return ldap.ResultSuccess
	case errors.Is(err, ErrMissingContext):
		return ldap.ResultOperationsError
	case errors.Is(err, ErrMalformedControlValue), errors.Is(err, ErrInvalidCookie):
		return ldap.ResultProtocolError
	case errors.Is(err, ErrCancelled):
		return ldap.ResultCancelled
	default:
		return ldap.ResultOther
	}
}
