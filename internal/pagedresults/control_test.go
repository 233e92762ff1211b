package pagedresults

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/KilimcininKorOglu/oba-pagedresults/internal/ber"
	"github.com/KilimcininKorOglu/oba-pagedresults/internal/ldap"
)

func controlValue(t *testing.T, size int32, cookie string) []byte {
	t.Helper()
	value, err := EncodeControlValue(size, []byte(cookie))
	require.NoError(t, err)
	return value
}

func TestCookieRoundTrip(t *testing.T) {
	for _, i := range []int{0, 1, 9, 10, 255, 1024, 1 << 20} {
		idx, fresh, err := DecodeCookie(EncodeCookie(i))
		require.NoError(t, err)
		assert.False(t, fresh)
		assert.Equal(t, i, idx)
	}
}

func TestDecodeCookie(t *testing.T) {
	tests := []struct {
		cookie    string
		wantIndex int
		wantFresh bool
		wantErr   error
	}{
		{"", -1, true, nil},
		{"0", 0, false, nil},
		{"17", 17, false, nil},
		{"-3", -3, false, nil},
		{"abc", -1, false, ErrInvalidCookie},
		{"1 ", -1, false, ErrInvalidCookie},
		{"0x10", -1, false, ErrInvalidCookie},
		{"4294967296", -1, false, ErrInvalidCookie},
	}

	for _, tt := range tests {
		t.Run(strconv.Quote(tt.cookie), func(t *testing.T) {
			idx, fresh, err := DecodeCookie([]byte(tt.cookie))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantIndex, idx)
			assert.Equal(t, tt.wantFresh, fresh)
		})
	}
}

func TestEncodeCookieNoMorePages(t *testing.T) {
	assert.Empty(t, EncodeCookie(-1))
	assert.NotNil(t, EncodeCookie(-1))
	assert.Equal(t, []byte("42"), EncodeCookie(42))
}

func TestControlValueWireFormat(t *testing.T) {
	value := controlValue(t, 100, "")
	assert.Equal(t, []byte{0x30, 0x05, 0x02, 0x01, 0x64, 0x04, 0x00}, value)

	size, cookie, err := DecodeControlValue(controlValue(t, 500, "12"))
	require.NoError(t, err)
	assert.Equal(t, int32(500), size)
	assert.Equal(t, []byte("12"), cookie)
}

func TestDecodeControlValueMalformed(t *testing.T) {
	tests := []struct {
		name    string
		value   []byte
		wantBER error
	}{
		{"empty", nil, nil},
		{"not a sequence", []byte{0x04, 0x00}, ber.ErrTagMismatch},
		{"truncated", []byte{0x30, 0x05, 0x02, 0x01}, ber.ErrUnexpectedEOF},
		{"missing cookie", []byte{0x30, 0x03, 0x02, 0x01, 0x0A}, ber.ErrUnexpectedEOF},
		{"cookie wrong type", []byte{0x30, 0x06, 0x02, 0x01, 0x0A, 0x01, 0x01, 0xFF}, ber.ErrTagMismatch},
		{"negative size", []byte{0x30, 0x05, 0x02, 0x01, 0xFF, 0x04, 0x00}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeControlValue(tt.value)
			assert.ErrorIs(t, err, ErrMalformedControlValue)
			if tt.wantBER != nil {
				assert.ErrorIs(t, err, tt.wantBER)
			}
			assert.Equal(t, ldap.ResultProtocolError, ResultCode(err))
		})
	}
}

func TestParseRequest(t *testing.T) {
	tbl, _ := newTestTable()
	b := newFakeBackend("userRoot")

	op := pagedOp(3)
	size, idx, err := tbl.ParseRequest(op, controlValue(t, 50, ""), b)
	require.NoError(t, err)
	assert.Equal(t, int32(50), size)
	assert.Equal(t, 0, idx)
	assert.Equal(t, -1, op.PagedSizeLimit())

	next := pagedOp(4)
	size, got, err := tbl.ParseRequest(next, controlValue(t, 25, string(EncodeCookie(idx))), b)
	require.NoError(t, err)
	assert.Equal(t, int32(25), size)
	assert.Equal(t, idx, got)
	assert.Equal(t, -1, next.PagedSizeLimit())

	l := tbl.Lock()
	assert.Equal(t, int32(4), l.Snapshot()[idx].MessageID)
	l.Unlock()
}

func TestParseRequestErrors(t *testing.T) {
	tbl, _ := newTestTable()
	b := newFakeBackend("userRoot")

	_, idx, err := tbl.ParseRequest(nil, controlValue(t, 10, ""), b)
	assert.ErrorIs(t, err, ErrMissingContext)
	assert.Equal(t, -1, idx)
	assert.Equal(t, ldap.ResultOperationsError, ResultCode(err))

	_, idx, err = tbl.ParseRequest(pagedOp(1), nil, b)
	assert.ErrorIs(t, err, ErrMalformedControlValue)
	assert.Equal(t, -1, idx)

	_, idx, err = tbl.ParseRequest(pagedOp(1), controlValue(t, 10, "3"), b)
	assert.ErrorIs(t, err, ErrInvalidCookie)
	assert.Equal(t, -1, idx)
	assert.Equal(t, ldap.ResultProtocolError, ResultCode(err))

	active, capacity := inUse(tbl)
	assert.Zero(t, active)
	assert.Zero(t, capacity)
}

func TestBuildResponse(t *testing.T) {
	ctrls := ldap.Controls{{OID: ldap.OIDServerSideSortResponse}}

	require.NoError(t, BuildResponse(&ctrls, false, 1000, 10, 3))
	require.Len(t, ctrls, 2)
	size, cookie, err := DecodeControlValue(ctrls[1].Value)
	require.NoError(t, err)
	assert.Equal(t, int32(1000), size)
	assert.Equal(t, []byte("3"), cookie)

	// A second control for the same operation replaces the first.
	require.NoError(t, BuildResponse(&ctrls, true, 1000, -1, 3))
	require.Len(t, ctrls, 2)
	assert.True(t, ctrls[1].Criticality)
	_, cookie, err = DecodeControlValue(ctrls[1].Value)
	require.NoError(t, err)
	assert.Empty(t, cookie)
}

func TestResultCode(t *testing.T) {
	tests := []struct {
		err  error
		want ldap.ResultCode
	}{
		{nil, ldap.ResultSuccess},
		{ErrMissingContext, ldap.ResultOperationsError},
		{ErrMalformedControlValue, ldap.ResultProtocolError},
		{fmt.Errorf("wrapped: %w", ErrInvalidCookie), ldap.ResultProtocolError},
		{ErrCancelled, ldap.ResultCancelled},
		{errors.New("something else"), ldap.ResultOther},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ResultCode(tt.err), "ResultCode(%v)", tt.err)
	}
}

func TestConcurrentAllocationsAreUnique(t *testing.T) {
	var connMu sync.Mutex
	tbl := NewTable(&connMu)
	b := newFakeBackend("userRoot")

	const n = 64
	indexes := make([]int, n)

	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			_, idx, err := tbl.ParseRequest(pagedOp(int32(i+1)), controlValue(t, 10, ""), b)
			indexes[i] = idx
			return err
		})
	}
	require.NoError(t, g.Wait())

	active, capacity := inUse(tbl)
	assert.Equal(t, n, active)

	seen := make(map[int]bool, n)
	for _, idx := range indexes {
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, capacity)
		assert.False(t, seen[idx], "index %d handed out twice", idx)
		seen[idx] = true
	}
}
