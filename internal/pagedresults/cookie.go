package pagedresults

import (
	"fmt"
	"strconv"
)

// DecodeCookie interprets a paged results cookie. An empty cookie asks for
// a new slot and returns fresh == true. Anything else must be a decimal
// integer; its range is left to the caller, so "-3" decodes to -3.
func DecodeCookie(cookie []byte) (index int, fresh bool, err error) {
	if len(cookie) == 0 {
		return -1, true, nil
	}
	n, err := strconv.ParseInt(string(cookie), 10, 32)
	if err != nil {
		return -1, false, fmt.Errorf("%w: %q", ErrInvalidCookie, cookie)
	}
	return int(n), false, nil
}

// EncodeCookie renders a slot index as a cookie. A negative index means no
// further pages and encodes as the empty cookie.
func EncodeCookie(index int) []byte {
	if index < 0 {
		return []byte{}
	}
	return strconv.AppendInt(nil, int64(index), 10)
}
