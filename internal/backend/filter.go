package backend

import (
	"errors"
	"strings"
)

// Filter errors.
var (
	// ErrInvalidFilter is returned for filters that are not RFC 4515 items.
	ErrInvalidFilter = errors.New("backend: invalid filter syntax")
	// ErrUnsupportedFilter is returned for composite and substring filters.
	ErrUnsupportedFilter = errors.New("backend: unsupported filter")
)

// PresenceValue as a Filter value matches any entry holding the attribute.
const PresenceValue = "*"

// Filter selects entries by a single attribute. The zero Filter matches
// every entry.
type Filter struct {
	Attribute string
	Value     string
}

// String renders the filter in RFC 4515 form.
func (f Filter) String() string {
	if f.Attribute == "" {
		return "(objectClass=*)"
	}
	return "(" + f.Attribute + "=" + f.Value + ")"
}

// ParseFilter parses an equality or presence filter:
//   - (attr=value)
//   - (attr=*)
//
// An empty string and (objectClass=*) both yield the zero Filter. The
// parentheses may be omitted.
func ParseFilter(s string) (Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Filter{}, nil
	}

	if strings.HasPrefix(s, "(") {
		if !strings.HasSuffix(s, ")") {
			return Filter{}, ErrInvalidFilter
		}
		s = s[1 : len(s)-1]
	}
	if s == "" || strings.ContainsAny(s, "()") {
		if strings.ContainsAny(s, "&|!") {
			return Filter{}, ErrUnsupportedFilter
		}
		return Filter{}, ErrInvalidFilter
	}
	switch s[0] {
	case '&', '|', '!':
		return Filter{}, ErrUnsupportedFilter
	}

	attr, value, ok := strings.Cut(s, "=")
	attr = strings.TrimSpace(attr)
	if !ok || attr == "" || value == "" {
		return Filter{}, ErrInvalidFilter
	}
	if strings.HasSuffix(attr, ">") || strings.HasSuffix(attr, "<") || strings.HasSuffix(attr, "~") {
		return Filter{}, ErrUnsupportedFilter
	}
	if value != PresenceValue && strings.Contains(value, "*") {
		return Filter{}, ErrUnsupportedFilter
	}

	if value == PresenceValue && strings.EqualFold(attr, "objectClass") {
		return Filter{}, nil
	}
	return Filter{Attribute: attr, Value: value}, nil
}
