package backend

import "strings"

// Entry is a directory entry held by the in-memory backend. Attribute
// names are stored lowercased.
type Entry struct {
	// ID is the backend-assigned entry identifier stored in result sets.
	ID uint32
	// DN is the distinguished name of the entry.
	DN string
	// Attributes maps lowercased attribute names to their values.
	Attributes map[string][]string
}

// NewEntry creates a new Entry with the given DN.
func NewEntry(dn string) *Entry {
	return &Entry{
		DN:         dn,
		Attributes: make(map[string][]string),
	}
}

// GetAttribute returns the values for the given attribute name.
func (e *Entry) GetAttribute(name string) []string {
	if e.Attributes == nil {
		return nil
	}
	return e.Attributes[strings.ToLower(name)]
}

// GetFirstAttribute returns the first value of name, or "".
func (e *Entry) GetFirstAttribute(name string) string {
	values := e.GetAttribute(name)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// HasAttribute returns true if the entry has at least one value for name.
func (e *Entry) HasAttribute(name string) bool {
	return len(e.GetAttribute(name)) > 0
}

// SetAttribute replaces the values of name.
func (e *Entry) SetAttribute(name string, values ...string) {
	if e.Attributes == nil {
		e.Attributes = make(map[string][]string)
	}
	e.Attributes[strings.ToLower(name)] = values
}

// matches reports whether the entry satisfies f.
func (e *Entry) matches(f Filter) bool {
	if f.Attribute == "" {
		return true
	}
	values := e.GetAttribute(f.Attribute)
	if f.Value == PresenceValue {
		return len(values) > 0
	}
	for _, v := range values {
		if strings.EqualFold(v, f.Value) {
			return true
		}
	}
	return false
}
