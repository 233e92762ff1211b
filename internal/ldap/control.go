package ldap

// Control OIDs understood by the server.
const (
	// OIDPagedResults is the Simple Paged Results control (RFC 2696).
	OIDPagedResults = "1.2.840.113556.1.4.319"
	// OIDServerSideSort is the server side sort request control (RFC 2891).
	OIDServerSideSort = "1.2.840.113556.1.4.473"
	// OIDServerSideSortResponse is the sort response control (RFC 2891).
	OIDServerSideSortResponse = "1.2.840.113556.1.4.474"
)

// Control represents an LDAP control as defined in RFC 4511 Section 4.1.11
//
//	Control ::= SEQUENCE {
//	    controlType             LDAPOID,
//	    criticality             BOOLEAN DEFAULT FALSE,
//	    controlValue            OCTET STRING OPTIONAL }
type Control struct {
	// OID is the control type
	OID string
	// Criticality indicates whether the control is critical
	Criticality bool
	// Value is the optional control value
	Value []byte
}

// Controls is the ordered list of controls attached to a message.
type Controls []Control

// Find returns the position of the first control with the given OID.
func (c Controls) Find(oid string) (int, bool) {
	for i := range c {
		if c[i].OID == oid {
			return i, true
		}
	}
	return -1, false
}

// Get returns the first control with the given OID.
func (c Controls) Get(oid string) (Control, bool) {
	i, ok := c.Find(oid)
	if !ok {
		return Control{}, false
	}
	return c[i], true
}

// Replace overwrites the control at position i.
func (c Controls) Replace(i int, ctrl Control) {
	c[i] = ctrl
}

// Append adds ctrl to the end of the list.
func (c *Controls) Append(ctrl Control) {
	*c = append(*c, ctrl)
}
