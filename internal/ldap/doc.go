// Package ldap holds the LDAP protocol vocabulary shared by the paged
// results core and the connection layer: result codes (RFC 4511 Section
// 4.1.9, RFC 3909 for cancel) and request/response controls
// (RFC 4511 Section 4.1.11).
//
// Controls attached to an outgoing message are kept in a Controls list.
// A handler that emits the same control more than once while building a
// single response replaces the queued copy instead of appending a second:
//
//	var ctrls ldap.Controls
//	if i, ok := ctrls.Find(ldap.OIDPagedResults); ok {
//	    ctrls.Replace(i, ctrl)
//	} else {
//	    ctrls.Append(ctrl)
//	}
package ldap
