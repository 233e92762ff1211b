package server

import (
	"github.com/KilimcininKorOglu/oba-pagedresults/internal/backend"
	"github.com/KilimcininKorOglu/oba-pagedresults/internal/ldap"
)

// SearchRequest is a search operation as received from a client.
type SearchRequest struct {
	// MessageID is the LDAP message ID of the request.
	MessageID int32
	// Filter selects the entries to return.
	Filter backend.Filter
	// Controls are the request controls.
	Controls ldap.Controls
}

// SearchResponse is what the server sends back for one search request:
// the entries of this page followed by the SearchResultDone fields.
type SearchResponse struct {
	MessageID         int32
	Entries           []*backend.Entry
	ResultCode        ldap.ResultCode
	DiagnosticMessage string
	Controls          ldap.Controls
}

// Operation is the per-request state the paged results table reads and
// writes.
type Operation struct {
	msgID     int32
	paged     bool
	sizeLimit int
}

func newOperation(req *SearchRequest) *Operation {
	_, paged := req.Controls.Find(ldap.OIDPagedResults)
	return &Operation{
		msgID:     req.MessageID,
		paged:     paged,
		sizeLimit: -1,
	}
}

// MessageID returns the LDAP message ID.
func (o *Operation) MessageID() int32 { return o.msgID }

// IsPagedResults reports whether the request carries the paged results control.
func (o *Operation) IsPagedResults() bool { return o.paged }

// PagedSizeLimit returns the per-operation size limit, -1 when unset.
func (o *Operation) PagedSizeLimit() int { return o.sizeLimit }

// SetPagedSizeLimit sets the per-operation size limit.
func (o *Operation) SetPagedSizeLimit(limit int) { o.sizeLimit = limit }
