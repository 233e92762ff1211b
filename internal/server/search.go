package server

import (
	"context"
	"errors"

	"github.com/KilimcininKorOglu/oba-pagedresults/internal/backend"
	"github.com/KilimcininKorOglu/oba-pagedresults/internal/ber"
	"github.com/KilimcininKorOglu/oba-pagedresults/internal/ldap"
	"github.com/KilimcininKorOglu/oba-pagedresults/internal/pagedresults"
)

// Search runs one search request. With the paged results control it
// returns a single page and a response control carrying the cookie for
// the next one. An error is returned only when the request could not be
// started at all.
func (c *Connection) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	if c.IsClosed() {
		return nil, ErrConnectionClosed
	}
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)
	// Close may have run while waiting for the semaphore.
	if c.IsClosed() {
		return nil, ErrConnectionClosed
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.abandon.Register(req.MessageID, cancel)
	defer c.abandon.Unregister(req.MessageID)

	ctrl, paged := req.Controls.Get(ldap.OIDPagedResults)
	if !paged {
		return c.searchAll(ctx, req), nil
	}
	return c.searchPage(ctx, newOperation(req), req, ctrl), nil
}

func (c *Connection) searchAll(ctx context.Context, req *SearchRequest) *SearchResponse {
	resp := &SearchResponse{MessageID: req.MessageID}
	b := c.server.backend

	rs, err := b.Search(req.Filter)
	if err != nil {
		return fail(resp, ldap.ResultOther, err)
	}
	defer b.ReleaseResultSet(rs)

	if ctx.Err() != nil {
		return fail(resp, ldap.ResultCancelled, pagedresults.ErrCancelled)
	}
	resp.Entries, _, err = b.Next(rs, rs.Estimate())
	if err != nil {
		return fail(resp, ldap.ResultOther, err)
	}
	return resp
}

func (c *Connection) searchPage(ctx context.Context, op *Operation, req *SearchRequest, ctrl ldap.Control) *SearchResponse {
	resp := &SearchResponse{MessageID: req.MessageID}
	b := c.server.backend
	t := c.paged

	pageSize, idx, err := t.ParseRequest(op, ctrl.Value, b)
	if err != nil {
		return fail(resp, pagedresults.ResultCode(err), err)
	}

	// A page size of zero abandons the paged search (RFC 2696 Section 3).
	if pageSize == 0 {
		t.FreeOne(op, idx)
		if err := pagedresults.BuildResponse(&resp.Controls, false, 0, -1, idx); err != nil {
			return fail(resp, ldap.ResultOther, err)
		}
		return resp
	}

	limit := int(pageSize)
	if maxSize := c.server.cfg.MaxPageSize; maxSize > 0 && limit > maxSize {
		limit = maxSize
	}
	t.SetSizeLimit(op, limit)

	if sortCtrl, ok := req.Controls.Get(ldap.OIDServerSideSort); ok {
		if sortCtrl.Criticality {
			t.FreeOne(op, idx)
			return fail(resp, ldap.ResultUnavailableCriticalExtension, errors.New("server side sorting is not supported"))
		}
		if !t.WithSort(op, idx) {
			t.SetWithSort(op, idx, true)
			t.SetSortResultCode(op, idx, ldap.ResultUnwillingToPerform)
		}
	}

	var (
		entries []*backend.Entry
		more    bool
	)
	t.SetProcessing(op, idx, true)
	err = t.WithSlot(idx, func() error {
		if t.IsAbandonedOrUnavailable(op, idx) {
			return pagedresults.ErrCancelled
		}

		rs, _ := t.SearchResult(op, idx).(*backend.ResultSet)
		if rs == nil {
			var err error
			if rs, err = b.Search(req.Filter); err != nil {
				return err
			}
			if !t.SetSearchResult(op, idx, rs) {
				b.ReleaseResultSet(rs)
				return pagedresults.ErrCancelled
			}
			t.SetSizeEstimate(op, idx, rs.Estimate())
			if rs.Unindexed() {
				t.SetUnindexed(op, idx)
			}
		}

		if ctx.Err() != nil {
			return pagedresults.ErrCancelled
		}
		page, hasMore, err := b.Next(rs, t.SizeLimit(op))
		if errors.Is(err, backend.ErrReleased) {
			return pagedresults.ErrCancelled
		}
		if err != nil {
			return err
		}
		entries, more = page, hasMore
		t.SetSearchResultCount(op, idx, t.SearchResultCount(op, idx)+len(page))
		return nil
	})
	t.SetProcessing(op, idx, false)

	if errors.Is(err, pagedresults.ErrCancelled) {
		c.logger.Debug("paged search cancelled", "msgid", req.MessageID, "idx", idx)
		if !t.IsAbandonedOrUnavailable(op, idx) {
			t.FreeOne(op, idx)
		}
		return fail(resp, ldap.ResultCancelled, err)
	}
	if err != nil {
		t.FreeOne(op, idx)
		return fail(resp, ldap.ResultOther, err)
	}

	resp.Entries = entries
	estimate := int32(t.SizeEstimate(op, idx))
	if t.WithSort(op, idx) {
		if err := appendSortResponse(&resp.Controls, t.SortResultCode(op, idx)); err != nil {
			return fail(resp, ldap.ResultOther, err)
		}
	}

	count := -1
	if more {
		count = t.SearchResultCount(op, idx)
		if d := c.server.cfg.TimeLimit; d > 0 {
			t.SetTimeLimit(op, idx, c.server.now().Add(d))
		}
	} else {
		t.FreeOne(op, idx)
	}

	if err := pagedresults.BuildResponse(&resp.Controls, false, estimate, count, idx); err != nil {
		return fail(resp, ldap.ResultOther, err)
	}
	return resp
}

func fail(resp *SearchResponse, code ldap.ResultCode, err error) *SearchResponse {
	resp.Entries = nil
	resp.ResultCode = code
	resp.DiagnosticMessage = err.Error()
	return resp
}

// appendSortResponse adds a server side sort response control (RFC 2891)
//
//	SortResult ::= SEQUENCE {
//	    sortResult  ENUMERATED,
//	    attributeType [0] AttributeDescription OPTIONAL }
func appendSortResponse(ctrls *ldap.Controls, code ldap.ResultCode) error {
	enc := ber.NewBEREncoder(8)
	pos := enc.BeginSequence()
	if err := enc.WriteEnumerated(int64(code)); err != nil {
		return err
	}
	if err := enc.EndSequence(pos); err != nil {
		return err
	}
	ctrls.Append(ldap.Control{OID: ldap.OIDServerSideSortResponse, Value: enc.Bytes()})
	return nil
}

// DecodeSortResponse returns the result code of a sort response control
// value.
func DecodeSortResponse(value []byte) (ldap.ResultCode, error) {
	seq, err := ber.NewBERDecoder(value).ReadSequenceContents()
	if err != nil {
		return 0, err
	}
	code, err := seq.ReadEnumerated()
	if err != nil {
		return 0, err
	}
	return ldap.ResultCode(code), nil
}
