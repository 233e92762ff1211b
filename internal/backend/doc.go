// Package backend provides the in-memory directory backend that owns the
// result sets of paged searches.
//
// A search produces a *ResultSet: a roaring bitmap of matching entry IDs
// plus a cursor. The result set belongs to the backend until it is handed
// back through ReleaseResultSet; the paged results table only stores the
// handle and returns it exactly once.
//
//	mem := backend.NewMemory("userRoot", "uid", "objectclass")
//	mem.Add(entry)
//	rs, err := mem.Search(backend.Filter{Attribute: "objectClass", Value: "person"})
//	page, more := mem.Next(rs, 100)
//	mem.ReleaseResultSet(rs)
//
// Equality filters on indexed attributes resolve through per-value
// bitmaps. Other filters scan every entry and mark the result set
// unindexed.
package backend
