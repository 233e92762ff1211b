// Package server drives searches against the backend on behalf of client
// connections.
//
// Each Connection owns a paged results table guarded by the connection
// lock. Search serves one request: without the Simple Paged Results
// control it returns every matching entry, with it one page and a cookie
// naming the slot that holds the backend result set between pages.
//
// Abandon marks the paged search last driven by a message ID as abandoned
// and cancels the in-flight operation. Close tears the table down and
// returns every result set to the backend. Server.Run polls all
// connections for paged searches that outlived their time limit.
package server
