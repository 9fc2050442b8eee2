// Package graph implements the cell graph engine: multi-criteria cell
// queries with relation-based candidate sets, cell mutations, structural
// and user relation management, and cascading relation cleanup.
//
// # Collections
//
// The engine works on three docstore collections bound together as
// Collections: cells, structural relations (sourceId -> targetId) and user
// relations (cid, type). Bind swaps all three at once, which is how a
// workspace switch takes effect. An operation snapshots the binding when it
// starts, so a concurrent switch never mixes collections of two workspaces
// within one operation.
//
// # Queries
//
// GetCells builds a query plan in three steps:
//
//  1. A base selector from category, status and time filters.
//  2. Two independent candidate sets, resolved concurrently: cells holding a
//     user relation of the requested type, and one-hop structural neighbors
//     of the requested parents and/or children.
//  3. A combine step. When a relation filter was requested and the combined
//     set is empty, the query returns an empty page without touching the
//     cell collection.
//
// The fetched page is sorted in memory by the requested orders and then
// enriched with isStar/isLike flags and, on request, the parent and child
// cells attached through their own edges.
//
// # Errors
//
// Validation failures wrap ErrInvalidInput or ErrSelfLoop, missing entities
// are ErrCellNotFound / ErrRelationNotFound, and store failures are returned
// wrapped with the failing step. Concurrent writers to the same cell are
// detected through document revisions and surface as docstore.ErrConflict.
//
// # Events
//
// Every successful mutation is reported to the registered Listeners. Delivery
// is synchronous and fire-and-forget: listener panics are recovered and
// logged, never returned.
package graph
