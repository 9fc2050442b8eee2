// Package docstore defines the document collection contract the cell graph
// engine is written against.
//
// A [Collection] stores schemaless [Document] values keyed by their "id"
// field. Writes are compare-and-swap on the "_rev" revision token:
//
//   - Put with no revision creates the document and fails with [ErrConflict]
//     if the id is taken.
//   - Put with revision n succeeds only while the stored revision is n.
//
// Reads go through Get (by key) or Find, which evaluates a [Selector] built
// from equality, range and set-membership clauses:
//
//	sel := docstore.Where().
//	    Eq("typeGroup", "CONTENT").
//	    Gte("status", 0).
//	    Lte("status", 4).
//	    In("id", ids...)
//
// Backends live in sibling packages: store (DynamoDB) and sqlite.
package docstore
