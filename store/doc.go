// Package store provides a DynamoDB implementation of docstore collections.
//
// Every collection lives in one shared table. Documents are spread over
// write shards of their collection so that hot collections are not limited
// to a single partition.
//
// # Key Features
//
//   - Single-table layout, no DDL per collection or workspace
//   - Optimistic locking on the _rev attribute (conditional puts)
//   - Selectors translated to FilterExpressions over the stored document
//   - Parallel fan-out Find across shards with stable id ordering
//   - Batched bulk deletes with retry of unprocessed items
//
// # Item Layout
//
//	pk   (S)  "<collection>#<shard>"   hash key
//	id   (S)  document id              range key
//	_rev (N)  revision
//	doc  (M)  the document without its revision
//
// # Configuration
//
// Use [DefaultConfig] for small datasets (NumShards=1, single queries).
// Increase NumShards for higher throughput:
//
//	cfg := store.DefaultConfig()
//	cfg.NumShards = 16
//	s := store.New(dynamodb.NewFromConfig(awsCfg), cfg)
//	cells := s.Collection("cells_" + workspaceID)
//
// # Errors
//
// Collections return the docstore sentinels:
//
//   - [docstore.ErrNotFound] - no document under the key
//   - [docstore.ErrConflict] - revision check failed
//
// plus [ErrBatchIncomplete] when a bulk delete could not drain.
package store
