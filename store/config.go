package store

import "github.com/jacentio/cellgraph/internal/shard"

const (
	defaultTable = "cellgraph_documents"

	// maxBatchSize is the DynamoDB BatchWriteItem request limit.
	maxBatchSize = 25
)

// Config holds configuration for the Store.
type Config struct {
	// Table is the name of the documents table.
	// Its key schema is pk (hash, S) and id (range, S).
	// Default: "cellgraph_documents"
	Table string

	// NumShards is the number of partitions each collection is spread over.
	// Higher values increase write throughput but every Find queries all
	// partitions in parallel.
	// Default: 1 (no sharding, single query)
	// Max: 256
	//
	// Per-partition limits:
	//   - Writes: 1,000/sec
	//   - Reads: 3,000/sec
	//
	// Examples:
	//   - NumShards=1:   1,000 writes/sec,   3,000 reads/sec per collection
	//   - NumShards=16:  16,000 writes/sec,  48,000 reads/sec per collection
	NumShards int

	// BatchSize is the number of deletes sent per BatchWriteItem call.
	// Default and max: 25
	BatchSize int
}

// DefaultConfig returns sensible defaults for small datasets.
func DefaultConfig() Config {
	return Config{
		Table:     defaultTable,
		NumShards: 1,
		BatchSize: maxBatchSize,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.Table == "" {
		c.Table = defaultTable
	}
	if c.NumShards < 1 {
		c.NumShards = 1
	}
	if c.NumShards > shard.MaxShards {
		c.NumShards = shard.MaxShards
	}
	if c.BatchSize < 1 || c.BatchSize > maxBatchSize {
		c.BatchSize = maxBatchSize
	}
}
