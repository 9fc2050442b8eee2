// Package shard provides partition key generation for collections stored in
// a single DynamoDB table.
package shard

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// MaxShards is the upper bound on partitions per collection.
const MaxShards = 256

// PartitionKey computes the partition key for a document of a collection.
// With numShards=1, all documents go to partition "00".
// With numShards>1, documents are distributed across partitions by id hash.
func PartitionKey(collection, id string, numShards int) string {
	if numShards <= 1 {
		return fmt.Sprintf("%s#00", collection)
	}
	if numShards > MaxShards {
		numShards = MaxShards
	}
	h := fnv.New32a()
	h.Write([]byte(id))
	shard := h.Sum32() % uint32(numShards)
	return fmt.Sprintf("%s#%02x", collection, shard)
}

// PartitionKeys lists every partition key of a collection, in shard order.
func PartitionKeys(collection string, numShards int) []string {
	if numShards < 1 {
		numShards = 1
	}
	if numShards > MaxShards {
		numShards = MaxShards
	}
	keys := make([]string, numShards)
	for i := range keys {
		keys[i] = fmt.Sprintf("%s#%02x", collection, i)
	}
	return keys
}

// SplitPartitionKey recovers the collection and shard number from a partition key.
func SplitPartitionKey(pk string) (collection string, shard int, ok bool) {
	i := strings.LastIndexByte(pk, '#')
	if i <= 0 || i == len(pk)-1 {
		return "", 0, false
	}
	n, err := strconv.ParseUint(pk[i+1:], 16, 16)
	if err != nil || n >= MaxShards {
		return "", 0, false
	}
	return pk[:i], int(n), true
}
