// Package shard provides partition key generation for the DynamoDB link tables.
package shard

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"strconv"
)

// TypePK computes the sharded partition key of a link in the by_type index.
// With numShards=1, all links of a type go to shard "00".
// With numShards>1, links are distributed across shards based on the link id hash.
func TypePK(typeID, linkID int64, numShards int) string {
	if numShards <= 1 {
		return fmt.Sprintf("type#%d#00", typeID)
	}
	h := fnv.New32a()
	h.Write([]byte(strconv.FormatInt(linkID, 10)))
	shard := h.Sum32() % uint32(numShards)
	return fmt.Sprintf("type#%d#%02x", typeID, shard)
}

// TypeShardPKs returns every partition key of a type, one per shard, for
// fan-out queries.
func TypeShardPKs(typeID int64, numShards int) []string {
	if numShards < 1 {
		numShards = 1
	}
	pks := make([]string, numShards)
	for i := range pks {
		pks[i] = fmt.Sprintf("type#%d#%02x", typeID, i)
	}
	return pks
}

// ValuePK computes a hash-distributed partition key for a value lookup.
// Equal values in the same table share a key; the key length is fixed
// whatever the size of the value.
func ValuePK(table, lookupKey string) string {
	h := sha256.Sum256([]byte(table + "#" + lookupKey))
	return hex.EncodeToString(h[:16]) // 128-bit hash as hex
}
