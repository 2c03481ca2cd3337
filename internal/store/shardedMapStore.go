package store

import (
	"fmt"
	"hash/fnv"
	"time"
)

// maxShards caps the shard count, more gives no gain for a single process
const maxShards = 64

// ShardedMapStore routes each key to one of n MapStores by its FNV-1a hash,
// so writers to different keys rarely wait on the same lock
type ShardedMapStore struct {
	shards []*MapStore
	mask   uint32
}

// NewShardedMapStore creates n shards; n must be a power of two between 1 and 64
func NewShardedMapStore(n uint) (*ShardedMapStore, error) {
	if n == 0 || n&(n-1) != 0 || n > maxShards {
		return nil, fmt.Errorf("store: shard count %d must be a power of two in [1, %d]", n, maxShards)
	}

	shards := make([]*MapStore, n)
	for i := range shards {
		shards[i] = NewMapStore()
	}

	return &ShardedMapStore{shards: shards, mask: uint32(n - 1)}, nil
}

func (s *ShardedMapStore) shardFor(key string) *MapStore {
	return s.shards[s.shardIndex(key)]
}

func (s *ShardedMapStore) shardIndex(key string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key)) //nolint:errcheck
	return h.Sum32() & s.mask
}

func (s *ShardedMapStore) Get(key string) ([]byte, bool) {
	return s.shardFor(key).Get(key)
}

func (s *ShardedMapStore) Set(key string, value []byte, ttl time.Duration) {
	s.shardFor(key).Set(key, value, ttl)
}

func (s *ShardedMapStore) Delete(key string) bool {
	return s.shardFor(key).Delete(key)
}
