// Package cache implements the two cache layers of the aggregator on top of a
// repository.CacheStore: the in-process MemoryStore, the shared RedisStore,
// and JSONCache, a typed read-through wrapper that serializes values so that
// cached results are immutable and byte-identical across reads.
package cache
