package partition

import "hash/fnv"

// Count is the fixed number of logical partitions group keys hash into.
// Reducers fold partitions onto however many workers they run with.
const Count = 256

// For returns the partition ID for a group key.
// The same key always maps to the same partition. Uses FNV-32a.
func For(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % Count)
}

// Shard maps a group key onto one of workers shards via its partition.
// Keys sharing a partition always share a shard. workers < 1 is treated as 1.
func Shard(key string, workers int) int {
	if workers <= 1 {
		return 0
	}
	return For(key) % workers
}
