//nolint
package store

import "github.com/iov-one/custody"

// Move references for all storage types into this package
// for shorter names everywhere

type ReadOnlyKVStore = custody.ReadOnlyKVStore
type SetDeleter = custody.SetDeleter
type KVStore = custody.KVStore
type Batch = custody.Batch
type CacheableKVStore = custody.CacheableKVStore
type KVCacheWrap = custody.KVCacheWrap
type CommitKVStore = custody.CommitKVStore
type CommitID = custody.CommitID

// Model groups together key and value to return
type Model struct {
	Key   []byte
	Value []byte
}

// Pair constructs a model from a key-value pair
func Pair(key, value []byte) Model {
	return Model{
		Key:   key,
		Value: value,
	}
}
