//nolint
package store

import weave "github.com/iov-one/weave-splitter"

// Move references for all storage types into this package
// for shorter names everywhere

type ReadOnlyKVStore = weave.ReadOnlyKVStore
type SetDeleter = weave.SetDeleter
type KVStore = weave.KVStore
type Batch = weave.Batch
type Iterator = weave.Iterator
type CacheableKVStore = weave.CacheableKVStore
type KVCacheWrap = weave.KVCacheWrap
type CommitKVStore = weave.CommitKVStore
type CommitID = weave.CommitID
