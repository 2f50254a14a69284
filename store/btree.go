package store

import (
	"bytes"

	"github.com/google/btree"
	"github.com/iov-one/weave-splitter/errors"
)

// MemStore returns an empty in-memory store. Nothing written to it outlives
// the process.
func MemStore() CacheableKVStore {
	base := EmptyKVStore{}
	return NewBTreeCacheWrap(base, base.NewBatch(), nil)
}

// BTreeCacheWrap keeps pending writes in a btree on top of a read only
// parent. Reads consult the btree first and fall back to the parent. All
// writes are also recorded in batch, which transfers them to the parent on
// Write.
type BTreeCacheWrap struct {
	tree   *btree.BTree
	free   *btree.FreeList
	parent ReadOnlyKVStore
	batch  Batch
}

var _ KVCacheWrap = BTreeCacheWrap{}

// NewBTreeCacheWrap returns a cache over parent that flushes into batch.
// A nil free list allocates a new one. Cache wraps stacked on each other
// share their free list.
func NewBTreeCacheWrap(parent ReadOnlyKVStore, batch Batch, free *btree.FreeList) BTreeCacheWrap {
	if free == nil {
		free = btree.NewFreeList(btree.DefaultFreeListSize)
	}
	return BTreeCacheWrap{
		tree:   btree.NewWithFreeList(2, free),
		free:   free,
		parent: parent,
		batch:  batch,
	}
}

// CacheWrap returns another cache layer that writes into this one.
func (b BTreeCacheWrap) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(b, b.NewBatch(), b.free)
}

func (b BTreeCacheWrap) NewBatch() Batch {
	return NewNonAtomicBatch(b)
}

// Write flushes all pending changes into the parent and empties the cache.
func (b BTreeCacheWrap) Write() error {
	err := b.batch.Write()
	b.Discard()
	return err
}

// Discard drops all pending changes.
func (b BTreeCacheWrap) Discard() {
	for b.tree.DeleteMin() != nil {
	}
	if nb, ok := b.batch.(*NonAtomicBatch); ok {
		nb.ops = nil
	}
}

func (b BTreeCacheWrap) Set(key, value []byte) error {
	if key == nil {
		return errors.Wrap(errors.ErrDatabase, "nil key")
	}
	b.tree.ReplaceOrInsert(entry{key: key, value: value})
	return b.batch.Set(key, value)
}

func (b BTreeCacheWrap) Delete(key []byte) error {
	if key == nil {
		return errors.Wrap(errors.ErrDatabase, "nil key")
	}
	b.tree.ReplaceOrInsert(entry{key: key, deleted: true})
	return b.batch.Delete(key)
}

func (b BTreeCacheWrap) Get(key []byte) ([]byte, error) {
	e, ok := b.lookup(key)
	if !ok {
		return b.parent.Get(key)
	}
	if e.deleted {
		return nil, nil
	}
	return e.value, nil
}

func (b BTreeCacheWrap) Has(key []byte) (bool, error) {
	e, ok := b.lookup(key)
	if !ok {
		return b.parent.Has(key)
	}
	return !e.deleted, nil
}

func (b BTreeCacheWrap) lookup(key []byte) (entry, bool) {
	item := b.tree.Get(entry{key: key})
	if item == nil {
		return entry{}, false
	}
	return item.(entry), true
}

// Iterator merges the pending changes with the parent content, in ascending
// key order.
func (b BTreeCacheWrap) Iterator(start, end []byte) (Iterator, error) {
	parent, err := b.parent.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	return newMergeIterator(ascendRange(b.tree, start, end), parent, false)
}

// ReverseIterator merges the pending changes with the parent content, in
// descending key order.
func (b BTreeCacheWrap) ReverseIterator(start, end []byte) (Iterator, error) {
	parent, err := b.parent.ReverseIterator(start, end)
	if err != nil {
		return nil, err
	}
	return newMergeIterator(descendRange(b.tree, start, end), parent, true)
}

// keyer is implemented by everything stored in or used to search the tree.
type keyer interface {
	treeKey() []byte
}

// entry is a pending change. A deleted entry hides the parent value.
type entry struct {
	key     []byte
	value   []byte
	deleted bool
}

func (e entry) treeKey() []byte { return e.key }

func (e entry) Less(than btree.Item) bool {
	return bytes.Compare(e.key, than.(keyer).treeKey()) < 0
}

// upperBound is a search pivot that sorts before every entry with the same
// key. Descending ranges use it to exclude the end key and include the start
// key.
type upperBound []byte

func (u upperBound) treeKey() []byte { return u }

func (u upperBound) Less(than btree.Item) bool {
	return bytes.Compare(u, than.(keyer).treeKey()) <= 0
}
