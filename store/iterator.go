package store

import (
	"bytes"

	"github.com/google/btree"
)

// ascendRange returns a snapshot of the tree entries in [start, end) in
// ascending order. A nil bound is open.
func ascendRange(tree *btree.BTree, start, end []byte) []entry {
	var res []entry
	collect := func(item btree.Item) bool {
		res = append(res, item.(entry))
		return true
	}
	switch {
	case start == nil && end == nil:
		tree.Ascend(collect)
	case start == nil:
		tree.AscendLessThan(entry{key: end}, collect)
	case end == nil:
		tree.AscendGreaterOrEqual(entry{key: start}, collect)
	default:
		tree.AscendRange(entry{key: start}, entry{key: end}, collect)
	}
	return res
}

// descendRange returns a snapshot of the tree entries in [start, end) in
// descending order. A nil bound is open.
func descendRange(tree *btree.BTree, start, end []byte) []entry {
	var res []entry
	collect := func(item btree.Item) bool {
		res = append(res, item.(entry))
		return true
	}
	switch {
	case start == nil && end == nil:
		tree.Descend(collect)
	case start == nil:
		tree.DescendLessOrEqual(upperBound(end), collect)
	case end == nil:
		tree.DescendGreaterThan(upperBound(start), collect)
	default:
		tree.DescendRange(upperBound(end), upperBound(start), collect)
	}
	return res
}

// mergeIterator walks the pending entries of a cache and the iterator of its
// parent at the same time. On equal keys the cache wins, and deleted entries
// hide the parent value.
type mergeIterator struct {
	pending []entry
	parent  Iterator
	reverse bool
}

var _ Iterator = (*mergeIterator)(nil)

func newMergeIterator(pending []entry, parent Iterator, reverse bool) (*mergeIterator, error) {
	it := &mergeIterator{pending: pending, parent: parent, reverse: reverse}
	if err := it.skipDeleted(); err != nil {
		it.Close()
		return nil, err
	}
	return it, nil
}

// side tells which of the two sources holds the current key.
type side int

const (
	sideNone side = iota
	sideCache
	sideParent
	sideBoth
)

func (it *mergeIterator) current() side {
	cacheOK := len(it.pending) != 0
	parentOK := it.parent != nil && it.parent.Valid()
	switch {
	case !cacheOK && !parentOK:
		return sideNone
	case !parentOK:
		return sideCache
	case !cacheOK:
		return sideParent
	}
	cmp := bytes.Compare(it.pending[0].key, it.parent.Key())
	if it.reverse {
		cmp = -cmp
	}
	switch {
	case cmp < 0:
		return sideCache
	case cmp > 0:
		return sideParent
	default:
		return sideBoth
	}
}

func (it *mergeIterator) Valid() bool {
	return it.current() != sideNone
}

// Next advances to the following visible key. It panics when the iterator
// is not valid.
func (it *mergeIterator) Next() error {
	if err := it.advance(it.current()); err != nil {
		return err
	}
	return it.skipDeleted()
}

func (it *mergeIterator) advance(s side) error {
	switch s {
	case sideCache:
		it.pending = it.pending[1:]
	case sideParent:
		return it.parent.Next()
	case sideBoth:
		it.pending = it.pending[1:]
		return it.parent.Next()
	default:
		panic("iterator is not valid")
	}
	return nil
}

func (it *mergeIterator) skipDeleted() error {
	for {
		s := it.current()
		if s != sideCache && s != sideBoth {
			return nil
		}
		if !it.pending[0].deleted {
			return nil
		}
		if err := it.advance(s); err != nil {
			return err
		}
	}
}

func (it *mergeIterator) Key() []byte {
	switch it.current() {
	case sideCache, sideBoth:
		return it.pending[0].key
	case sideParent:
		return it.parent.Key()
	default:
		panic("iterator is not valid")
	}
}

func (it *mergeIterator) Value() []byte {
	switch it.current() {
	case sideCache, sideBoth:
		return it.pending[0].value
	case sideParent:
		return it.parent.Value()
	default:
		panic("iterator is not valid")
	}
}

func (it *mergeIterator) Close() {
	if it.parent != nil {
		it.parent.Close()
	}
	it.pending = nil
}
