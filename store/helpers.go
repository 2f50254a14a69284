package store

import (
	"github.com/iov-one/weave-splitter/errors"
)

// Model is a single key value pair.
type Model struct {
	Key   []byte
	Value []byte
}

// SliceIterator iterates over a prepared list of models.
type SliceIterator struct {
	data []Model
}

var _ Iterator = (*SliceIterator)(nil)

// NewSliceIterator returns an iterator over data, in the order given.
func NewSliceIterator(data []Model) *SliceIterator {
	return &SliceIterator{data: data}
}

func (s *SliceIterator) Valid() bool {
	return len(s.data) != 0
}

// Next panics when called on an exhausted iterator.
func (s *SliceIterator) Next() error {
	s.mustBeValid()
	s.data = s.data[1:]
	return nil
}

func (s *SliceIterator) Key() []byte {
	s.mustBeValid()
	return s.data[0].Key
}

func (s *SliceIterator) Value() []byte {
	s.mustBeValid()
	return s.data[0].Value
}

func (s *SliceIterator) Close() {
	s.data = nil
}

func (s *SliceIterator) mustBeValid() {
	if len(s.data) == 0 {
		panic("iterator is exhausted")
	}
}

// EmptyKVStore holds nothing and ignores all writes. It is the bottom layer
// of MemStore.
type EmptyKVStore struct{}

var _ KVStore = EmptyKVStore{}

func (EmptyKVStore) Get([]byte) ([]byte, error) { return nil, nil }
func (EmptyKVStore) Has([]byte) (bool, error) { return false, nil }
func (EmptyKVStore) Set(key, value []byte) error { return nil }
func (EmptyKVStore) Delete([]byte) error { return nil }
func (e EmptyKVStore) NewBatch() Batch { return NewNonAtomicBatch(e) }

func (EmptyKVStore) Iterator(start, end []byte) (Iterator, error) {
	return NewSliceIterator(nil), nil
}

func (EmptyKVStore) ReverseIterator(start, end []byte) (Iterator, error) {
	return NewSliceIterator(nil), nil
}

// Op is a single pending write, either a set or a delete.
type Op struct {
	del   bool
	key   []byte
	value []byte
}

// SetOp returns an operation that sets key to value.
func SetOp(key, value []byte) Op {
	return Op{key: key, value: value}
}

// DelOp returns an operation that removes key.
func DelOp(key []byte) Op {
	return Op{del: true, key: key}
}

// Apply executes the operation on out.
func (o Op) Apply(out SetDeleter) error {
	if o.del {
		return out.Delete(o.key)
	}
	return out.Set(o.key, o.value)
}

func (o Op) IsSetOp() bool { return !o.del }

func (o Op) Key() []byte { return o.key }

// Value is nil for a delete.
func (o Op) Value() []byte { return o.value }

// NonAtomicBatch collects operations and replays them on Write. A failure in
// the middle of Write leaves out partially updated, so it must only be used
// on top of in-memory stores.
type NonAtomicBatch struct {
	out SetDeleter
	ops []Op
}

var _ Batch = (*NonAtomicBatch)(nil)

func NewNonAtomicBatch(out SetDeleter) *NonAtomicBatch {
	return &NonAtomicBatch{out: out}
}

func (b *NonAtomicBatch) Set(key, value []byte) error {
	b.ops = append(b.ops, SetOp(key, value))
	return nil
}

func (b *NonAtomicBatch) Delete(key []byte) error {
	b.ops = append(b.ops, DelOp(key))
	return nil
}

func (b *NonAtomicBatch) Write() error {
	for _, op := range b.ops {
		if err := op.Apply(b.out); err != nil {
			return errors.Wrap(err, "apply batch")
		}
	}
	b.ops = nil
	return nil
}

// ShowOps returns the pending operations in the order they were added.
func (b *NonAtomicBatch) ShowOps() []Op {
	return b.ops
}
