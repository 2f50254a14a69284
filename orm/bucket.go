/*
Package orm provides an easy to use db wrapper

Break state space into prefixed sections called Buckets.
* Each bucket contains only one type of object.
* It is keyed by a primary key chosen by the owning extension.
* Easy queries for one and iteration.
*/
package orm

import (
	"fmt"
	"regexp"

	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/errors"
)

var (
	isBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`).MatchString
)

// Bucket is a prefixed subspace of the DB. It stores raw bytes, use
// ModelBucket to work with validated models.
type Bucket struct {
	name   string
	prefix []byte
}

// NewBucket creates a bucket to store data
func NewBucket(name string) Bucket {
	if !isBucketName(name) {
		panic(fmt.Sprintf("Illegal bucket: %s", name))
	}
	return Bucket{
		name:   name,
		prefix: append([]byte(name), ':'),
	}
}

// Name returns the name of this bucket.
func (b Bucket) Name() string {
	return b.name
}

// DBKey is the full key we store in the db, including prefix
// We copy into a new array rather than use append, as we don't
// want consecutive calls to overwrite the same byte array.
func (b Bucket) DBKey(key []byte) []byte {
	l := len(b.prefix)
	out := make([]byte, l+len(key))
	copy(out, b.prefix)
	copy(out[l:], key)
	return out
}

// Get returns the raw value stored under given key or nil.
func (b Bucket) Get(db weave.ReadOnlyKVStore, key []byte) ([]byte, error) {
	bz, err := db.Get(b.DBKey(key))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "get %s: %s", b.name, err)
	}
	return bz, nil
}

// Has returns true if a value is stored under given key.
func (b Bucket) Has(db weave.ReadOnlyKVStore, key []byte) (bool, error) {
	ok, err := db.Has(b.DBKey(key))
	if err != nil {
		return false, errors.Wrapf(errors.ErrDatabase, "has %s: %s", b.name, err)
	}
	return ok, nil
}

// Set stores a raw value under given key.
func (b Bucket) Set(db weave.KVStore, key, value []byte) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrInput, "empty key")
	}
	if err := db.Set(b.DBKey(key), value); err != nil {
		return errors.Wrapf(errors.ErrDatabase, "set %s: %s", b.name, err)
	}
	return nil
}

// Delete removes the value stored under given key.
func (b Bucket) Delete(db weave.KVStore, key []byte) error {
	if err := db.Delete(b.DBKey(key)); err != nil {
		return errors.Wrapf(errors.ErrDatabase, "delete %s: %s", b.name, err)
	}
	return nil
}

// Iterate calls fn for every key value pair in this bucket whose key starts
// with given prefix, in ascending key order. Returned keys are stripped of
// the bucket prefix. Iteration stops on the first error returned by fn.
func (b Bucket) Iterate(db weave.ReadOnlyKVStore, prefix []byte, fn func(key, value []byte) error) error {
	start := b.DBKey(prefix)
	it, err := db.Iterator(start, prefixEnd(start))
	if err != nil {
		return errors.Wrapf(errors.ErrDatabase, "iterate %s: %s", b.name, err)
	}
	defer it.Close()

	for it.Valid() {
		if err := fn(it.Key()[len(b.prefix):], it.Value()); err != nil {
			return err
		}
		if err := it.Next(); err != nil {
			return errors.Wrapf(errors.ErrDatabase, "iterate %s: %s", b.name, err)
		}
	}
	return nil
}

// prefixEnd returns the first key that does not start with given prefix, or
// nil if there is no such key.
func prefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
