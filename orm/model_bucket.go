package orm

import (
	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/errors"
)

// Model is implemented by any entity that can be stored using ModelBucket.
type Model interface {
	weave.Persistent
	Validate() error
}

// ModelBucket stores models of a single type in a bucket. Every model is
// validated before it is written and every read deserializes the stored
// bytes, so invalid data cannot be returned as a model.
type ModelBucket struct {
	b Bucket
}

// NewModelBucket returns a ModelBucket storing its data under given bucket
// name.
func NewModelBucket(name string) ModelBucket {
	return ModelBucket{b: NewBucket(name)}
}

// Bucket returns the raw bucket used for storage.
func (mb ModelBucket) Bucket() Bucket {
	return mb.b
}

// One query the database for a single model instance. Result is loaded into
// given destination model.
// This method returns ErrNotFound if the entity does not exist in the
// database.
func (mb ModelBucket) One(db weave.ReadOnlyKVStore, key []byte, dest Model) error {
	bz, err := mb.b.Get(db, key)
	if err != nil {
		return err
	}
	if bz == nil {
		return errors.Wrapf(errors.ErrNotFound, "%T not in the store", dest)
	}
	if err := dest.Unmarshal(bz); err != nil {
		return errors.Wrapf(errors.ErrModel, "cannot unmarshal %T: %s", dest, err)
	}
	return nil
}

// Has returns true if an entity with given key exists.
func (mb ModelBucket) Has(db weave.ReadOnlyKVStore, key []byte) (bool, error) {
	return mb.b.Has(db, key)
}

// Put saves given model in the database, overwriting any existing entity.
func (mb ModelBucket) Put(db weave.KVStore, key []byte, m Model) error {
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "invalid model")
	}
	bz, err := m.Marshal()
	if err != nil {
		return errors.Wrapf(errors.ErrModel, "cannot marshal %T: %s", m, err)
	}
	return mb.b.Set(db, key, bz)
}

// Create saves given model under a key that must not be in use yet.
// ErrDuplicate is returned if the key is already taken.
func (mb ModelBucket) Create(db weave.KVStore, key []byte, m Model) error {
	switch ok, err := mb.b.Has(db, key); {
	case err != nil:
		return err
	case ok:
		return errors.Wrapf(errors.ErrDuplicate, "%T with key %X", m, key)
	}
	return mb.Put(db, key, m)
}

// Delete removes an entity with given primary key from the database.
// It returns ErrNotFound if an entity with given key does not exist.
func (mb ModelBucket) Delete(db weave.KVStore, key []byte) error {
	switch ok, err := mb.b.Has(db, key); {
	case err != nil:
		return err
	case !ok:
		return errors.Wrapf(errors.ErrNotFound, "key %X", key)
	}
	return mb.b.Delete(db, key)
}

// Iterate loads every entity with a key starting with given prefix into
// dest and calls fn with its key. dest is overwritten on every step.
func (mb ModelBucket) Iterate(db weave.ReadOnlyKVStore, prefix []byte, dest Model, fn func(key []byte) error) error {
	return mb.b.Iterate(db, prefix, func(key, value []byte) error {
		if err := dest.Unmarshal(value); err != nil {
			return errors.Wrapf(errors.ErrModel, "cannot unmarshal %T: %s", dest, err)
		}
		return fn(key)
	})
}
