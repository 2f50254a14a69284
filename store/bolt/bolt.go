/*
Package bolt provides a persistent, committing key value store backed by a
bbolt database file.

All writes go through a btree cache wrap and reach the database only when
Commit is called. A single bbolt transaction writes both the data and the new
version information, so a crash never leaves a partially committed state.
*/
package bolt

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"os"
	"path/filepath"

	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/errors"
	"github.com/iov-one/weave-splitter/store"
	"go.etcd.io/bbolt"
)

var (
	bucketData = []byte("data")
	bucketMeta = []byte("meta")

	metaVersion = []byte("version")
	metaHash    = []byte("hash")
)

// CommitStore is a weave.CommitKVStore persisting its state in bbolt.
type CommitStore struct {
	db      *bbolt.DB
	batch   *batch
	working store.BTreeCacheWrap
	latest  weave.CommitID
}

var _ weave.CommitKVStore = (*CommitStore)(nil)

// Open opens or creates the database at dbPath and loads the latest
// committed version. The parent directory is created if it does not exist.
func Open(dbPath string) (*CommitStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "open %q: %s", dbPath, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketData, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return errors.Wrapf(errors.ErrDatabase, "create bucket %q: %s", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &CommitStore{db: db}
	if err := s.LoadLatestVersion(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database file. Uncommitted changes are lost.
func (s *CommitStore) Close() error {
	return s.db.Close()
}

// Get returns the value at last committed state.
func (s *CommitStore) Get(key []byte) ([]byte, error) {
	return s.Committed().Get(key)
}

// Committed returns a read only view of the last committed state.
func (s *CommitStore) Committed() weave.ReadOnlyKVStore {
	return &kvStore{db: s.db}
}

// CacheWrap returns a cache wrap on top of all changes made since the last
// commit. Writing it makes the changes part of the next commit.
func (s *CommitStore) CacheWrap() weave.KVCacheWrap {
	return s.working.CacheWrap()
}

// Commit writes all pending changes together with the next version number
// and state hash.
func (s *CommitStore) Commit() (weave.CommitID, error) {
	next := weave.CommitID{
		Version: s.latest.Version + 1,
		Hash:    rollHash(s.latest.Hash, s.batch.ops),
	}
	var ver [8]byte
	binary.BigEndian.PutUint64(ver[:], uint64(next.Version))
	s.batch.meta = []store.Op{
		store.SetOp(metaVersion, ver[:]),
		store.SetOp(metaHash, next.Hash),
	}
	if err := s.working.Write(); err != nil {
		// The bbolt transaction rolled back, so drop the pending changes
		// as well to stay in line with what is on disk.
		s.reset()
		return s.latest, err
	}
	s.latest = next
	return next, nil
}

// LoadLatestVersion reads the last committed version and drops any
// uncommitted changes.
func (s *CommitStore) LoadLatestVersion() error {
	var id weave.CommitID
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		if raw := b.Get(metaVersion); raw != nil {
			if len(raw) != 8 {
				return errors.Wrap(errors.ErrDatabase, "malformed version")
			}
			id.Version = int64(binary.BigEndian.Uint64(raw))
		}
		if raw := b.Get(metaHash); raw != nil {
			id.Hash = append([]byte(nil), raw...)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.latest = id
	s.reset()
	return nil
}

// LatestVersion returns info on the latest version saved to disk.
func (s *CommitStore) LatestVersion() (weave.CommitID, error) {
	return s.latest, nil
}

func (s *CommitStore) reset() {
	if s.batch != nil {
		s.working.Discard()
	}
	s.batch = &batch{db: s.db}
	s.working = store.NewBTreeCacheWrap(&kvStore{db: s.db}, s.batch, nil)
}

// rollHash chains the previous state hash with every operation of the
// commit, in the order they were executed.
func rollHash(prev []byte, ops []store.Op) []byte {
	h := sha256.New()
	_, _ = h.Write(prev)
	var size [4]byte
	for _, op := range ops {
		if op.IsSetOp() {
			_, _ = h.Write([]byte{1})
		} else {
			_, _ = h.Write([]byte{0})
		}
		binary.BigEndian.PutUint32(size[:], uint32(len(op.Key())))
		_, _ = h.Write(size[:])
		_, _ = h.Write(op.Key())
		binary.BigEndian.PutUint32(size[:], uint32(len(op.Value())))
		_, _ = h.Write(size[:])
		_, _ = h.Write(op.Value())
	}
	return h.Sum(nil)
}

// kvStore reads and writes directly to the data bucket. Every write is its
// own bbolt transaction, so it is only used as the backing store of a
// cache wrap.
type kvStore struct {
	db *bbolt.DB
}

var _ weave.KVStore = (*kvStore)(nil)

func (s *kvStore) Get(key []byte) ([]byte, error) {
	var res []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketData).Get(key); v != nil {
			// Values are only valid for the life of the transaction.
			res = append([]byte{}, v...)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return res, nil
}

func (s *kvStore) Has(key []byte) (bool, error) {
	v, err := s.Get(key)
	return v != nil, err
}

func (s *kvStore) Set(key, value []byte) error {
	b := s.NewBatch()
	if err := b.Set(key, value); err != nil {
		return err
	}
	return b.Write()
}

func (s *kvStore) Delete(key []byte) error {
	b := s.NewBatch()
	if err := b.Delete(key); err != nil {
		return err
	}
	return b.Write()
}

func (s *kvStore) NewBatch() weave.Batch {
	return &batch{db: s.db}
}

// Iterator loads the whole range into memory, as bbolt cursors cannot
// outlive their transaction.
func (s *kvStore) Iterator(start, end []byte) (weave.Iterator, error) {
	models, err := s.load(start, end)
	if err != nil {
		return nil, err
	}
	return store.NewSliceIterator(models), nil
}

func (s *kvStore) ReverseIterator(start, end []byte) (weave.Iterator, error) {
	models, err := s.load(start, end)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(models)-1; i < j; i, j = i+1, j-1 {
		models[i], models[j] = models[j], models[i]
	}
	return store.NewSliceIterator(models), nil
}

// load returns all key value pairs in the [start, end) range in ascending
// order.
func (s *kvStore) load(start, end []byte) ([]store.Model, error) {
	var models []store.Model
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketData).Cursor()
		var k, v []byte
		if start == nil {
			k, v = c.First()
		} else {
			k, v = c.Seek(start)
		}
		for ; k != nil; k, v = c.Next() {
			if end != nil && bytes.Compare(k, end) >= 0 {
				break
			}
			models = append(models, store.Model{
				Key:   append([]byte{}, k...),
				Value: append([]byte{}, v...),
			})
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return models, nil
}

// batch collects operations and applies them in a single bbolt
// transaction.
type batch struct {
	db   *bbolt.DB
	ops  []store.Op
	meta []store.Op
}

var _ weave.Batch = (*batch)(nil)

func (b *batch) Set(key, value []byte) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrDatabase, "empty key")
	}
	b.ops = append(b.ops, store.SetOp(key, value))
	return nil
}

func (b *batch) Delete(key []byte) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrDatabase, "empty key")
	}
	b.ops = append(b.ops, store.DelOp(key))
	return nil
}

func (b *batch) Write() error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		if err := apply(tx.Bucket(bucketData), b.ops); err != nil {
			return err
		}
		return apply(tx.Bucket(bucketMeta), b.meta)
	})
	b.ops = nil
	b.meta = nil
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

func apply(bucket *bbolt.Bucket, ops []store.Op) error {
	for _, op := range ops {
		var err error
		if op.IsSetOp() {
			value := op.Value()
			if value == nil {
				value = []byte{}
			}
			err = bucket.Put(op.Key(), value)
		} else {
			err = bucket.Delete(op.Key())
		}
		if err != nil {
			return err
		}
	}
	return nil
}
