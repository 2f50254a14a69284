package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/errors"
	"github.com/iov-one/weave-splitter/store/bolt"
	"github.com/iov-one/weave-splitter/weavetest"
	"github.com/iov-one/weave-splitter/weavetest/assert"
	"github.com/iov-one/weave-splitter/x/utils"
)

func TestLedgerDeliverCommits(t *testing.T) {
	db := openStore(t)
	h := &weavetest.WriteHandler{Key: []byte("k"), Value: []byte("v")}
	l := NewLedger(db, pathDecoder, h, nil)
	assert.Nil(t, l.InitChain("split-test", nil, noopInit{}))

	_, err := l.CheckTx(context.Background(), []byte("test/write"))
	assert.Nil(t, err)
	assertValue(t, l, []byte("k"), nil)

	_, id, err := l.DeliverTx(context.Background(), []byte("test/write"))
	assert.Nil(t, err)
	assert.Equal(t, int64(2), id.Version)
	assertValue(t, l, []byte("k"), []byte("v"))

	committed, err := db.Get([]byte("k"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("v"), committed)
}

func TestLedgerFailedDeliver(t *testing.T) {
	db := openStore(t)
	h := &weavetest.WriteHandler{Key: []byte("k"), Value: []byte("v"), Err: errors.ErrAmount}
	stack := ChainDecorators(utils.NewSavepoint().OnDeliver()).WithHandler(h)
	l := NewLedger(db, pathDecoder, stack, nil)
	assert.Nil(t, l.InitChain("split-test", nil, noopInit{}))

	_, id, err := l.DeliverTx(context.Background(), []byte("test/write"))
	assert.IsErr(t, errors.ErrAmount, err)
	assert.Equal(t, int64(2), id.Version)
	assertValue(t, l, []byte("k"), nil)

	// Without a savepoint the changes of a failed delivery are kept.
	l = NewLedger(db, pathDecoder, h, nil)
	assert.Nil(t, l.InitChain("split-test", nil, noopInit{}))
	_, _, err = l.DeliverTx(context.Background(), []byte("test/write"))
	assert.IsErr(t, errors.ErrAmount, err)
	assertValue(t, l, []byte("k"), []byte("v"))
}

func TestLedgerRequiresChain(t *testing.T) {
	l := NewLedger(openStore(t), pathDecoder, &weavetest.Handler{}, nil)

	_, err := l.CheckTx(context.Background(), []byte("test/write"))
	assert.IsErr(t, errors.ErrState, err)
	_, _, err = l.DeliverTx(context.Background(), []byte("test/write"))
	assert.IsErr(t, errors.ErrState, err)
}

func TestLedgerDecodeFailure(t *testing.T) {
	h := &weavetest.Handler{}
	l := NewLedger(openStore(t), pathDecoder, h, nil)
	assert.Nil(t, l.InitChain("split-test", nil, noopInit{}))

	_, _, err := l.DeliverTx(context.Background(), nil)
	assert.IsErr(t, errors.ErrInput, err)
	assert.Equal(t, 0, h.CallCount())
}

func TestLedgerContext(t *testing.T) {
	h := &contextHandler{}
	l := NewLedger(openStore(t), pathDecoder, h, nil)
	blockTime := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	l.now = func() time.Time { return blockTime }
	assert.Nil(t, l.InitChain("split-test", nil, noopInit{}))

	_, _, err := l.DeliverTx(context.Background(), []byte("test/ctx"))
	assert.Nil(t, err)
	assert.Equal(t, "split-test", weave.GetChainID(h.ctx))
	height, ok := weave.GetHeight(h.ctx)
	assert.Equal(t, true, ok)
	assert.Equal(t, int64(2), height)
	got, ok := weave.BlockTime(h.ctx)
	assert.Equal(t, true, ok)
	assert.Equal(t, blockTime, got)

	_, _, err = l.DeliverTx(context.Background(), []byte("test/ctx"))
	assert.Nil(t, err)
	height, _ = weave.GetHeight(h.ctx)
	assert.Equal(t, int64(3), height)
}

func TestLedgerInitChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	db, err := bolt.Open(path)
	assert.Nil(t, err)

	init := &countingInit{key: []byte("genesis")}
	l := NewLedger(db, pathDecoder, &weavetest.Handler{}, nil)
	assert.Nil(t, l.InitChain("split-test", weave.Options{}, init))
	assert.Equal(t, 1, init.calls)
	assert.Equal(t, "split-test", l.ChainID())
	assertValue(t, l, []byte("genesis"), []byte("loaded"))
	assert.Nil(t, db.Close())

	// Reopening the same store must not load genesis again.
	db, err = bolt.Open(path)
	assert.Nil(t, err)
	defer db.Close()
	l = NewLedger(db, pathDecoder, &weavetest.Handler{}, nil)
	assert.Nil(t, l.InitChain("split-test", weave.Options{}, init))
	assert.Equal(t, 1, init.calls)

	err = l.InitChain("other-chain", weave.Options{}, init)
	assert.IsErr(t, errors.ErrState, err)

	err = l.InitChain("x", weave.Options{}, init)
	assert.IsErr(t, errors.ErrInput, err)
}

func TestLedgerFailedGenesis(t *testing.T) {
	db := openStore(t)
	l := NewLedger(db, pathDecoder, &weavetest.Handler{}, nil)
	init := &countingInit{key: []byte("genesis"), err: errors.ErrModel}
	err := l.InitChain("split-test", weave.Options{}, init)
	assert.IsErr(t, errors.ErrModel, err)

	id, err := l.LatestVersion()
	assert.Nil(t, err)
	assert.Equal(t, int64(0), id.Version)
	assertValue(t, l, []byte("genesis"), nil)
}

func openStore(t testing.TB) *bolt.CommitStore {
	t.Helper()
	db, err := bolt.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("cannot open store: %s", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// pathDecoder decodes a transaction carrying a message with the raw bytes as
// its path.
func pathDecoder(raw []byte) (weave.Tx, error) {
	if len(raw) == 0 {
		return nil, errors.Wrap(errors.ErrEmpty, "no data")
	}
	return &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: string(raw)}}, nil
}

func assertValue(t testing.TB, l *Ledger, key, want []byte) {
	t.Helper()
	err := l.Query(func(db weave.ReadOnlyKVStore) error {
		got, err := db.Get(key)
		if err != nil {
			return err
		}
		assert.Equal(t, want, got)
		return nil
	})
	assert.Nil(t, err)
}

type noopInit struct{}

func (noopInit) FromGenesis(weave.Options, weave.KVStore) error { return nil }

type countingInit struct {
	key   []byte
	err   error
	calls int
}

func (i *countingInit) FromGenesis(opts weave.Options, db weave.KVStore) error {
	i.calls++
	if err := db.Set(i.key, []byte("loaded")); err != nil {
		return err
	}
	return i.err
}

// contextHandler remembers the context of the last call.
type contextHandler struct {
	ctx weave.Context
}

func (h *contextHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	h.ctx = ctx
	return &weave.CheckResult{}, nil
}

func (h *contextHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	h.ctx = ctx
	return &weave.DeliverResult{}, nil
}
