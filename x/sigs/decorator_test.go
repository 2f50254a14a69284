package sigs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/crypto"
	"github.com/iov-one/weave-splitter/errors"
	"github.com/iov-one/weave-splitter/store"
	"github.com/iov-one/weave-splitter/weavetest"
)

func TestDecorator(t *testing.T) {
	kv := store.MemStore()
	checkKv := kv.CacheWrap()
	signers := new(SigCheckHandler)
	d := NewDecorator()
	chainID := "deco-rate"
	ctx := weave.WithChainID(context.Background(), chainID)

	priv := crypto.GenPrivKeyEd25519()
	perms := []weave.Condition{priv.PublicKey().Condition()}

	tx := &StdTx{Payload: []byte("art")}
	sig, err := SignTx(priv, tx, chainID, 0)
	require.NoError(t, err)
	sig1, err := SignTx(priv, tx, chainID, 1)
	require.NoError(t, err)

	deliver := func(dec weave.Decorator, my weave.Tx) error {
		_, err := dec.Deliver(ctx, kv, my, signers)
		return err
	}
	check := func(dec weave.Decorator, my weave.Tx) error {
		_, err := dec.Check(ctx, checkKv, my, signers)
		return err
	}

	for i, fn := range []func(weave.Decorator, weave.Tx) error{check, deliver} {
		// test with no sigs
		tx.Signatures = nil
		err := fn(d, tx)
		assert.True(t, errors.ErrUnauthorized.Is(err), "%d", i)

		// test with one
		tx.Signatures = []*StdSignature{sig}
		err = fn(d, tx)
		assert.NoError(t, err, "%d", i)
		assert.Equal(t, perms, signers.Signers)

		// test with replay
		err = fn(d, tx)
		assert.True(t, ErrInvalidSequence.Is(err), "%d", i)

		// test allowing none
		ad := d.AllowMissingSigs()
		tx.Signatures = nil
		err = fn(ad, tx)
		assert.NoError(t, err, "%d", i)
		assert.Equal(t, []weave.Condition{}, signers.Signers)

		// test allowing, with next sequence
		tx.Signatures = []*StdSignature{sig1}
		err = fn(ad, tx)
		assert.NoError(t, err, "%d", i)
		assert.Equal(t, perms, signers.Signers)
	}
}

func TestDecoratorRejectsForgedSignature(t *testing.T) {
	kv := store.MemStore()
	chainID := "forge-chain"
	ctx := weave.WithChainID(context.Background(), chainID)

	priv := crypto.GenPrivKeyEd25519()
	tx := &StdTx{Payload: []byte("pay me")}
	sig, err := SignTx(priv, tx, chainID, 0)
	require.NoError(t, err)

	// signature of a different payload
	forged := &StdTx{Payload: []byte("pay you"), Signatures: []*StdSignature{sig}}
	_, err = NewDecorator().Deliver(ctx, kv, forged, &weavetest.Handler{})
	assert.True(t, errors.ErrUnauthorized.Is(err))

	// signature for a different chain
	other, err := SignTx(priv, tx, "other-chain", 0)
	require.NoError(t, err)
	tx.Signatures = []*StdSignature{other}
	_, err = NewDecorator().Deliver(ctx, kv, tx, &weavetest.Handler{})
	assert.True(t, errors.ErrUnauthorized.Is(err))

	// nothing was stored, so sequence 0 is still expected
	seq, err := NextSequence(kv, priv.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)
}

func TestDecoratorSkipsUnsignedTxType(t *testing.T) {
	ctx := context.Background()
	_, err := NewDecorator().AllowMissingSigs().Deliver(ctx, store.MemStore(), &weavetest.Tx{}, &weavetest.Handler{})
	assert.NoError(t, err)

	_, err = NewDecorator().Deliver(ctx, store.MemStore(), &weavetest.Tx{}, &weavetest.Handler{})
	assert.True(t, errors.ErrUnauthorized.Is(err))
}

//---------------- helpers --------

// SigCheckHandler stores the seen signers on each call
type SigCheckHandler struct {
	Signers []weave.Condition
}

var _ weave.Handler = (*SigCheckHandler)(nil)

func (s *SigCheckHandler) Check(ctx weave.Context, store weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	s.Signers = Authenticate{}.GetConditions(ctx)
	return &weave.CheckResult{}, nil
}

func (s *SigCheckHandler) Deliver(ctx weave.Context, store weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	s.Signers = Authenticate{}.GetConditions(ctx)
	return &weave.DeliverResult{}, nil
}

// StdTx is a minimal signed transaction used in tests.
type StdTx struct {
	Payload    []byte
	Signatures []*StdSignature
}

var _ SignedTx = (*StdTx)(nil)
var _ weave.Tx = (*StdTx)(nil)

func (tx *StdTx) GetSignBytes() ([]byte, error) {
	return tx.Payload, nil
}

func (tx *StdTx) GetSignatures() []*StdSignature {
	return tx.Signatures
}

func (tx *StdTx) GetMsg() (weave.Msg, error) {
	return nil, nil
}

func (tx *StdTx) Marshal() ([]byte, error) {
	return tx.Payload, nil
}

func (tx *StdTx) Unmarshal(raw []byte) error {
	tx.Payload = raw
	return nil
}
