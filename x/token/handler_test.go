package token

import (
	"context"
	"testing"

	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/errors"
	"github.com/iov-one/weave-splitter/store"
	"github.com/iov-one/weave-splitter/weavetest"
	"github.com/iov-one/weave-splitter/weavetest/assert"
)

type testRouter map[string]weave.Handler

func (r testRouter) Handle(path string, h weave.Handler) {
	r[path] = h
}

var (
	issuer     = weavetest.NewCondition()
	issuerAddr = issuer.Address()
	ctxAuth    = &weavetest.CtxAuth{Key: "auth"}
)

func newTestRouter() testRouter {
	r := testRouter{}
	RegisterRoutes(r, ctxAuth, issuerAddr, NewController())
	return r
}

func deliver(t testing.TB, r testRouter, db weave.KVStore, signer weave.Condition, msg weave.Msg) (*weave.DeliverResult, error) {
	t.Helper()
	h, ok := r[msg.Path()]
	if !ok {
		t.Fatalf("no handler for %q", msg.Path())
	}
	ctx := context.Background()
	if signer != nil {
		ctx = ctxAuth.SetConditions(ctx, signer)
	}
	tx := &weavetest.Tx{Msg: msg}
	if _, err := h.Check(ctx, db, tx); err != nil {
		return nil, err
	}
	return h.Deliver(ctx, db, tx)
}

func TestTokenHandlers(t *testing.T) {
	alice := weavetest.NewCondition()
	bob := weavetest.NewCondition()

	db := store.MemStore()
	r := newTestRouter()

	_, err := deliver(t, r, db, alice, &RegisterTokenMsg{Mint: "SPL", Name: "Split Token", SigFigs: 6})
	assert.IsErr(t, errors.ErrUnauthorized, err)
	_, err = deliver(t, r, db, issuer, &RegisterTokenMsg{Mint: "SPL", Name: "Split Token", SigFigs: 6})
	assert.Nil(t, err)
	_, err = deliver(t, r, db, issuer, &RegisterTokenMsg{Mint: "SPL", Name: "Other Token", SigFigs: 2})
	assert.IsErr(t, errors.ErrDuplicate, err)

	res, err := deliver(t, r, db, alice, &OpenHoldingMsg{Mint: "SPL"})
	assert.Nil(t, err)
	aliceHolding := weave.Address(res.Data)
	res, err = deliver(t, r, db, bob, &OpenHoldingMsg{Mint: "SPL"})
	assert.Nil(t, err)
	bobHolding := weave.Address(res.Data)

	_, err = deliver(t, r, db, alice, &OpenHoldingMsg{Mint: "NOPE"})
	assert.IsErr(t, errors.ErrNotFound, err)
	_, err = deliver(t, r, db, nil, &OpenHoldingMsg{Mint: "SPL"})
	assert.IsErr(t, errors.ErrUnauthorized, err)

	_, err = deliver(t, r, db, alice, &IssueMsg{Destination: aliceHolding, Amount: 1000})
	assert.IsErr(t, errors.ErrUnauthorized, err)
	_, err = deliver(t, r, db, issuer, &IssueMsg{Destination: aliceHolding, Amount: 1000})
	assert.Nil(t, err)

	_, err = deliver(t, r, db, bob, &TransferMsg{Source: aliceHolding, Destination: bobHolding, Amount: 10})
	assert.IsErr(t, errors.ErrUnauthorized, err)
	_, err = deliver(t, r, db, alice, &TransferMsg{Source: aliceHolding, Destination: bobHolding, Amount: 300})
	assert.Nil(t, err)
	_, err = deliver(t, r, db, alice, &TransferMsg{Source: aliceHolding, Destination: bobHolding})
	assert.IsErr(t, errors.ErrAmount, err)

	ctrl := NewController()
	h, err := ctrl.Holding(db, aliceHolding)
	assert.Nil(t, err)
	assert.Equal(t, uint64(700), h.Amount)
	h, err = ctrl.Holding(db, bobHolding)
	assert.Nil(t, err)
	assert.Equal(t, uint64(300), h.Amount)
}

func TestIssuingDisabledWithoutIssuer(t *testing.T) {
	db := store.MemStore()
	registerMint(t, db, "SPL")
	owner := weavetest.NewCondition()
	addr, err := NewController().Open(db, owner.Address(), "SPL")
	assert.Nil(t, err)

	h := NewIssueHandler(&weavetest.Auth{Signer: owner}, nil, NewController())
	tx := &weavetest.Tx{Msg: &IssueMsg{Destination: addr, Amount: 1}}
	_, err = h.Deliver(context.Background(), db, tx)
	assert.IsErr(t, errors.ErrUnauthorized, err)
}

func TestMsgValidate(t *testing.T) {
	cases := map[string]struct {
		msg     weave.Msg
		wantErr *errors.Error
	}{
		"valid register":        {msg: &RegisterTokenMsg{Mint: "SPL", Name: "Split Token", SigFigs: 6}},
		"register invalid mint": {msg: &RegisterTokenMsg{Mint: "s", Name: "Split Token", SigFigs: 6}, wantErr: errors.ErrInput},
		"register invalid name": {msg: &RegisterTokenMsg{Mint: "SPL", Name: "?", SigFigs: 6}, wantErr: ErrInvalidTokenName},
		"valid open":            {msg: &OpenHoldingMsg{Mint: "SPL"}},
		"open invalid mint":     {msg: &OpenHoldingMsg{Mint: ""}, wantErr: errors.ErrInput},
		"transfer no source": {
			msg:     &TransferMsg{Destination: weavetest.NewAddress(), Amount: 1},
			wantErr: errors.ErrInput,
		},
		"issue no amount": {
			msg:     &IssueMsg{Destination: weavetest.NewAddress()},
			wantErr: errors.ErrAmount,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if err := tc.msg.Validate(); !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
		})
	}
}
