package distribution

import (
	"context"
	"testing"

	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/errors"
	"github.com/iov-one/weave-splitter/store"
	"github.com/iov-one/weave-splitter/weavetest"
	"github.com/iov-one/weave-splitter/weavetest/assert"
	"github.com/iov-one/weave-splitter/x/cash"
	"github.com/iov-one/weave-splitter/x/token"
)

type testRouter map[string]weave.Handler

func (r testRouter) Handle(path string, h weave.Handler) {
	r[path] = h
}

var ctxAuth = &weavetest.CtxAuth{Key: "auth"}

// deliver runs the message the way the application does, inside of a cache
// wrap that is written only on success.
func deliver(t testing.TB, r testRouter, db weave.CacheableKVStore, signer weave.Condition, msg weave.Msg) (*weave.DeliverResult, error) {
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

	cache := db.CacheWrap()
	_, err := h.Check(ctx, cache, tx)
	cache.Discard()
	if err != nil {
		return nil, err
	}

	cache = db.CacheWrap()
	res, err := h.Deliver(ctx, cache, tx)
	if err != nil {
		cache.Discard()
		return nil, err
	}
	if err := cache.Write(); err != nil {
		t.Fatalf("cannot write: %s", err)
	}
	return res, nil
}

func TestNativeDistributionFlow(t *testing.T) {
	authority := weavetest.NewCondition()
	payer := weavetest.NewCondition()
	a, b := weavetest.NewAddress(), weavetest.NewAddress()

	db := store.MemStore()
	cashCtrl := cash.NewController(cash.NewBucket())
	assert.Nil(t, cashCtrl.IssueCoins(db, payer.Address(), 5000))

	r := testRouter{}
	RegisterRoutes(r, ctxAuth, cashCtrl, token.NewController())

	_, err := deliver(t, r, db, authority, &InitializeMsg{
		Recipients:  []weave.Address{a, b},
		Percentages: []uint32{6000, 4001},
	})
	assert.IsErr(t, ErrInvalidTotal, err)
	_, err = deliver(t, r, db, nil, &InitializeMsg{
		Recipients:  []weave.Address{a, b},
		Percentages: []uint32{6000, 4000},
	})
	assert.IsErr(t, errors.ErrUnauthorized, err)

	res, err := deliver(t, r, db, authority, &InitializeMsg{
		Recipients:  []weave.Address{a, b},
		Percentages: []uint32{6000, 4000},
	})
	assert.Nil(t, err)
	configID := weave.Address(res.Data)

	_, err = deliver(t, r, db, authority, &InitializeMsg{
		Recipients:  []weave.Address{a},
		Percentages: []uint32{10000},
	})
	assert.IsErr(t, errors.ErrDuplicate, err)

	swapped, err := NewDestinations(b, a)
	assert.Nil(t, err)
	_, err = deliver(t, r, db, payer, &DistributeNativeMsg{ConfigID: configID, Amount: 1000, Destinations: swapped})
	assert.IsErr(t, ErrInvalidRecipient, err)

	ordered, err := NewDestinations(a, b)
	assert.Nil(t, err)
	res, err = deliver(t, r, db, payer, &DistributeNativeMsg{ConfigID: configID, Amount: 1000, Destinations: ordered})
	assert.Nil(t, err)
	assert.Equal(t, weave.Tag{Key: "remainder", Value: "0"}, res.Tags[2])

	assertBalance(t, cashCtrl, db, payer.Address(), 4000)
	assertBalance(t, cashCtrl, db, a, 600)
	assertBalance(t, cashCtrl, db, b, 400)

	// Only the authority can update.
	_, err = deliver(t, r, db, payer, &UpdateRecipientsMsg{
		ConfigID:    configID,
		Recipients:  []weave.Address{payer.Address()},
		Percentages: []uint32{10000},
	})
	assert.IsErr(t, errors.ErrUnauthorized, err)

	_, err = deliver(t, r, db, authority, &UpdateRecipientsMsg{
		ConfigID:    configID,
		Recipients:  []weave.Address{b},
		Percentages: []uint32{2500},
	})
	assert.Nil(t, err)

	// The old schedule is not accepted anymore.
	_, err = deliver(t, r, db, payer, &DistributeNativeMsg{ConfigID: configID, Amount: 1000, Destinations: ordered})
	assert.IsErr(t, ErrInvalidRecipientCount, err)

	only, err := NewDestinations(b)
	assert.Nil(t, err)
	_, err = deliver(t, r, db, payer, &DistributeNativeMsg{ConfigID: configID, Amount: 1000, Destinations: only})
	assert.Nil(t, err)
	assertBalance(t, cashCtrl, db, payer.Address(), 3750)
	assertBalance(t, cashCtrl, db, b, 650)

	// Nothing to split, nothing moves.
	res, err = deliver(t, r, db, payer, &DistributeNativeMsg{ConfigID: configID, Amount: 0, Destinations: only})
	assert.Nil(t, err)
	assert.Equal(t, weave.Tag{Key: "remainder", Value: "0"}, res.Tags[2])
	assertBalance(t, cashCtrl, db, payer.Address(), 3750)
	assertBalance(t, cashCtrl, db, b, 650)

	_, err = deliver(t, r, db, payer, &DistributeNativeMsg{ConfigID: configID, Amount: 3751, Destinations: only})
	assert.IsErr(t, ErrInsufficientFunds, err)

	_, err = deliver(t, r, db, payer, &DistributeNativeMsg{ConfigID: weavetest.NewAddress(), Amount: 1, Destinations: only})
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestTokenDistributionFlow(t *testing.T) {
	authority := weavetest.NewCondition()
	payer := weavetest.NewCondition()
	a, b := weavetest.NewCondition(), weavetest.NewCondition()

	db := store.MemStore()
	tokenCtrl := token.NewController()
	info := token.TokenInfo{Name: "Split Token", SigFigs: 6}
	assert.Nil(t, token.NewTokenInfoBucket().Create(db, []byte("SPL"), &info))

	holdings := make(map[string]weave.Address)
	for _, owner := range []weave.Condition{payer, a, b} {
		addr, err := tokenCtrl.Open(db, owner.Address(), "SPL")
		assert.Nil(t, err)
		holdings[owner.String()] = addr
	}
	assert.Nil(t, tokenCtrl.Issue(db, holdings[payer.String()], 1000))

	r := testRouter{}
	RegisterRoutes(r, ctxAuth, cash.NewController(cash.NewBucket()), tokenCtrl)

	res, err := deliver(t, r, db, authority, &InitializeMsg{
		Recipients:  []weave.Address{a.Address(), b.Address()},
		Percentages: []uint32{6000, 4000},
	})
	assert.Nil(t, err)
	configID := weave.Address(res.Data)

	dest, err := NewDestinations(holdings[a.String()], holdings[b.String()])
	assert.Nil(t, err)

	// Only the owner of the source holding can distribute from it.
	_, err = deliver(t, r, db, a, &DistributeTokenMsg{
		ConfigID:     configID,
		Amount:       1000,
		Source:       holdings[payer.String()],
		Mint:         "SPL",
		Destinations: dest,
	})
	assert.IsErr(t, ErrInvalidTokenOwner, err)

	res, err = deliver(t, r, db, payer, &DistributeTokenMsg{
		ConfigID:     configID,
		Amount:       1000,
		Source:       holdings[payer.String()],
		Mint:         "SPL",
		Destinations: dest,
	})
	assert.Nil(t, err)
	assert.Equal(t, weave.Tag{Key: "mint", Value: "SPL"}, res.Tags[len(res.Tags)-1])

	for owner, want := range map[string]uint64{payer.String(): 0, a.String(): 600, b.String(): 400} {
		h, err := tokenCtrl.Holding(db, holdings[owner])
		assert.Nil(t, err)
		assert.Equal(t, want, h.Amount)
	}
}

func TestMsgValidation(t *testing.T) {
	full, err := NewDestinations(addrs(MaxRecipients)...)
	assert.Nil(t, err)
	var empty Destinations

	cases := map[string]struct {
		msg     weave.Msg
		wantErr *errors.Error
	}{
		"initialize": {
			msg: &InitializeMsg{Recipients: addrs(2), Percentages: []uint32{1, 2}},
		},
		"initialize length mismatch": {
			msg:     &InitializeMsg{Recipients: addrs(2), Percentages: []uint32{1}},
			wantErr: ErrLengthMismatch,
		},
		"update without config": {
			msg:     &UpdateRecipientsMsg{Recipients: addrs(1), Percentages: []uint32{1}},
			wantErr: errors.ErrInput,
		},
		"distribute native": {
			msg: &DistributeNativeMsg{ConfigID: weavetest.NewAddress(), Amount: 1, Destinations: full},
		},
		"distribute native with empty slots": {
			msg:     &DistributeNativeMsg{ConfigID: weavetest.NewAddress(), Amount: 1, Destinations: empty},
			wantErr: errors.ErrInput,
		},
		"distribute native zero amount": {
			msg: &DistributeNativeMsg{ConfigID: weavetest.NewAddress(), Destinations: full},
		},
		"distribute token": {
			msg: &DistributeTokenMsg{
				ConfigID:     weavetest.NewAddress(),
				Amount:       1,
				Source:       weavetest.NewAddress(),
				Mint:         "SPL",
				Destinations: full,
			},
		},
		"distribute token invalid mint": {
			msg: &DistributeTokenMsg{
				ConfigID:     weavetest.NewAddress(),
				Amount:       1,
				Source:       weavetest.NewAddress(),
				Mint:         "x",
				Destinations: full,
			},
			wantErr: errors.ErrInput,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if err := tc.msg.Validate(); !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
		})
	}

	_, err = NewDestinations(addrs(MaxRecipients + 1)...)
	assert.IsErr(t, ErrMaxRecipientsExceeded, err)
}

func TestDistributeMsgSerialization(t *testing.T) {
	dest, err := NewDestinations(weavetest.NewAddress(), weavetest.NewAddress())
	assert.Nil(t, err)
	msg := DistributeTokenMsg{
		ConfigID:     weavetest.NewAddress(),
		Amount:       12345,
		Source:       weavetest.NewAddress(),
		Mint:         "SPL",
		Destinations: dest,
	}
	raw, err := msg.Marshal()
	assert.Nil(t, err)
	var got DistributeTokenMsg
	assert.Nil(t, got.Unmarshal(raw))
	assert.Equal(t, msg, got)
}

func assertBalance(t testing.TB, ctrl cash.Controller, db weave.ReadOnlyKVStore, addr weave.Address, want uint64) {
	t.Helper()
	got, err := ctrl.Balance(db, addr)
	assert.Nil(t, err)
	assert.Equal(t, want, got)
}
