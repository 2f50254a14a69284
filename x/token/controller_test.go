package token

import (
	"testing"

	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/errors"
	"github.com/iov-one/weave-splitter/store"
	"github.com/iov-one/weave-splitter/weavetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerMint(t testing.TB, db weave.KVStore, mint string) {
	t.Helper()
	info := TokenInfo{Name: "Test " + mint, SigFigs: 6}
	require.NoError(t, NewTokenInfoBucket().Create(db, []byte(mint), &info))
}

func TestOpenHolding(t *testing.T) {
	db := store.MemStore()
	ctrl := NewController()
	owner := weavetest.NewAddress()

	_, err := ctrl.Open(db, owner, "SPL")
	assert.True(t, errors.ErrNotFound.Is(err), "mint must be registered")

	registerMint(t, db, "SPL")
	addr, err := ctrl.Open(db, owner, "SPL")
	require.NoError(t, err)

	want, _, err := HoldingAddress(owner, "SPL")
	require.NoError(t, err)
	assert.Equal(t, want, addr)

	h, err := ctrl.Holding(db, addr)
	require.NoError(t, err)
	assert.Equal(t, &HoldingAccount{Owner: owner, Mint: "SPL"}, h)

	_, err = ctrl.Open(db, owner, "SPL")
	assert.True(t, errors.ErrDuplicate.Is(err))
}

func TestTransfer(t *testing.T) {
	alice := weavetest.NewAddress()
	bob := weavetest.NewAddress()

	cases := map[string]struct {
		authority weave.Address
		srcOwner  weave.Address
		destOwner weave.Address
		destMint  string
		amount    uint64
		wantErr   *errors.Error
		wantSrc   uint64
		wantDest  uint64
	}{
		"transfer": {
			authority: alice, srcOwner: alice, destOwner: bob, destMint: "SPL",
			amount: 40, wantSrc: 60, wantDest: 40,
		},
		"not the owner": {
			authority: bob, srcOwner: alice, destOwner: bob, destMint: "SPL",
			amount: 40, wantErr: errors.ErrUnauthorized, wantSrc: 100,
		},
		"insufficient funds": {
			authority: alice, srcOwner: alice, destOwner: bob, destMint: "SPL",
			amount: 101, wantErr: errors.ErrAmount, wantSrc: 100,
		},
		"zero amount": {
			authority: alice, srcOwner: alice, destOwner: bob, destMint: "SPL",
			amount: 0, wantErr: errors.ErrAmount, wantSrc: 100,
		},
		"mint mismatch": {
			authority: alice, srcOwner: alice, destOwner: bob, destMint: "ABC",
			amount: 10, wantErr: ErrMintMismatch, wantSrc: 100,
		},
		"transfer to self": {
			authority: alice, srcOwner: alice, destOwner: alice, destMint: "SPL",
			amount: 10, wantSrc: 100, wantDest: 100,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			ctrl := NewController()
			registerMint(t, db, "SPL")
			registerMint(t, db, "ABC")

			src, err := ctrl.Open(db, tc.srcOwner, "SPL")
			require.NoError(t, err)
			require.NoError(t, ctrl.Issue(db, src, 100))

			dest, _, err := HoldingAddress(tc.destOwner, tc.destMint)
			require.NoError(t, err)
			if !dest.Equals(src) {
				_, err = ctrl.Open(db, tc.destOwner, tc.destMint)
				require.NoError(t, err)
			}

			cache := db.CacheWrap()
			err = ctrl.Transfer(cache, tc.authority, src, dest, tc.amount)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if err != nil {
				cache.Discard()
			} else {
				require.NoError(t, cache.Write())
			}

			h, err := ctrl.Holding(db, src)
			require.NoError(t, err)
			assert.Equal(t, tc.wantSrc, h.Amount)
			h, err = ctrl.Holding(db, dest)
			require.NoError(t, err)
			assert.Equal(t, tc.wantDest, h.Amount)
		})
	}
}

func TestTransferMissingAccounts(t *testing.T) {
	db := store.MemStore()
	ctrl := NewController()
	registerMint(t, db, "SPL")
	alice := weavetest.NewAddress()

	src, err := ctrl.Open(db, alice, "SPL")
	require.NoError(t, err)
	require.NoError(t, ctrl.Issue(db, src, 10))

	err = ctrl.Transfer(db, alice, weavetest.NewAddress(), src, 1)
	assert.True(t, errors.ErrNotFound.Is(err))
	err = ctrl.Transfer(db, alice, src, weavetest.NewAddress(), 1)
	assert.True(t, errors.ErrNotFound.Is(err))

	err = ctrl.Issue(db, weavetest.NewAddress(), 1)
	assert.True(t, errors.ErrNotFound.Is(err))
}
