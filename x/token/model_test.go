package token

import (
	"testing"

	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/errors"
	"github.com/iov-one/weave-splitter/orm"
	"github.com/iov-one/weave-splitter/store"
	"github.com/iov-one/weave-splitter/weavetest"
	"github.com/iov-one/weave-splitter/weavetest/assert"
)

func TestHoldingAccountDiscriminator(t *testing.T) {
	h := HoldingAccount{Owner: weavetest.NewAddress(), Mint: "SPL", Amount: 42}
	raw, err := h.Marshal()
	assert.Nil(t, err)
	assert.Equal(t, HoldingDiscriminator[:], raw[:discriminatorSize])

	var got HoldingAccount
	assert.Nil(t, got.Unmarshal(raw))
	assert.Equal(t, h, got)

	cases := map[string][]byte{
		"too short":     raw[:discriminatorSize-1],
		"empty":         nil,
		"discriminator": append([]byte{0, 1, 2, 3, 4, 5, 6, 7}, raw[discriminatorSize:]...),
	}
	for testName, data := range cases {
		t.Run(testName, func(t *testing.T) {
			var h HoldingAccount
			assert.IsErr(t, ErrInvalidDiscriminator, h.Unmarshal(data))
		})
	}
}

func TestHoldingAddress(t *testing.T) {
	alice := weavetest.NewAddress()
	bob := weavetest.NewAddress()

	a1, n1, err := HoldingAddress(alice, "SPL")
	assert.Nil(t, err)
	a2, n2, err := HoldingAddress(alice, "SPL")
	assert.Nil(t, err)
	assert.Equal(t, a1, a2)
	assert.Equal(t, n1, n2)
	assert.Nil(t, a1.Validate())

	seed := append(append([]byte{}, alice...), "SPL"...)
	if !weave.VerifyDerivedAddress("token", "holding", seed, n1, a1) {
		t.Fatal("holding address cannot be verified")
	}

	other, _, err := HoldingAddress(alice, "ABC")
	assert.Nil(t, err)
	if other.Equals(a1) {
		t.Fatal("different mints must produce different addresses")
	}
	other, _, err = HoldingAddress(bob, "SPL")
	assert.Nil(t, err)
	if other.Equals(a1) {
		t.Fatal("different owners must produce different addresses")
	}

	_, _, err = HoldingAddress(weave.Address("short"), "SPL")
	assert.IsErr(t, errors.ErrInput, err)
	_, _, err = HoldingAddress(alice, "spl")
	assert.IsErr(t, errors.ErrInput, err)
}

func TestHoldingBucketRejectsForeignData(t *testing.T) {
	db := store.MemStore()
	addr := weavetest.NewAddress()

	b := NewHoldingBucket()
	_, err := b.Get(db, addr)
	assert.IsErr(t, errors.ErrNotFound, err)

	// A token info stored under the same key is not a holding account.
	raw := orm.NewBucket(HoldingBucketName)
	info := TokenInfo{Name: "Split Token", SigFigs: 6}
	bz, err := info.Marshal()
	assert.Nil(t, err)
	assert.Nil(t, raw.Set(db, addr, bz))

	_, err = b.Get(db, addr)
	assert.IsErr(t, errors.ErrModel, err)
}

func TestTokenInfoValidate(t *testing.T) {
	cases := map[string]struct {
		info    TokenInfo
		wantErr *errors.Error
	}{
		"valid":             {info: TokenInfo{Name: "Split Token", SigFigs: 6}},
		"name too short":    {info: TokenInfo{Name: "ab", SigFigs: 6}, wantErr: ErrInvalidTokenName},
		"invalid character": {info: TokenInfo{Name: "Split!", SigFigs: 6}, wantErr: ErrInvalidTokenName},
		"too many figures":  {info: TokenInfo{Name: "Split Token", SigFigs: 10}, wantErr: ErrInvalidSigFigs},
		"negative figures":  {info: TokenInfo{Name: "Split Token", SigFigs: -1}, wantErr: ErrInvalidSigFigs},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if err := tc.info.Validate(); !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
		})
	}
}
