package coin

import (
	"math"
	"testing"

	"github.com/iov-one/weave-splitter/errors"
	"github.com/iov-one/weave-splitter/weavetest/assert"
)

func TestPortion(t *testing.T) {
	cases := map[string]struct {
		amount  uint64
		bps     uint32
		want    uint64
		wantErr *errors.Error
	}{
		"sixty percent":            {amount: 1000, bps: 6000, want: 600},
		"forty percent":            {amount: 1000, bps: 4000, want: 400},
		"whole amount":             {amount: 12345, bps: BasisPoints, want: 12345},
		"rounds down":              {amount: 3, bps: 3333, want: 0},
		"rounds down larger":       {amount: 100, bps: 3333, want: 33},
		"zero percent":             {amount: 1000, bps: 0, want: 0},
		"zero amount":              {amount: 0, bps: 5000, want: 0},
		"largest without overflow": {amount: math.MaxUint64 / BasisPoints, bps: BasisPoints, want: math.MaxUint64 / BasisPoints},
		"overflow":                 {amount: math.MaxUint64, bps: 2, wantErr: errors.ErrOverflow},
		"overflow of max amount":   {amount: math.MaxUint64 / 2, bps: 3, wantErr: errors.ErrOverflow},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got, err := Portion(tc.amount, tc.bps)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.wantErr == nil {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestSumBasisPointsDoesNotWrap(t *testing.T) {
	assert.Equal(t, uint64(10000), SumBasisPoints([]uint32{6000, 4000}))
	assert.Equal(t, uint64(0), SumBasisPoints(nil))
	assert.Equal(t, uint64(2*math.MaxUint32), SumBasisPoints([]uint32{math.MaxUint32, math.MaxUint32}))
}

func TestAddSub(t *testing.T) {
	v, err := Add(5, 7)
	assert.Nil(t, err)
	assert.Equal(t, uint64(12), v)

	_, err = Add(math.MaxUint64, 1)
	assert.IsErr(t, errors.ErrOverflow, err)

	v, err = Sub(7, 5)
	assert.Nil(t, err)
	assert.Equal(t, uint64(2), v)

	_, err = Sub(5, 7)
	assert.IsErr(t, errors.ErrAmount, err)
}

func TestValidateMint(t *testing.T) {
	assert.Nil(t, ValidateMint("IOV"))
	assert.Nil(t, ValidateMint("USDC2"))
	assert.IsErr(t, errors.ErrInput, ValidateMint("io"))
	assert.IsErr(t, errors.ErrInput, ValidateMint("iov"))
	assert.IsErr(t, errors.ErrInput, ValidateMint("TOOLONGMINT"))
}
