/*
Package coin implements the amount arithmetic used by the ledger.

All amounts are unsigned integers in the smallest unit of an asset. Every
operation that may overflow or underflow reports it as an error instead of
wrapping around.
*/
package coin

import (
	"math/bits"
	"regexp"

	"github.com/iov-one/weave-splitter/errors"
)

// IsMint is the RegExp to ensure valid token mint identifiers
var IsMint = regexp.MustCompile(`^[A-Z][A-Z0-9]{2,7}$`).MatchString

// BasisPoints is the number of basis points that make up 100%.
const BasisPoints = 10000

// Portion returns floor(amount * bps / BasisPoints). The multiplication is
// overflow checked and ErrOverflow returned if the intermediate product does
// not fit in 64 bits.
func Portion(amount uint64, bps uint32) (uint64, error) {
	hi, lo := bits.Mul64(amount, uint64(bps))
	if hi != 0 {
		return 0, errors.Wrapf(errors.ErrOverflow, "%d * %d", amount, bps)
	}
	return lo / BasisPoints, nil
}

// SumBasisPoints adds all given values. The sum is computed on 64 bits so
// that no list of at most 2^32 elements can wrap around.
func SumBasisPoints(bps []uint32) uint64 {
	var total uint64
	for _, p := range bps {
		total += uint64(p)
	}
	return total
}

// Add returns a + b or ErrOverflow.
func Add(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, errors.Wrapf(errors.ErrOverflow, "%d + %d", a, b)
	}
	return sum, nil
}

// Sub returns a - b or ErrAmount if b is greater than a.
func Sub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, errors.Wrapf(errors.ErrAmount, "cannot subtract %d from %d", b, a)
	}
	return a - b, nil
}

// ValidateMint returns an error if given value is not a valid mint
// identifier.
func ValidateMint(mint string) error {
	if !IsMint(mint) {
		return errors.Wrapf(errors.ErrInput, "invalid mint %q", mint)
	}
	return nil
}
