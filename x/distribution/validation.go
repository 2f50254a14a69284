package distribution

import (
	"strconv"

	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/coin"
	"github.com/iov-one/weave-splitter/errors"
)

// validateSchedule checks a recipient schedule. Checks run in a fixed order
// and the first failure is returned.
func validateSchedule(recipients []weave.Address, percentages []uint32) error {
	if len(recipients) != len(percentages) {
		return errors.Wrapf(ErrLengthMismatch, "%d recipients, %d percentages", len(recipients), len(percentages))
	}
	if total := coin.SumBasisPoints(percentages); total > coin.BasisPoints {
		return errors.Wrapf(ErrInvalidTotal, "%d basis points", total)
	}
	if len(recipients) > MaxRecipients {
		return errors.Wrapf(ErrMaxRecipientsExceeded, "%d > %d", len(recipients), MaxRecipients)
	}
	var errs error
	for i, r := range recipients {
		field := "Recipients." + strconv.Itoa(i)
		if err := r.Validate(); err != nil {
			errs = errors.AppendField(errs, field, err)
			continue
		}
		if r.Equals(BurnAddress) {
			errs = errors.Append(errs, errors.Field(field, errors.ErrInput, "burn address"))
		}
	}
	return errs
}

// validateAuthority returns ErrUnauthorized unless signer is the authority
// of the config.
func validateAuthority(c *Config, signer weave.Address) error {
	if !c.Authority.Equals(signer) {
		return errors.Wrap(errors.ErrUnauthorized, "not the config authority")
	}
	return nil
}

// verifyConfigKey returns ErrInvalidConfigAddress unless key is the address
// derived from the config authority and nonce.
func verifyConfigKey(c *Config, key weave.Address) error {
	if c.Nonce > weave.MaxDerivationNonce {
		return errors.Wrapf(ErrInvalidConfigAddress, "nonce %d", c.Nonce)
	}
	if !weave.VerifyDerivedAddress(configExt, configTyp, c.Authority, uint8(c.Nonce), key) {
		return errors.Wrapf(ErrInvalidConfigAddress, "%s is not the config of %s", key, c.Authority)
	}
	return nil
}

// filterSentinels returns the destinations that are not the burn address,
// preserving their order.
func filterSentinels(destinations []weave.Address) []weave.Address {
	res := make([]weave.Address, 0, len(destinations))
	for _, d := range destinations {
		if !d.Equals(BurnAddress) {
			res = append(res, d)
		}
	}
	return res
}

// matchOrder requires candidates to be exactly the configured recipients in
// the configured order.
func matchOrder(c *Config, candidates []weave.Address) error {
	if len(candidates) != len(c.Recipients) {
		return errors.Wrapf(ErrInvalidRecipientCount, "want %d, got %d", len(c.Recipients), len(candidates))
	}
	for i, r := range c.Recipients {
		if !candidates[i].Equals(r.Address) {
			return errors.Wrapf(ErrInvalidRecipient, "slot %d: %s", i, candidates[i])
		}
	}
	return nil
}

// computeShares returns the amount every configured recipient receives.
// It fails if any share cannot be computed without overflow.
func computeShares(c *Config, amount uint64) ([]uint64, error) {
	shares := make([]uint64, len(c.Recipients))
	for i, r := range c.Recipients {
		share, err := coin.Portion(amount, r.Percentage)
		if err != nil {
			return nil, errors.Wrapf(err, "recipient %d", i)
		}
		shares[i] = share
	}
	return shares, nil
}
