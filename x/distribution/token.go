package distribution

import (
	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/errors"
	"github.com/iov-one/weave-splitter/x/token"
)

// TokenController allows to move tokens between holding accounts.
// Required functionality is implemented by the x/token extension.
type TokenController interface {
	Holding(db weave.ReadOnlyKVStore, addr weave.Address) (*token.HoldingAccount, error)
	Transfer(db weave.KVStore, authority, src, dest weave.Address, amount uint64) error
}

// DistributeToken splits amount of tokens held in the source holding
// account between the recipients of the config. Source must be owned by the
// payer. Destinations are holding accounts; a destination matches a
// recipient when the owner recorded in the account is that recipient, the
// address of the holding account itself is never compared.
//
// Every check is done before the first transfer. Shares that round down to
// zero are not transferred. The returned list holds the share of every
// recipient.
func DistributeToken(
	db weave.KVStore,
	ctrl TokenController,
	c *Config,
	payer, source weave.Address,
	mint string,
	amount uint64,
	destinations []weave.Address,
) ([]uint64, error) {
	if len(destinations) != MaxRecipients {
		return nil, errors.Wrapf(errors.ErrInput, "%d destination slots", len(destinations))
	}
	n := len(c.Recipients)
	if n > MaxRecipients {
		return nil, errors.Wrapf(ErrMaxRecipientsExceeded, "config with %d recipients", n)
	}

	src, err := ctrl.Holding(db, source)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidTokenOwner, "source: %s", err)
	}
	if !src.Owner.Equals(payer) {
		return nil, errors.Wrapf(ErrInvalidTokenOwner, "source owned by %s", src.Owner)
	}
	if src.Mint != mint {
		return nil, errors.Wrapf(token.ErrMintMismatch, "source holds %s", src.Mint)
	}
	if src.Amount < amount {
		return nil, errors.Wrapf(ErrInsufficientTokenBalance, "%d < %d", src.Amount, amount)
	}

	targets := make([]weave.Address, 0, n)
	for slot, dest := range destinations {
		if dest.Equals(BurnAddress) {
			continue
		}
		idx := len(targets)
		if idx >= n {
			return nil, errors.Wrapf(ErrInvalidRecipientCount, "more than %d destinations", n)
		}
		h, err := ctrl.Holding(db, dest)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidRecipient, "slot %d: %s", slot, err)
		}
		if h.Mint != mint {
			return nil, errors.Wrapf(ErrInvalidRecipient, "slot %d holds %s", slot, h.Mint)
		}
		if !h.Owner.Equals(c.Recipients[idx].Address) {
			return nil, errors.Wrapf(ErrInvalidRecipient, "slot %d owned by %s", slot, h.Owner)
		}
		targets = append(targets, dest)
	}
	if len(targets) != n {
		return nil, errors.Wrapf(ErrInvalidRecipientCount, "want %d, got %d", n, len(targets))
	}

	shares, err := computeShares(c, amount)
	if err != nil {
		return nil, err
	}
	for i, share := range shares {
		if share == 0 {
			continue
		}
		if err := ctrl.Transfer(db, payer, source, targets[i], share); err != nil {
			return nil, errors.Wrapf(err, "recipient %d", i)
		}
	}
	return shares, nil
}
