package distribution

import (
	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/errors"
)

// CashController allows to move the native asset without the need to
// directly access the bucket.
// Required functionality is implemented by the x/cash extension.
type CashController interface {
	Balance(weave.ReadOnlyKVStore, weave.Address) (uint64, error)
	MoveCoins(db weave.KVStore, src, dest weave.Address, amount uint64) error
}

// DistributeNative splits amount of the native asset owned by the payer
// between the recipients of the config. Destinations must contain exactly
// MaxRecipients slots, the ones not filled with BurnAddress must match the
// configured recipients in order.
//
// Every check is done before the first transfer. Shares that round down to
// zero are not transferred. The returned list holds the share of every
// recipient.
func DistributeNative(db weave.KVStore, ctrl CashController, c *Config, payer weave.Address, amount uint64, destinations []weave.Address) ([]uint64, error) {
	if len(destinations) != MaxRecipients {
		return nil, errors.Wrapf(errors.ErrInput, "%d destination slots", len(destinations))
	}
	if len(c.Recipients) > MaxRecipients {
		return nil, errors.Wrapf(ErrMaxRecipientsExceeded, "config with %d recipients", len(c.Recipients))
	}

	balance, err := ctrl.Balance(db, payer)
	if err != nil {
		return nil, errors.Wrap(err, "payer balance")
	}
	if balance < amount {
		return nil, errors.Wrapf(ErrInsufficientFunds, "%d < %d", balance, amount)
	}

	candidates := filterSentinels(destinations)
	if err := matchOrder(c, candidates); err != nil {
		return nil, err
	}
	shares, err := computeShares(c, amount)
	if err != nil {
		return nil, err
	}

	for i, share := range shares {
		if share == 0 {
			continue
		}
		if err := ctrl.MoveCoins(db, payer, candidates[i], share); err != nil {
			return nil, errors.Wrapf(err, "recipient %d", i)
		}
	}
	return shares, nil
}
