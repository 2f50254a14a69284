package cash

import (
	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/coin"
	"github.com/iov-one/weave-splitter/errors"
)

// Controller is the functionality needed by cash.Handler and other
// extensions that move the native asset.
type Controller interface {
	// Balance returns the amount owned by given address.
	Balance(weave.ReadOnlyKVStore, weave.Address) (uint64, error)
	// MoveCoins moves given amount from src to dest.
	MoveCoins(db weave.KVStore, src, dest weave.Address, amount uint64) error
	// IssueCoins creates new coins for given address.
	IssueCoins(db weave.KVStore, dest weave.Address, amount uint64) error
}

// BaseController is a simple implementation of Controller
type BaseController struct {
	bucket Bucket
}

var _ Controller = BaseController{}

// NewController returns a basic controller implementation
func NewController(bucket Bucket) BaseController {
	return BaseController{bucket: bucket}
}

// Balance returns the amount owned by given address. An address that never
// received anything has a zero balance.
func (c BaseController) Balance(db weave.ReadOnlyKVStore, addr weave.Address) (uint64, error) {
	w, err := c.bucket.GetOrCreate(db, addr)
	if err != nil {
		return 0, err
	}
	return w.Balance, nil
}

// MoveCoins moves the given amount from src to dest.
// If src doesn't have sufficient coins, it fails.
func (c BaseController) MoveCoins(db weave.KVStore, src, dest weave.Address, amount uint64) error {
	if amount == 0 {
		return errors.Wrap(errors.ErrAmount, "zero amount")
	}

	sender, err := c.bucket.GetOrCreate(db, src)
	if err != nil {
		return errors.Wrap(err, "source")
	}
	if sender.Balance < amount {
		return errors.Wrapf(errors.ErrAmount, "insufficient funds: %d < %d", sender.Balance, amount)
	}
	sender.Balance -= amount
	if err := c.bucket.Save(db, src, sender); err != nil {
		return err
	}

	// Load the recipient only once the sender is saved, so that moving
	// coins to self is a noop.
	return c.IssueCoins(db, dest, amount)
}

// IssueCoins attempts to add the given amount of coins to
// the destination address. Fails if it overflows the wallet.
func (c BaseController) IssueCoins(db weave.KVStore, dest weave.Address, amount uint64) error {
	recipient, err := c.bucket.GetOrCreate(db, dest)
	if err != nil {
		return errors.Wrap(err, "destination")
	}
	balance, err := coin.Add(recipient.Balance, amount)
	if err != nil {
		return errors.Wrap(err, "wallet balance")
	}
	recipient.Balance = balance
	return c.bucket.Save(db, dest, recipient)
}
