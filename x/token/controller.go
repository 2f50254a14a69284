package token

import (
	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/coin"
	"github.com/iov-one/weave-splitter/errors"
)

// Controller is the functionality needed by the token handlers and by other
// extensions that move tokens.
type Controller interface {
	// Open creates the holding account of the owner for given mint and
	// returns its address.
	Open(db weave.KVStore, owner weave.Address, mint string) (weave.Address, error)
	// Holding returns the holding account stored under given address.
	Holding(db weave.ReadOnlyKVStore, addr weave.Address) (*HoldingAccount, error)
	// Transfer moves tokens between two holding accounts of the same
	// mint. Authority must be the owner of the source account.
	Transfer(db weave.KVStore, authority, src, dest weave.Address, amount uint64) error
	// Issue creates new tokens in given holding account.
	Issue(db weave.KVStore, dest weave.Address, amount uint64) error
}

// BaseController is a simple implementation of Controller
type BaseController struct {
	tokens   TokenInfoBucket
	holdings HoldingBucket
}

var _ Controller = BaseController{}

// NewController returns a basic controller implementation
func NewController() BaseController {
	return BaseController{
		tokens:   NewTokenInfoBucket(),
		holdings: NewHoldingBucket(),
	}
}

func (c BaseController) Open(db weave.KVStore, owner weave.Address, mint string) (weave.Address, error) {
	if _, err := c.tokens.Get(db, mint); err != nil {
		return nil, err
	}
	addr, _, err := HoldingAddress(owner, mint)
	if err != nil {
		return nil, err
	}
	acc := HoldingAccount{Owner: owner, Mint: mint}
	if err := c.holdings.Create(db, addr, &acc); err != nil {
		return nil, errors.Wrap(err, "holding account")
	}
	return addr, nil
}

func (c BaseController) Holding(db weave.ReadOnlyKVStore, addr weave.Address) (*HoldingAccount, error) {
	return c.holdings.Get(db, addr)
}

func (c BaseController) Transfer(db weave.KVStore, authority, src, dest weave.Address, amount uint64) error {
	if amount == 0 {
		return errors.Wrap(errors.ErrAmount, "zero amount")
	}
	from, err := c.holdings.Get(db, src)
	if err != nil {
		return errors.Wrap(err, "source")
	}
	if !from.Owner.Equals(authority) {
		return errors.Wrap(errors.ErrUnauthorized, "not the source owner")
	}
	if from.Amount < amount {
		return errors.Wrapf(errors.ErrAmount, "insufficient funds: %d < %d", from.Amount, amount)
	}
	to, err := c.holdings.Get(db, dest)
	if err != nil {
		return errors.Wrap(err, "destination")
	}
	if to.Mint != from.Mint {
		return errors.Wrapf(ErrMintMismatch, "%s to %s", from.Mint, to.Mint)
	}

	from.Amount -= amount
	if err := c.holdings.Put(db, src, from); err != nil {
		return err
	}
	// Reload the destination so that a transfer to self is a noop.
	return c.Issue(db, dest, amount)
}

func (c BaseController) Issue(db weave.KVStore, dest weave.Address, amount uint64) error {
	to, err := c.holdings.Get(db, dest)
	if err != nil {
		return errors.Wrap(err, "destination")
	}
	total, err := coin.Add(to.Amount, amount)
	if err != nil {
		return errors.Wrap(err, "holding amount")
	}
	to.Amount = total
	return c.holdings.Put(db, dest, to)
}
