/*
Package sigs verifies the ed25519 signatures of a transaction and keeps a
sequence number per signer, so that a signed transaction cannot be replayed.
Verified signers are exposed to handlers through Authenticate.
*/
package sigs

import (
	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/errors"
)

// Decorator verifies all signatures of a transaction before passing it on.
// By default at least one signature is required.
type Decorator struct {
	allowMissingSigs bool
}

var _ weave.Decorator = Decorator{}

func NewDecorator() Decorator {
	return Decorator{}
}

// AllowMissingSigs returns a decorator that lets unsigned transactions
// through with no authenticated signers.
func (d Decorator) AllowMissingSigs() Decorator {
	d.allowMissingSigs = true
	return d
}

func (d Decorator) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Checker) (*weave.CheckResult, error) {
	ctx, err := d.authenticate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	return next.Check(ctx, db, tx)
}

func (d Decorator) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Deliverer) (*weave.DeliverResult, error) {
	ctx, err := d.authenticate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	return next.Deliver(ctx, db, tx)
}

func (d Decorator) authenticate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (weave.Context, error) {
	var signers []weave.Condition
	if stx, ok := tx.(SignedTx); ok {
		var err error
		if signers, err = verifyTx(db, stx, weave.GetChainID(ctx)); err != nil {
			return nil, errors.Wrap(err, "cannot verify signatures")
		}
	}
	if len(signers) == 0 && !d.allowMissingSigs {
		return nil, errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	return withSigners(ctx, signers), nil
}
