package x

import (
	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/errors"
)

// Authenticator tells which conditions authorized the current transaction.
// Handlers receive it in their constructor so that they do not depend on a
// particular signature scheme.
type Authenticator interface {
	// GetConditions returns all conditions that authorized the
	// transaction. The first one is the main signer.
	GetConditions(weave.Context) []weave.Condition
	// HasAddress returns true if any of the conditions has given address.
	HasAddress(weave.Context, weave.Address) bool
}

// ChainAuth combines many authenticators into one. Conditions are reported
// in the order of the authenticators.
func ChainAuth(impls ...Authenticator) Authenticator {
	return multiAuth(impls)
}

type multiAuth []Authenticator

func (m multiAuth) GetConditions(ctx weave.Context) []weave.Condition {
	var conds []weave.Condition
	for _, a := range m {
		conds = append(conds, a.GetConditions(ctx)...)
	}
	return conds
}

func (m multiAuth) HasAddress(ctx weave.Context, addr weave.Address) bool {
	for _, a := range m {
		if a.HasAddress(ctx, addr) {
			return true
		}
	}
	return false
}

// MainSigner returns the first condition that authorized the transaction or
// nil.
func MainSigner(ctx weave.Context, auth Authenticator) weave.Condition {
	if conds := auth.GetConditions(ctx); len(conds) != 0 {
		return conds[0]
	}
	return nil
}

// MainSignerAddress returns the address of the main signer. A transaction
// without any signature results in ErrUnauthorized.
func MainSignerAddress(ctx weave.Context, auth Authenticator) (weave.Address, error) {
	signer := MainSigner(ctx, auth)
	if signer == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	return signer.Address(), nil
}

// RequireAddress returns ErrUnauthorized unless addr authorized the
// transaction.
func RequireAddress(ctx weave.Context, auth Authenticator, addr weave.Address) error {
	if !auth.HasAddress(ctx, addr) {
		return errors.Wrapf(errors.ErrUnauthorized, "signature of %s required", addr)
	}
	return nil
}
