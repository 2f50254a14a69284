package sigs

import (
	"context"

	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/x"
)

type signersKey struct{}

// withSigners is unexported so that only the Decorator can authenticate.
func withSigners(ctx weave.Context, signers []weave.Condition) weave.Context {
	return context.WithValue(ctx, signersKey{}, signers)
}

// Authenticate reports the signers verified by the Decorator.
type Authenticate struct{}

var _ x.Authenticator = Authenticate{}

func (Authenticate) GetConditions(ctx weave.Context) []weave.Condition {
	signers, _ := ctx.Value(signersKey{}).([]weave.Condition)
	return signers
}

func (a Authenticate) HasAddress(ctx weave.Context, addr weave.Address) bool {
	for _, c := range a.GetConditions(ctx) {
		if c.Address().Equals(addr) {
			return true
		}
	}
	return false
}
