package weavetest

import (
	"context"
	"fmt"

	weave "github.com/iov-one/weave-splitter"
)

// Auth is an x.Authenticator that authenticates a fixed set of conditions.
// Signer, when set, is reported after all Signers.
type Auth struct {
	Signer  weave.Condition
	Signers []weave.Condition
}

func (a *Auth) GetConditions(weave.Context) []weave.Condition {
	if a.Signer == nil {
		return a.Signers
	}
	return append(append([]weave.Condition(nil), a.Signers...), a.Signer)
}

func (a *Auth) HasAddress(ctx weave.Context, addr weave.Address) bool {
	return hasAddress(a.GetConditions(ctx), addr)
}

// CtxAuth is an x.Authenticator that reads its conditions from the context.
// Use SetConditions to prepare the context. Instances with a different Key do
// not see each other's conditions.
type CtxAuth struct {
	Key string
}

type ctxAuthKey string

// SetConditions returns a copy of ctx that authenticates given conditions.
func (a *CtxAuth) SetConditions(ctx weave.Context, conds ...weave.Condition) weave.Context {
	return context.WithValue(ctx, ctxAuthKey(a.Key), conds)
}

func (a *CtxAuth) GetConditions(ctx weave.Context) []weave.Condition {
	switch v := ctx.Value(ctxAuthKey(a.Key)).(type) {
	case nil:
		return nil
	case []weave.Condition:
		return v
	default:
		panic(fmt.Sprintf("want []weave.Condition, got %T", v))
	}
}

func (a *CtxAuth) HasAddress(ctx weave.Context, addr weave.Address) bool {
	return hasAddress(a.GetConditions(ctx), addr)
}

func hasAddress(conds []weave.Condition, addr weave.Address) bool {
	for _, c := range conds {
		if addr.Equals(c.Address()) {
			return true
		}
	}
	return false
}
