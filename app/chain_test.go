package app

import (
	"context"
	"testing"

	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/errors"
	"github.com/iov-one/weave-splitter/store"
	"github.com/iov-one/weave-splitter/weavetest"
	"github.com/iov-one/weave-splitter/weavetest/assert"
)

func TestChain(t *testing.T) {
	var (
		first  = &weavetest.Decorator{}
		second = &weavetest.Decorator{}
		h      = &weavetest.Handler{}
	)
	var nilDecorator *weavetest.Decorator
	stack := ChainDecorators(first, nil, nilDecorator).Chain(second).WithHandler(h)

	db := store.MemStore()
	ctx := context.Background()
	tx := &weavetest.Tx{}

	_, err := stack.Check(ctx, db, tx)
	assert.Nil(t, err)
	_, err = stack.Deliver(ctx, db, tx)
	assert.Nil(t, err)

	assert.Equal(t, 2, first.CallCount())
	assert.Equal(t, 2, second.CallCount())
	assert.Equal(t, 2, h.CallCount())

	second.DeliverErr = errors.ErrUnauthorized
	_, err = stack.Deliver(ctx, db, tx)
	assert.IsErr(t, errors.ErrUnauthorized, err)
	assert.Equal(t, 2, first.DeliverCallCount())
	assert.Equal(t, 1, h.DeliverCallCount())
}

func TestChainOrder(t *testing.T) {
	var calls []string
	stack := ChainDecorators(
		recorder{name: "outer", calls: &calls},
		recorder{name: "inner", calls: &calls},
	).WithHandler(&weavetest.Handler{})

	_, err := stack.Deliver(context.Background(), store.MemStore(), &weavetest.Tx{})
	assert.Nil(t, err)
	assert.Equal(t, []string{"outer", "inner"}, calls)
}

// recorder appends its name to calls every time it is executed.
type recorder struct {
	name  string
	calls *[]string
}

func (r recorder) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Checker) (*weave.CheckResult, error) {
	*r.calls = append(*r.calls, r.name)
	return next.Check(ctx, db, tx)
}

func (r recorder) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Deliverer) (*weave.DeliverResult, error) {
	*r.calls = append(*r.calls, r.name)
	return next.Deliver(ctx, db, tx)
}
