package utils

import (
	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/errors"
)

// Recovery converts a panic raised below it into an ErrPanic error, so that a
// faulty handler fails a single transaction instead of the whole process.
type Recovery struct{}

var _ weave.Decorator = Recovery{}

func NewRecovery() Recovery {
	return Recovery{}
}

func (Recovery) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Checker) (res *weave.CheckResult, err error) {
	defer logPanic(ctx, tx, &err)
	defer errors.Recover(&err)
	return next.Check(ctx, db, tx)
}

func (Recovery) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Deliverer) (res *weave.DeliverResult, err error) {
	defer logPanic(ctx, tx, &err)
	defer errors.Recover(&err)
	return next.Deliver(ctx, db, tx)
}

// logPanic must be deferred before errors.Recover so that it observes the
// recovered error.
func logPanic(ctx weave.Context, tx weave.Tx, err *error) {
	if errors.ErrPanic.Is(*err) {
		weave.GetLogger(ctx).Error("handler panic", "path", weave.GetPath(tx), "err", *err)
	}
}
