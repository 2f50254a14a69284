package utils

import (
	"time"

	weave "github.com/iov-one/weave-splitter"
)

// Logging writes one log entry per processed transaction. Failures are
// logged as errors, deliveries as info and checks as debug.
type Logging struct{}

var _ weave.Decorator = Logging{}

func NewLogging() Logging {
	return Logging{}
}

func (Logging) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Checker) (*weave.CheckResult, error) {
	start := time.Now()
	res, err := next.Check(ctx, db, tx)
	var msg string
	if res != nil {
		msg = res.Log
	}
	logResult(ctx, tx, time.Since(start), msg, err, true)
	return res, err
}

func (Logging) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Deliverer) (*weave.DeliverResult, error) {
	start := time.Now()
	res, err := next.Deliver(ctx, db, tx)
	var msg string
	if res != nil {
		msg = res.Log
	}
	logResult(ctx, tx, time.Since(start), msg, err, false)
	return res, err
}

func logResult(ctx weave.Context, tx weave.Tx, took time.Duration, msg string, err error, check bool) {
	logger := weave.GetLogger(ctx).With(
		"path", weave.GetPath(tx),
		"took_us", took.Microseconds(),
	)
	// An entry is written even for an empty message, the fields matter.
	switch {
	case err != nil:
		logger.Error(msg, "err", err)
	case check:
		logger.Debug(msg)
	default:
		logger.Info(msg)
	}
}
