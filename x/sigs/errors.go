package sigs

import "github.com/iov-one/weave-splitter/errors"

var (
	// ErrInvalidSequence is returned when a signature sequence does not
	// match the expected signer sequence.
	ErrInvalidSequence = errors.Register(120, "invalid sequence number")
)
