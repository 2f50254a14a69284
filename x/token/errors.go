package token

import "github.com/iov-one/weave-splitter/errors"

var (
	ErrInvalidTokenName     = errors.Register(1100, "invalid token name")
	ErrInvalidSigFigs       = errors.Register(1101, "invalid significant figures")
	ErrInvalidDiscriminator = errors.Register(1102, "invalid account discriminator")
	ErrMintMismatch         = errors.Register(1103, "mint mismatch")
)
