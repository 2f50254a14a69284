package distribution

import "github.com/iov-one/weave-splitter/errors"

var (
	ErrLengthMismatch           = errors.Register(1000, "recipients and percentages length mismatch")
	ErrInvalidTotal             = errors.Register(1001, "total percentage exceeds 100%")
	ErrMaxRecipientsExceeded    = errors.Register(1002, "too many recipients")
	ErrInvalidRecipientCount    = errors.Register(1003, "wrong number of recipients")
	ErrInvalidRecipient         = errors.Register(1004, "recipient not in config")
	ErrInsufficientFunds        = errors.Register(1005, "insufficient funds")
	ErrInsufficientTokenBalance = errors.Register(1006, "insufficient token balance")
	ErrInvalidTokenOwner        = errors.Register(1007, "invalid token account owner")
	ErrInvalidConfigAddress     = errors.Register(1008, "invalid config address")
)
