package cash

import (
	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/errors"
)

func init() {
	weave.RegisterMsg(&SendMsg{}, "cash/send")
}

const maxMemoSize int = 128

// SendMsg moves coins from the main signer of the transaction to the
// destination.
type SendMsg struct {
	Destination weave.Address `json:"destination"`
	Amount      uint64        `json:"amount"`
	Memo        string        `json:"memo,omitempty"`
}

// Ensure we implement the Msg interface
var _ weave.Msg = (*SendMsg)(nil)

// Path returns the routing path for this message
func (SendMsg) Path() string {
	return "cash/send"
}

// Validate makes sure that this is sensible
func (m *SendMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Destination", m.Destination.Validate())
	if m.Amount == 0 {
		errs = errors.Append(errs, errors.Field("Amount", errors.ErrAmount, "must be greater than zero"))
	}
	if len(m.Memo) > maxMemoSize {
		errs = errors.Append(errs, errors.Field("Memo", errors.ErrInput, "too long"))
	}
	return errs
}

func (m *SendMsg) Marshal() ([]byte, error) {
	return weave.Marshal(m)
}

func (m *SendMsg) Unmarshal(raw []byte) error {
	*m = SendMsg{}
	return weave.Unmarshal(raw, m)
}
