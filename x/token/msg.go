package token

import (
	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/coin"
	"github.com/iov-one/weave-splitter/errors"
)

func init() {
	weave.RegisterMsg(&RegisterTokenMsg{}, "token/register")
	weave.RegisterMsg(&OpenHoldingMsg{}, "token/open")
	weave.RegisterMsg(&TransferMsg{}, "token/transfer")
	weave.RegisterMsg(&IssueMsg{}, "token/issue")
}

// RegisterTokenMsg registers a new mint.
type RegisterTokenMsg struct {
	Mint    string `json:"mint"`
	Name    string `json:"name"`
	SigFigs int32  `json:"sig_figs"`
}

var _ weave.Msg = (*RegisterTokenMsg)(nil)

func (RegisterTokenMsg) Path() string {
	return "token/register"
}

func (m *RegisterTokenMsg) Validate() error {
	if err := coin.ValidateMint(m.Mint); err != nil {
		return err
	}
	info := TokenInfo{Name: m.Name, SigFigs: m.SigFigs}
	return info.Validate()
}

func (m *RegisterTokenMsg) Marshal() ([]byte, error) {
	return weave.Marshal(m)
}

func (m *RegisterTokenMsg) Unmarshal(raw []byte) error {
	*m = RegisterTokenMsg{}
	return weave.Unmarshal(raw, m)
}

// OpenHoldingMsg opens the holding account of the main signer.
type OpenHoldingMsg struct {
	Mint string `json:"mint"`
}

var _ weave.Msg = (*OpenHoldingMsg)(nil)

func (OpenHoldingMsg) Path() string {
	return "token/open"
}

func (m *OpenHoldingMsg) Validate() error {
	return errors.Field("Mint", coin.ValidateMint(m.Mint), "")
}

func (m *OpenHoldingMsg) Marshal() ([]byte, error) {
	return weave.Marshal(m)
}

func (m *OpenHoldingMsg) Unmarshal(raw []byte) error {
	*m = OpenHoldingMsg{}
	return weave.Unmarshal(raw, m)
}

// TransferMsg moves tokens between two holding accounts. The main signer
// must own the source account.
type TransferMsg struct {
	Source      weave.Address `json:"source"`
	Destination weave.Address `json:"destination"`
	Amount      uint64        `json:"amount"`
}

var _ weave.Msg = (*TransferMsg)(nil)

func (TransferMsg) Path() string {
	return "token/transfer"
}

func (m *TransferMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Source", m.Source.Validate())
	errs = errors.AppendField(errs, "Destination", m.Destination.Validate())
	if m.Amount == 0 {
		errs = errors.Append(errs, errors.Field("Amount", errors.ErrAmount, "must be greater than zero"))
	}
	return errs
}

func (m *TransferMsg) Marshal() ([]byte, error) {
	return weave.Marshal(m)
}

func (m *TransferMsg) Unmarshal(raw []byte) error {
	*m = TransferMsg{}
	return weave.Unmarshal(raw, m)
}

// IssueMsg creates new tokens in a holding account. Only the issuer can
// issue tokens.
type IssueMsg struct {
	Destination weave.Address `json:"destination"`
	Amount      uint64        `json:"amount"`
}

var _ weave.Msg = (*IssueMsg)(nil)

func (IssueMsg) Path() string {
	return "token/issue"
}

func (m *IssueMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Destination", m.Destination.Validate())
	if m.Amount == 0 {
		errs = errors.Append(errs, errors.Field("Amount", errors.ErrAmount, "must be greater than zero"))
	}
	return errs
}

func (m *IssueMsg) Marshal() ([]byte, error) {
	return weave.Marshal(m)
}

func (m *IssueMsg) Unmarshal(raw []byte) error {
	*m = IssueMsg{}
	return weave.Unmarshal(raw, m)
}
