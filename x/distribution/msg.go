package distribution

import (
	"strconv"

	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/coin"
	"github.com/iov-one/weave-splitter/errors"
)

func init() {
	weave.RegisterMsg(&InitializeMsg{}, pathInitializeMsg)
	weave.RegisterMsg(&UpdateRecipientsMsg{}, pathUpdateRecipientsMsg)
	weave.RegisterMsg(&DistributeNativeMsg{}, pathDistributeNativeMsg)
	weave.RegisterMsg(&DistributeTokenMsg{}, pathDistributeTokenMsg)
}

const (
	pathInitializeMsg       = "distribution/initialize"
	pathUpdateRecipientsMsg = "distribution/update_recipients"
	pathDistributeNativeMsg = "distribution/distribute_native"
	pathDistributeTokenMsg  = "distribution/distribute_token"
)

// Destinations is the fixed list of destination slots of a distribution.
// Unused slots must be set to BurnAddress.
type Destinations [MaxRecipients]weave.Address

// Validate requires every slot to hold a valid address.
func (d Destinations) Validate() error {
	var errs error
	for i, a := range d {
		errs = errors.AppendField(errs, "Destinations."+strconv.Itoa(i), a.Validate())
	}
	return errs
}

// NewDestinations returns destination slots filled with given addresses
// followed by BurnAddress.
func NewDestinations(addrs ...weave.Address) (Destinations, error) {
	var d Destinations
	if len(addrs) > MaxRecipients {
		return d, errors.Wrapf(ErrMaxRecipientsExceeded, "%d destinations", len(addrs))
	}
	for i := range d {
		if i < len(addrs) {
			d[i] = addrs[i]
		} else {
			d[i] = BurnAddress
		}
	}
	return d, nil
}

// InitializeMsg creates the config of the main signer.
type InitializeMsg struct {
	Recipients  []weave.Address `json:"recipients"`
	Percentages []uint32        `json:"percentages"`
}

var _ weave.Msg = (*InitializeMsg)(nil)

func (InitializeMsg) Path() string {
	return pathInitializeMsg
}

func (m *InitializeMsg) Validate() error {
	return validateSchedule(m.Recipients, m.Percentages)
}

func (m *InitializeMsg) Marshal() ([]byte, error) {
	return weave.Marshal(m)
}

func (m *InitializeMsg) Unmarshal(raw []byte) error {
	*m = InitializeMsg{}
	return weave.Unmarshal(raw, m)
}

// UpdateRecipientsMsg replaces both lists of an existing config. It must be
// signed by the config authority.
type UpdateRecipientsMsg struct {
	ConfigID    weave.Address   `json:"config_id"`
	Recipients  []weave.Address `json:"recipients"`
	Percentages []uint32        `json:"percentages"`
}

var _ weave.Msg = (*UpdateRecipientsMsg)(nil)

func (UpdateRecipientsMsg) Path() string {
	return pathUpdateRecipientsMsg
}

func (m *UpdateRecipientsMsg) Validate() error {
	if err := m.ConfigID.Validate(); err != nil {
		return errors.Field("ConfigID", err, "")
	}
	return validateSchedule(m.Recipients, m.Percentages)
}

func (m *UpdateRecipientsMsg) Marshal() ([]byte, error) {
	return weave.Marshal(m)
}

func (m *UpdateRecipientsMsg) Unmarshal(raw []byte) error {
	*m = UpdateRecipientsMsg{}
	return weave.Unmarshal(raw, m)
}

// DistributeNativeMsg splits Amount of the native asset owned by the main
// signer according to the config.
type DistributeNativeMsg struct {
	ConfigID     weave.Address `json:"config_id"`
	Amount       uint64        `json:"amount"`
	Destinations Destinations  `json:"destinations"`
}

var _ weave.Msg = (*DistributeNativeMsg)(nil)

func (DistributeNativeMsg) Path() string {
	return pathDistributeNativeMsg
}

func (m *DistributeNativeMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "ConfigID", m.ConfigID.Validate())
	return errors.Append(errs, m.Destinations.Validate())
}

func (m *DistributeNativeMsg) Marshal() ([]byte, error) {
	return weave.Marshal(m)
}

func (m *DistributeNativeMsg) Unmarshal(raw []byte) error {
	*m = DistributeNativeMsg{}
	return weave.Unmarshal(raw, m)
}

// DistributeTokenMsg splits Amount of tokens held in the Source holding
// account according to the config. Destinations are holding accounts.
type DistributeTokenMsg struct {
	ConfigID     weave.Address `json:"config_id"`
	Amount       uint64        `json:"amount"`
	Source       weave.Address `json:"source"`
	Mint         string        `json:"mint"`
	Destinations Destinations  `json:"destinations"`
}

var _ weave.Msg = (*DistributeTokenMsg)(nil)

func (DistributeTokenMsg) Path() string {
	return pathDistributeTokenMsg
}

func (m *DistributeTokenMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "ConfigID", m.ConfigID.Validate())
	errs = errors.AppendField(errs, "Source", m.Source.Validate())
	errs = errors.AppendField(errs, "Mint", coin.ValidateMint(m.Mint))
	return errors.Append(errs, m.Destinations.Validate())
}

func (m *DistributeTokenMsg) Marshal() ([]byte, error) {
	return weave.Marshal(m)
}

func (m *DistributeTokenMsg) Unmarshal(raw []byte) error {
	*m = DistributeTokenMsg{}
	return weave.Unmarshal(raw, m)
}
