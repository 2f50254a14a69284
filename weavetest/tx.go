package weavetest

import weave "github.com/iov-one/weave-splitter"

// Tx is a transaction mock carrying a single message. Serialization is not
// supported.
type Tx struct {
	Msg weave.Msg
	// Err, when set, is returned by GetMsg.
	Err error
}

var _ weave.Tx = (*Tx)(nil)

func (tx *Tx) GetMsg() (weave.Msg, error) {
	return tx.Msg, tx.Err
}

func (tx *Tx) Marshal() ([]byte, error) {
	panic("weavetest: Tx cannot be serialized")
}

func (tx *Tx) Unmarshal([]byte) error {
	panic("weavetest: Tx cannot be serialized")
}

// Msg is a message mock. Its route is RoutePath and it serializes to
// Serialized.
type Msg struct {
	RoutePath  string
	Serialized []byte
	// Err, when set, is returned by Marshal and Unmarshal.
	Err error
	// ValidErr, when set, is returned by Validate.
	ValidErr error
}

var _ weave.Msg = (*Msg)(nil)

func (m *Msg) Path() string { return m.RoutePath }

func (m *Msg) Validate() error { return m.ValidErr }

func (m *Msg) Marshal() ([]byte, error) {
	return m.Serialized, m.Err
}

func (m *Msg) Unmarshal(raw []byte) error {
	m.Serialized = raw
	return m.Err
}
