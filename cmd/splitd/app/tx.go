package app

import (
	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/crypto"
	"github.com/iov-one/weave-splitter/errors"
	"github.com/iov-one/weave-splitter/x/sigs"
)

// Tx is the transaction processed by the split daemon. It carries a single
// message and the signatures of everyone authorizing it.
type Tx struct {
	Msg        weave.Msg
	Signatures []*sigs.StdSignature
}

// make sure tx fulfills all interfaces
var _ weave.Tx = (*Tx)(nil)
var _ sigs.SignedTx = (*Tx)(nil)

// NewTx returns an unsigned transaction carrying given message.
func NewTx(msg weave.Msg) *Tx {
	return &Tx{Msg: msg}
}

// TxDecoder creates a Tx and unmarshals bytes into it
func TxDecoder(bz []byte) (weave.Tx, error) {
	tx := new(Tx)
	err := tx.Unmarshal(bz)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (tx *Tx) Marshal() ([]byte, error) {
	return weave.Marshal(tx)
}

func (tx *Tx) Unmarshal(raw []byte) error {
	*tx = Tx{}
	if err := weave.Unmarshal(raw, tx); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	return nil
}

// GetMsg returns the single message of this transaction.
func (tx *Tx) GetMsg() (weave.Msg, error) {
	if tx.Msg == nil {
		return nil, errors.Wrap(errors.ErrMsg, "transaction without a message")
	}
	return tx.Msg, nil
}

// GetSignatures returns all signatures attached to this transaction.
func (tx *Tx) GetSignatures() []*sigs.StdSignature {
	return tx.Signatures
}

// GetSignBytes returns the bytes to sign...
func (tx *Tx) GetSignBytes() ([]byte, error) {
	// the sign bytes should only come from the data itself,
	// not previous signatures
	unsigned := Tx{Msg: tx.Msg}
	return unsigned.Marshal()
}

// Sign appends a signature of given key, created for given chain and
// sequence.
func (tx *Tx) Sign(signer crypto.Signer, chainID string, seq int64) error {
	sig, err := sigs.SignTx(signer, tx, chainID, seq)
	if err != nil {
		return errors.Wrap(err, "cannot sign")
	}
	tx.Signatures = append(tx.Signatures, sig)
	return nil
}
