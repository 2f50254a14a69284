package sigs

import (
	"crypto/sha512"
	"encoding/binary"

	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/crypto"
	"github.com/iov-one/weave-splitter/errors"
)

// signPrefix starts every signed payload. Changing it invalidates all
// existing signatures.
var signPrefix = []byte{0x00, 0x5B, 0x17, 0x01}

// BuildSignBytes returns the digest that a signer signs for a transaction
// with given serialized content, on given chain, at given sequence. The
// digest is the sha512 sum of
//
//   prefix (4 bytes) | len(chainID) (1 byte) | chainID | seq (8 bytes, big endian) | content
func BuildSignBytes(content []byte, chainID string, seq int64) ([]byte, error) {
	if seq < 0 {
		return nil, errors.Wrap(ErrInvalidSequence, "negative")
	}
	if !weave.IsValidChainID(chainID) {
		return nil, errors.Wrapf(errors.ErrInput, "chain id: %q", chainID)
	}

	raw := make([]byte, 0, len(signPrefix)+1+len(chainID)+8+len(content))
	raw = append(raw, signPrefix...)
	raw = append(raw, byte(len(chainID)))
	raw = append(raw, chainID...)
	raw = binary.BigEndian.AppendUint64(raw, uint64(seq))
	raw = append(raw, content...)

	digest := sha512.Sum512(raw)
	return digest[:], nil
}

// SignTx signs tx on behalf of signer for given chain and sequence.
func SignTx(signer crypto.Signer, tx SignedTx, chainID string, seq int64) (*StdSignature, error) {
	content, err := tx.GetSignBytes()
	if err != nil {
		return nil, errors.Wrap(err, "sign bytes")
	}
	digest, err := BuildSignBytes(content, chainID, seq)
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(digest)
	if err != nil {
		return nil, errors.Wrap(err, "sign")
	}
	return &StdSignature{
		Sequence:  seq,
		Pubkey:    signer.PublicKey(),
		Signature: sig,
	}, nil
}

// verifyTx checks every signature of tx and bumps the sequence of each
// signer. It returns the signer conditions in the order of the signatures.
func verifyTx(db weave.KVStore, tx SignedTx, chainID string) ([]weave.Condition, error) {
	content, err := tx.GetSignBytes()
	if err != nil {
		return nil, errors.Wrap(err, "sign bytes")
	}
	sigs := tx.GetSignatures()
	signers := make([]weave.Condition, 0, len(sigs))
	for i, sig := range sigs {
		signer, err := verifySignature(db, sig, content, chainID)
		if err != nil {
			return nil, errors.Wrapf(err, "signature %d", i)
		}
		signers = append(signers, signer)
	}
	return signers, nil
}

func verifySignature(db weave.KVStore, sig *StdSignature, content []byte, chainID string) (weave.Condition, error) {
	if err := sig.Validate(); err != nil {
		return nil, err
	}
	digest, err := BuildSignBytes(content, chainID, sig.Sequence)
	if err != nil {
		return nil, err
	}
	if !sig.Pubkey.Verify(digest, sig.Signature) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "invalid signature")
	}

	bucket := NewBucket()
	user, err := bucket.GetOrCreate(db, sig.Pubkey)
	if err != nil {
		return nil, err
	}
	if err := user.CheckAndIncrementSequence(sig.Sequence); err != nil {
		return nil, err
	}
	if err := bucket.Save(db, user); err != nil {
		return nil, errors.Wrap(err, "save signer")
	}
	return sig.Pubkey.Condition(), nil
}

// NextSequence returns the sequence that the next signature of pubkey must
// use.
func NextSequence(db weave.ReadOnlyKVStore, pubkey *crypto.PublicKey) (int64, error) {
	user, err := NewBucket().GetOrCreate(db, pubkey)
	if err != nil {
		return 0, err
	}
	return user.Sequence, nil
}
