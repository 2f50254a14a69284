package weavetest

import (
	"testing"

	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/crypto"
)

// NewKey returns a new, random private key.
func NewKey() *crypto.PrivateKey {
	return crypto.GenPrivKeyEd25519()
}

// NewCondition returns a signature condition of a new, random key.
func NewCondition() weave.Condition {
	return NewKey().PublicKey().Condition()
}

// NewAddress returns the address of a new, random key.
func NewAddress() weave.Address {
	return NewCondition().Address()
}

// ParseAddress takes a weave address in a human readable format and returns
// its binary representation.
func ParseAddress(t testing.TB, encodedAddress string) weave.Address {
	t.Helper()

	addr, err := weave.ParseAddress(encodedAddress)
	if err != nil {
		t.Fatalf("cannot parse %q address: %s", encodedAddress, err)
	}
	return addr
}
