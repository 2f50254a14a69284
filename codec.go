package weave

import (
	amino "github.com/tendermint/go-amino"
)

// codec is shared by all extensions. Every message that can be sent inside of
// a transaction must be registered using RegisterMsg.
var codec = amino.NewCodec()

func init() {
	codec.RegisterInterface((*Msg)(nil), nil)
}

// RegisterMsg makes given message type available for transaction encoding
// under given name. Name must be unique. Call it only from package init.
func RegisterMsg(msg Msg, name string) {
	codec.RegisterConcrete(msg, name, nil)
}

// Marshal serializes given value using the binary encoding shared by all
// models, messages and transactions.
func Marshal(o interface{}) ([]byte, error) {
	return codec.MarshalBinaryBare(o)
}

// Unmarshal deserializes given binary representation into ptr. It is the
// counterpart of Marshal.
func Unmarshal(bz []byte, ptr interface{}) error {
	return codec.UnmarshalBinaryBare(bz, ptr)
}
