package token

import (
	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/coin"
	"github.com/iov-one/weave-splitter/errors"
)

const optKey = "token"

// Genesis is the layout of the token section of the genesis file.
type Genesis struct {
	Tokens   []GenesisToken   `json:"tokens"`
	Holdings []GenesisHolding `json:"holdings"`
}

type GenesisToken struct {
	Mint    string `json:"mint"`
	Name    string `json:"name"`
	SigFigs int32  `json:"sig_figs"`
}

type GenesisHolding struct {
	Owner  weave.Address `json:"owner"`
	Mint   string        `json:"mint"`
	Amount uint64        `json:"amount"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ weave.Initializer = Initializer{}

// FromGenesis registers all tokens first and then opens and funds the
// holding accounts.
func (Initializer) FromGenesis(opts weave.Options, kv weave.KVStore) error {
	var gen Genesis
	if err := opts.ReadOptions(optKey, &gen); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}

	tokens := NewTokenInfoBucket()
	for i, t := range gen.Tokens {
		if err := coin.ValidateMint(t.Mint); err != nil {
			return errors.Wrapf(err, "token %d", i)
		}
		info := TokenInfo{Name: t.Name, SigFigs: t.SigFigs}
		if err := tokens.Create(kv, []byte(t.Mint), &info); err != nil {
			return errors.Wrapf(err, "token %d", i)
		}
	}

	ctrl := NewController()
	for i, h := range gen.Holdings {
		addr, err := ctrl.Open(kv, h.Owner, h.Mint)
		if err != nil {
			return errors.Wrapf(err, "holding %d", i)
		}
		if h.Amount == 0 {
			continue
		}
		if err := ctrl.Issue(kv, addr, h.Amount); err != nil {
			return errors.Wrapf(err, "holding %d", i)
		}
	}
	return nil
}
