package distribution

import (
	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/errors"
)

const optKey = "distribution"

// GenesisConfig is the layout of a single config in the genesis file.
type GenesisConfig struct {
	Authority   weave.Address   `json:"authority"`
	Recipients  []weave.Address `json:"recipients"`
	Percentages []uint32        `json:"percentages"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ weave.Initializer = Initializer{}

// FromGenesis creates all configs declared in the genesis file.
func (Initializer) FromGenesis(opts weave.Options, kv weave.KVStore) error {
	var configs []GenesisConfig
	if err := opts.ReadOptions(optKey, &configs); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	bucket := NewConfigBucket()
	for i, c := range configs {
		if _, err := bucket.Create(kv, c.Authority, c.Recipients, c.Percentages); err != nil {
			return errors.Wrapf(err, "config %d", i)
		}
	}
	return nil
}
