package app

import (
	"encoding/json"
	"os"

	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/errors"
	"github.com/tidwall/gjson"
)

// Genesis is the content of a genesis file.
//
//   {
//     "chain_id": "split-test",
//     "app_state": {
//       "cash": [...],
//       "distribution": [...]
//     }
//   }
//
// Every key of app_state is passed to the extension registered for it.
type Genesis struct {
	ChainID  string
	AppState weave.Options
}

// ParseGenesis reads the chain ID and the application state of a genesis
// document.
func ParseGenesis(raw []byte) (*Genesis, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errors.Wrap(errors.ErrInput, "genesis is not valid JSON")
	}
	chainID := gjson.GetBytes(raw, "chain_id")
	if chainID.Type != gjson.String || !weave.IsValidChainID(chainID.String()) {
		return nil, errors.Wrapf(errors.ErrInput, "invalid chain_id %q", chainID.Raw)
	}

	opts := make(weave.Options)
	state := gjson.GetBytes(raw, "app_state")
	if state.Exists() {
		if !state.IsObject() {
			return nil, errors.Wrap(errors.ErrInput, "app_state must be an object")
		}
		state.ForEach(func(key, value gjson.Result) bool {
			opts[key.String()] = json.RawMessage(value.Raw)
			return true
		})
	}
	return &Genesis{ChainID: chainID.String(), AppState: opts}, nil
}

// LoadGenesis reads and parses the genesis file at given path.
func LoadGenesis(path string) (*Genesis, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "read genesis: %s", err)
	}
	return ParseGenesis(raw)
}
