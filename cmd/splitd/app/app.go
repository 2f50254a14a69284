/*
Package app wires together the extensions of the split daemon.

It is the place to see how authentication, the decorator chain, the router
and the genesis initializers of the native asset, token and distribution
extensions are combined into a single ledger.
*/
package app

import (
	"fmt"
	"path/filepath"

	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/app"
	"github.com/iov-one/weave-splitter/store/bolt"
	"github.com/iov-one/weave-splitter/x"
	"github.com/iov-one/weave-splitter/x/cash"
	"github.com/iov-one/weave-splitter/x/distribution"
	"github.com/iov-one/weave-splitter/x/sigs"
	"github.com/iov-one/weave-splitter/x/token"
	"github.com/iov-one/weave-splitter/x/utils"
	"github.com/tendermint/tendermint/libs/log"
)

// Authenticator returns the typical authentication,
// just using public key signatures
func Authenticator() x.Authenticator {
	return x.ChainAuth(sigs.Authenticate{})
}

// CashControl returns a controller for cash functions
func CashControl() cash.BaseController {
	return cash.NewController(cash.NewBucket())
}

// TokenControl returns a controller for token functions
func TokenControl() token.BaseController {
	return token.NewController()
}

// Chain returns a chain of decorators, to handle authentication,
// logging, and recovery
func Chain() app.Decorators {
	return app.ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		utils.NewActionTagger(),
		// on CheckTx, bad tx don't affect state
		utils.NewSavepoint().OnCheck(),
		sigs.NewDecorator(),
		// on DeliverTx, bad tx will increment nonce
		// even if the message fails
		utils.NewSavepoint().OnDeliver(),
	)
}

// Router returns a router dispatching to the cash, token and distribution
// handlers. Token issuing is enabled only when issuer is not empty.
func Router(authFn x.Authenticator, issuer weave.Address) *app.Router {
	r := app.NewRouter()
	cash.RegisterRoutes(r, authFn, CashControl())
	token.RegisterRoutes(r, authFn, issuer, TokenControl())
	distribution.RegisterRoutes(r, authFn, CashControl(), TokenControl())
	return r
}

// Stack wires up a standard router with a standard decorator
// chain. This can be passed into a Ledger.
func Stack(issuer weave.Address) weave.Handler {
	authFn := Authenticator()
	return Chain().WithHandler(Router(authFn, issuer))
}

// Initializers returns the genesis loaders of all extensions.
func Initializers() weave.Initializer {
	return weave.ChainInitializers(
		cash.Initializer{},
		token.Initializer{},
		distribution.Initializer{},
	)
}

// Application constructs a ledger on top of given store using the standard
// stack and transaction decoding.
func Application(kv weave.CommitKVStore, issuer weave.Address, logger log.Logger) *app.Ledger {
	return app.NewLedger(kv, TxDecoder, Stack(issuer), logger)
}

// CommitKVStore returns an initialized store that persists the data inside
// of given home directory.
func CommitKVStore(home string) (*bolt.CommitStore, error) {
	path, err := filepath.Abs(home)
	if err != nil {
		return nil, fmt.Errorf("invalid home directory %q: %s", home, err)
	}
	return bolt.Open(filepath.Join(path, "data", "state.db"))
}
