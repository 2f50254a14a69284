package app

import (
	"sync"
	"time"

	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/errors"
	"github.com/tendermint/tendermint/libs/log"
)

// chainIDKey is where the ledger remembers the chain it was initialized for.
// Module buckets use ":" separated prefixes so this key never collides.
var chainIDKey = []byte("_app.chain_id")

// Ledger executes transactions one at a time on top of a committing store.
//
// Every decoded transaction is processed by the handler inside of its own
// cache wrap, which is then written and committed as a new version before
// the next transaction is processed. This happens for failed deliveries as
// well, so that decorators can persist state like signature sequences.
// Discarding the changes of a failed message is the job of a savepoint
// decorator in the handler stack.
type Ledger struct {
	mu      sync.Mutex
	store   weave.CommitKVStore
	decoder weave.TxDecoder
	handler weave.Handler
	logger  log.Logger
	chainID string

	// now returns the block time of the next delivery.
	now func() time.Time
}

// NewLedger returns a ledger running given handler on top of given store.
// InitChain must be called before any transaction can be processed.
func NewLedger(store weave.CommitKVStore, decoder weave.TxDecoder, handler weave.Handler, logger log.Logger) *Ledger {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Ledger{
		store:   store,
		decoder: decoder,
		handler: handler,
		logger:  logger,
		now:     time.Now,
	}
}

// InitChain loads the genesis state using given initializer. If the store
// was already initialized for the same chain, genesis is skipped. A store
// initialized for a different chain is an error.
func (l *Ledger) InitChain(chainID string, opts weave.Options, init weave.Initializer) error {
	if !weave.IsValidChainID(chainID) {
		return errors.Wrapf(errors.ErrInput, "invalid chain ID %q", chainID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	stored, err := l.store.Get(chainIDKey)
	if err != nil {
		return errors.Wrap(err, "cannot read chain ID")
	}
	if stored != nil {
		if string(stored) != chainID {
			return errors.Wrapf(errors.ErrState, "store belongs to chain %q", stored)
		}
		l.chainID = chainID
		l.logger.Info("Resuming chain", "chain", chainID)
		return nil
	}

	cache := l.store.CacheWrap()
	if err := init.FromGenesis(opts, cache); err != nil {
		cache.Discard()
		return errors.Wrap(err, "cannot load genesis")
	}
	if err := cache.Set(chainIDKey, []byte(chainID)); err != nil {
		cache.Discard()
		return errors.Wrap(err, "cannot store chain ID")
	}
	if err := cache.Write(); err != nil {
		return errors.Wrap(err, "cannot write genesis")
	}
	id, err := l.store.Commit()
	if err != nil {
		return errors.Wrap(err, "cannot commit genesis")
	}
	l.chainID = chainID
	l.logger.Info("Genesis loaded", "chain", chainID, "version", id.Version)
	return nil
}

// ChainID returns the chain ID this ledger was initialized with.
func (l *Ledger) ChainID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.chainID
}

// LatestVersion returns the last committed version of the store.
func (l *Ledger) LatestVersion() (weave.CommitID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.LatestVersion()
}

// CheckTx runs the check phase of a transaction. Nothing is written.
func (l *Ledger) CheckTx(ctx weave.Context, raw []byte) (*weave.CheckResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx, ctx, err := l.prepare(ctx, raw)
	if err != nil {
		return nil, err
	}
	cache := l.store.CacheWrap()
	defer cache.Discard()
	return l.handler.Check(ctx, cache, tx)
}

// DeliverTx executes a transaction and commits the resulting state. The
// commit information of the new version is returned together with the
// result of the handler. A transaction that cannot be decoded is rejected
// without a commit.
func (l *Ledger) DeliverTx(ctx weave.Context, raw []byte) (*weave.DeliverResult, weave.CommitID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx, ctx, err := l.prepare(ctx, raw)
	if err != nil {
		return nil, weave.CommitID{}, err
	}
	cache := l.store.CacheWrap()
	res, deliverErr := l.handler.Deliver(ctx, cache, tx)
	if err := cache.Write(); err != nil {
		return nil, weave.CommitID{}, errors.Wrap(err, "cannot write changes")
	}
	id, err := l.store.Commit()
	if err != nil {
		return nil, weave.CommitID{}, errors.Wrap(err, "cannot commit")
	}
	if deliverErr != nil {
		return nil, id, deliverErr
	}
	return res, id, nil
}

// Query gives fn read access to the current state.
func (l *Ledger) Query(fn func(db weave.ReadOnlyKVStore) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cache := l.store.CacheWrap()
	defer cache.Discard()
	return fn(cache)
}

// prepare decodes the transaction and builds the context it is executed in.
func (l *Ledger) prepare(ctx weave.Context, raw []byte) (weave.Tx, weave.Context, error) {
	if l.chainID == "" {
		return nil, nil, errors.Wrap(errors.ErrState, "chain not initialized")
	}
	tx, err := l.decoder(raw)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	latest, err := l.store.LatestVersion()
	if err != nil {
		return nil, nil, errors.Wrap(err, "cannot read version")
	}
	height := latest.Version + 1

	ctx = weave.WithChainID(ctx, l.chainID)
	ctx = weave.WithHeight(ctx, height)
	ctx = weave.WithBlockTime(ctx, l.now())
	ctx = weave.WithLogger(ctx, l.logger)
	ctx = weave.WithLogInfo(ctx, "height", height, "path", weave.GetPath(tx))
	return tx, ctx, nil
}
