package cash

import (
	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/errors"
	"github.com/iov-one/weave-splitter/orm"
)

// BucketName is where we store the wallets
const BucketName = "cash"

// Wallet holds the native asset balance of a single address.
type Wallet struct {
	Balance uint64 `json:"balance"`
}

var _ orm.Model = (*Wallet)(nil)

func (w *Wallet) Marshal() ([]byte, error) {
	return weave.Marshal(w)
}

func (w *Wallet) Unmarshal(raw []byte) error {
	*w = Wallet{}
	return weave.Unmarshal(raw, w)
}

// Validate always succeeds, any balance is a valid balance.
func (w *Wallet) Validate() error {
	return nil
}

// Bucket stores wallets keyed by the owner address.
type Bucket struct {
	orm.ModelBucket
}

// NewBucket creates the proper bucket for this extension
func NewBucket() Bucket {
	return Bucket{
		ModelBucket: orm.NewModelBucket(BucketName),
	}
}

// GetOrCreate returns the wallet of given address. A missing wallet is
// returned as an empty one.
func (b Bucket) GetOrCreate(db weave.ReadOnlyKVStore, owner weave.Address) (*Wallet, error) {
	if err := owner.Validate(); err != nil {
		return nil, errors.Wrap(err, "owner")
	}
	var w Wallet
	switch err := b.One(db, owner, &w); {
	case err == nil:
		return &w, nil
	case errors.ErrNotFound.Is(err):
		return &Wallet{}, nil
	default:
		return nil, err
	}
}

// Save stores the wallet of given address.
func (b Bucket) Save(db weave.KVStore, owner weave.Address, w *Wallet) error {
	if err := owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	return b.Put(db, owner, w)
}
