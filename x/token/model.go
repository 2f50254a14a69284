package token

import (
	"bytes"
	"crypto/sha256"
	"regexp"

	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/coin"
	"github.com/iov-one/weave-splitter/errors"
	"github.com/iov-one/weave-splitter/orm"
)

const (
	// BucketName is where we store the token information.
	BucketName = "tokeninfo"
	// HoldingBucketName is where we store the holding accounts.
	HoldingBucketName = "holding"

	minSigFigs = 0
	maxSigFigs = 9

	discriminatorSize = 8
)

var (
	isTokenName = regexp.MustCompile(`^[A-Za-z0-9 \-_:]{3,32}$`).MatchString

	// HoldingDiscriminator prefixes every serialized holding account.
	HoldingDiscriminator = sha256First8("token::holding")
)

func sha256First8(s string) [discriminatorSize]byte {
	h := sha256.Sum256([]byte(s))
	var disc [discriminatorSize]byte
	copy(disc[:], h[:discriminatorSize])
	return disc
}

// TokenInfo describes a registered mint.
type TokenInfo struct {
	Name    string `json:"name"`
	SigFigs int32  `json:"sig_figs"`
}

var _ orm.Model = (*TokenInfo)(nil)

func (t *TokenInfo) Marshal() ([]byte, error) {
	return weave.Marshal(t)
}

func (t *TokenInfo) Unmarshal(raw []byte) error {
	*t = TokenInfo{}
	return weave.Unmarshal(raw, t)
}

func (t *TokenInfo) Validate() error {
	if !isTokenName(t.Name) {
		return errors.Wrapf(ErrInvalidTokenName, "%q", t.Name)
	}
	if t.SigFigs < minSigFigs || t.SigFigs > maxSigFigs {
		return errors.Wrapf(ErrInvalidSigFigs, "%d", t.SigFigs)
	}
	return nil
}

// TokenInfoBucket stores token information keyed by the mint.
type TokenInfoBucket struct {
	orm.ModelBucket
}

func NewTokenInfoBucket() TokenInfoBucket {
	return TokenInfoBucket{
		ModelBucket: orm.NewModelBucket(BucketName),
	}
}

// Get returns the information about given mint or ErrNotFound.
func (b TokenInfoBucket) Get(db weave.ReadOnlyKVStore, mint string) (*TokenInfo, error) {
	if err := coin.ValidateMint(mint); err != nil {
		return nil, err
	}
	var info TokenInfo
	if err := b.One(db, []byte(mint), &info); err != nil {
		return nil, errors.Wrapf(err, "mint %s", mint)
	}
	return &info, nil
}

// HoldingAccount keeps the balance of a single owner in a single token.
type HoldingAccount struct {
	Owner  weave.Address `json:"owner"`
	Mint   string        `json:"mint"`
	Amount uint64        `json:"amount"`
}

var _ orm.Model = (*HoldingAccount)(nil)

// Marshal serializes the account prefixed with the holding discriminator.
func (h *HoldingAccount) Marshal() ([]byte, error) {
	raw, err := weave.Marshal(h)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, discriminatorSize+len(raw))
	out = append(out, HoldingDiscriminator[:]...)
	return append(out, raw...), nil
}

// Unmarshal fails with ErrInvalidDiscriminator unless the data was produced
// by HoldingAccount.Marshal.
func (h *HoldingAccount) Unmarshal(raw []byte) error {
	*h = HoldingAccount{}
	if len(raw) < discriminatorSize {
		return errors.Wrap(ErrInvalidDiscriminator, "data too short")
	}
	if !bytes.Equal(raw[:discriminatorSize], HoldingDiscriminator[:]) {
		return errors.Wrapf(ErrInvalidDiscriminator, "got %x", raw[:discriminatorSize])
	}
	return weave.Unmarshal(raw[discriminatorSize:], h)
}

func (h *HoldingAccount) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Owner", h.Owner.Validate())
	errs = errors.AppendField(errs, "Mint", coin.ValidateMint(h.Mint))
	return errs
}

// HoldingAddress returns the address of the holding account of given owner
// for given mint. The returned nonce is the derivation nonce.
func HoldingAddress(owner weave.Address, mint string) (weave.Address, uint8, error) {
	if err := owner.Validate(); err != nil {
		return nil, 0, errors.Wrap(err, "owner")
	}
	if err := coin.ValidateMint(mint); err != nil {
		return nil, 0, err
	}
	seed := make([]byte, 0, len(owner)+len(mint))
	seed = append(seed, owner...)
	seed = append(seed, mint...)
	return weave.DeriveAddress("token", "holding", seed)
}

// HoldingBucket stores holding accounts keyed by their derived address.
type HoldingBucket struct {
	orm.ModelBucket
}

func NewHoldingBucket() HoldingBucket {
	return HoldingBucket{
		ModelBucket: orm.NewModelBucket(HoldingBucketName),
	}
}

// Get loads the holding account stored under given address. It returns
// ErrNotFound if nothing is stored there and ErrModel if the stored data is
// not a holding account.
func (b HoldingBucket) Get(db weave.ReadOnlyKVStore, addr weave.Address) (*HoldingAccount, error) {
	if err := addr.Validate(); err != nil {
		return nil, errors.Wrap(err, "holding address")
	}
	var h HoldingAccount
	if err := b.One(db, addr, &h); err != nil {
		return nil, err
	}
	return &h, nil
}
