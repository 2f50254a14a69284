package distribution

import (
	"github.com/jinzhu/copier"

	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/errors"
	"github.com/iov-one/weave-splitter/orm"
)

const (
	// BucketName is where we store the configs.
	BucketName = "split"

	// MaxRecipients is the number of destination slots of every
	// distribution and the maximum number of recipients of a config.
	MaxRecipients = 10

	configExt = "split"
	configTyp = "config"
)

// MaxConfigSize is the upper bound of a serialized config. A config with
// the maximum number of recipients always fits.
var MaxConfigSize = configSize(MaxRecipients)

// configSize returns the serialized size bound of a config with n
// recipients. Every field is prefixed with a one byte tag, byte slices and
// nested structures with a length that fits in two varint bytes, numbers
// take at most five bytes.
func configSize(n int) int {
	const tag, length, number = 1, 2, 5
	address := tag + length + weave.AddressLength
	recipient := tag + length + address + tag + number
	return address + tag + number + n*recipient
}

// BurnAddress is the sentinel that fills unused destination slots. It is a
// condition address that no key can sign for and that a config can never
// name as a recipient.
var BurnAddress = weave.NewCondition("dist", "burn", []byte("incinerator")).Address()

// Recipient is a single entry of a distribution schedule.
type Recipient struct {
	Address weave.Address `json:"address"`
	// Percentage is expressed in basis points, 10000 being the whole
	// amount.
	Percentage uint32 `json:"percentage"`
}

// Config binds an authority to a distribution schedule.
type Config struct {
	Authority weave.Address `json:"authority"`
	// Nonce is the derivation nonce of the config address.
	Nonce      uint32      `json:"nonce"`
	Recipients []Recipient `json:"recipients"`
}

var _ orm.Model = (*Config)(nil)

func (c *Config) Marshal() ([]byte, error) {
	return weave.Marshal(c)
}

func (c *Config) Unmarshal(raw []byte) error {
	*c = Config{}
	return weave.Unmarshal(raw, c)
}

// NewConfig returns a config built from two index aligned lists.
func NewConfig(authority weave.Address, nonce uint8, recipients []weave.Address, percentages []uint32) *Config {
	c := &Config{
		Authority:  authority,
		Nonce:      uint32(nonce),
		Recipients: make([]Recipient, len(recipients)),
	}
	for i := range recipients {
		c.Recipients[i] = Recipient{
			Address:    recipients[i],
			Percentage: percentages[i],
		}
	}
	return c
}

// Addresses returns the configured recipient addresses in order.
func (c *Config) Addresses() []weave.Address {
	res := make([]weave.Address, len(c.Recipients))
	for i, r := range c.Recipients {
		res[i] = r.Address
	}
	return res
}

// Percentages returns the configured percentages in order.
func (c *Config) Percentages() []uint32 {
	res := make([]uint32, len(c.Recipients))
	for i, r := range c.Recipients {
		res[i] = r.Percentage
	}
	return res
}

// Copy returns a deep copy of the config.
func (c *Config) Copy() (*Config, error) {
	var cpy Config
	if err := copier.CopyWithOption(&cpy, c, copier.Option{DeepCopy: true}); err != nil {
		return nil, errors.Wrap(errors.ErrHuman, err.Error())
	}
	return &cpy, nil
}

func (c *Config) Validate() error {
	if err := c.Authority.Validate(); err != nil {
		return errors.Wrap(err, "authority")
	}
	if c.Nonce > weave.MaxDerivationNonce {
		return errors.Wrapf(errors.ErrModel, "nonce %d", c.Nonce)
	}
	if err := validateSchedule(c.Addresses(), c.Percentages()); err != nil {
		return err
	}
	raw, err := c.Marshal()
	if err != nil {
		return errors.Wrap(errors.ErrModel, err.Error())
	}
	if len(raw) > MaxConfigSize {
		return errors.Wrapf(errors.ErrModel, "config size %d exceeds %d", len(raw), MaxConfigSize)
	}
	return nil
}

// ConfigAddress returns the address that the config of given authority is
// stored under, together with its derivation nonce.
func ConfigAddress(authority weave.Address) (weave.Address, uint8, error) {
	if err := authority.Validate(); err != nil {
		return nil, 0, errors.Wrap(err, "authority")
	}
	return weave.DeriveAddress(configExt, configTyp, authority)
}

// ConfigBucket stores configs keyed by their derived address.
type ConfigBucket struct {
	orm.ModelBucket
}

// NewConfigBucket returns a bucket for managing configs.
func NewConfigBucket() ConfigBucket {
	return ConfigBucket{
		ModelBucket: orm.NewModelBucket(BucketName),
	}
}

// Create stores a new config for given authority and returns its address.
// Every authority can create only one config, a second call fails with
// ErrDuplicate.
func (b ConfigBucket) Create(db weave.KVStore, authority weave.Address, recipients []weave.Address, percentages []uint32) (weave.Address, error) {
	key, nonce, err := ConfigAddress(authority)
	if err != nil {
		return nil, err
	}
	if err := validateSchedule(recipients, percentages); err != nil {
		return nil, err
	}
	c := NewConfig(authority, nonce, recipients, percentages)
	if err := b.ModelBucket.Create(db, key, c); err != nil {
		return nil, errors.Wrap(err, "config")
	}
	return key, nil
}

// Update replaces both recipient lists of the config stored under given
// address and returns the new config. Signer must be the authority of that
// config.
func (b ConfigBucket) Update(db weave.KVStore, signer, key weave.Address, recipients []weave.Address, percentages []uint32) (*Config, error) {
	c, err := b.Resolve(db, key)
	if err != nil {
		return nil, err
	}
	if err := validateAuthority(c, signer); err != nil {
		return nil, err
	}
	if err := validateSchedule(recipients, percentages); err != nil {
		return nil, err
	}
	// The returned config must not share addresses with the caller.
	updated, err := NewConfig(c.Authority, uint8(c.Nonce), recipients, percentages).Copy()
	if err != nil {
		return nil, err
	}
	if err := b.Put(db, key, updated); err != nil {
		return nil, errors.Wrap(err, "config")
	}
	return updated, nil
}

// Resolve loads the config stored under given address and verifies that
// the address is the one derived from the stored authority and nonce.
func (b ConfigBucket) Resolve(db weave.ReadOnlyKVStore, key weave.Address) (*Config, error) {
	if err := key.Validate(); err != nil {
		return nil, errors.Wrap(err, "config address")
	}
	var c Config
	if err := b.One(db, key, &c); err != nil {
		return nil, err
	}
	if err := verifyConfigKey(&c, key); err != nil {
		return nil, err
	}
	return &c, nil
}

// ResolveByAuthority loads the config of given authority.
func (b ConfigBucket) ResolveByAuthority(db weave.ReadOnlyKVStore, authority weave.Address) (*Config, weave.Address, error) {
	key, _, err := ConfigAddress(authority)
	if err != nil {
		return nil, nil, err
	}
	c, err := b.Resolve(db, key)
	if err != nil {
		return nil, nil, err
	}
	return c, key, nil
}
