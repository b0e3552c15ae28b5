package escrow

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/gconf"
)

const packageName = "escrow"

// DefaultProgramID is used when the genesis does not declare one.
var DefaultProgramID = custody.MustParseAddress("8DzCzNud4KsLhgCfdHJnPTywcWxexDKcMRVdjiKRvaPu")

// DefaultMaxExpiry is the default exclusive upper bound of the relative
// expiry, in slots.
const DefaultMaxExpiry = 100000

var configurationDiscriminator = codec.AccountDiscriminator("EscrowConfiguration")

const configurationSize = codec.DiscriminatorLength + codec.SizeAddress + codec.SizeUint64

// Configuration of the escrow program.
type Configuration struct {
	ProgramID custody.Address `json:"program_id"`
	// MaxExpiry bounds the relative expiry accepted by make and update.
	MaxExpiry uint64 `json:"max_expiry"`
}

var _ gconf.Configuration = (*Configuration)(nil)

func (c *Configuration) Marshal() ([]byte, error) {
	return codec.NewWriter(configurationDiscriminator, configurationSize).
		Address(c.ProgramID).
		Uint64(c.MaxExpiry).
		Bytes(), nil
}

func (c *Configuration) Unmarshal(raw []byte) error {
	r := codec.NewReader(configurationDiscriminator, raw, configurationSize)
	r.Address(&c.ProgramID)
	r.Uint64(&c.MaxExpiry)
	return r.Err()
}

func (c *Configuration) Validate() error {
	if err := c.ProgramID.Validate(); err != nil {
		return errors.Wrap(err, "program id")
	}
	if c.MaxExpiry == 0 {
		return errors.Wrap(errors.ErrInvalidInput, "max expiry")
	}
	return nil
}

// LoadConfiguration reads the escrow configuration from the database.
func LoadConfiguration(db gconf.ReadStore) (Configuration, error) {
	var c Configuration
	err := gconf.LoadValid(db, packageName, &c)
	return c, err
}
