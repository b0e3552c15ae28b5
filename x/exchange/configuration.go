package exchange

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/gconf"
)

const packageName = "exchange"

// DefaultProgramID is used when the genesis does not declare one.
var DefaultProgramID = custody.MustParseAddress("Fg6PaFpoGXkYsidMpWTK6W2BeZ7FEfcYkg476zPFsLnS")

var configurationDiscriminator = codec.AccountDiscriminator("ExchangeConfiguration")

const configurationSize = codec.DiscriminatorLength + codec.SizeAddress

// Configuration of the exchange program.
type Configuration struct {
	ProgramID custody.Address `json:"program_id"`
}

var _ gconf.Configuration = (*Configuration)(nil)

func (c *Configuration) Marshal() ([]byte, error) {
	return codec.NewWriter(configurationDiscriminator, configurationSize).Address(c.ProgramID).Bytes(), nil
}

func (c *Configuration) Unmarshal(raw []byte) error {
	r := codec.NewReader(configurationDiscriminator, raw, configurationSize)
	r.Address(&c.ProgramID)
	return r.Err()
}

func (c *Configuration) Validate() error {
	return errors.Wrap(c.ProgramID.Validate(), "program id")
}

// LoadConfiguration reads the exchange configuration from the database.
func LoadConfiguration(db gconf.ReadStore) (Configuration, error) {
	var c Configuration
	err := gconf.LoadValid(db, packageName, &c)
	return c, err
}
