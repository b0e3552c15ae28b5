package vault

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/gconf"
)

const packageName = "vault"

// DefaultProgramID is used when the genesis does not declare one.
var DefaultProgramID = custody.MustParseAddress("Gss8LX9bLNVB9e37eUrtqouWMGeuqNTUyJEhCkYZNhVK")

var configurationDiscriminator = codec.AccountDiscriminator("VaultConfiguration")

const configurationSize = codec.DiscriminatorLength + codec.SizeAddress

// Configuration of the vault program.
type Configuration struct {
	// ProgramID is the address every vault address is derived from.
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

// LoadConfiguration reads the vault configuration from the database.
func LoadConfiguration(db gconf.ReadStore) (Configuration, error) {
	var c Configuration
	err := gconf.LoadValid(db, packageName, &c)
	return c, err
}
