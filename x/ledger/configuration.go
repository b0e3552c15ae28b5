package ledger

import (
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/gconf"
)

const packageName = "ledger"

var configurationDiscriminator = codec.AccountDiscriminator("LedgerConfiguration")

const configurationSize = codec.DiscriminatorLength + codec.SizeUint64

// DefaultAccountReserve is the reserve used when the genesis does not
// declare one.
const DefaultAccountReserve = 2039280

// Configuration of the ledger.
type Configuration struct {
	// AccountReserve is the amount of lamports locked in every token
	// account for as long as it exists.
	AccountReserve uint64 `json:"account_reserve"`
}

var _ gconf.Configuration = (*Configuration)(nil)

func (c *Configuration) Marshal() ([]byte, error) {
	return codec.NewWriter(configurationDiscriminator, configurationSize).Uint64(c.AccountReserve).Bytes(), nil
}

func (c *Configuration) Unmarshal(raw []byte) error {
	r := codec.NewReader(configurationDiscriminator, raw, configurationSize)
	r.Uint64(&c.AccountReserve)
	return r.Err()
}

func (c *Configuration) Validate() error {
	return nil
}

// LoadConfiguration reads the ledger configuration from the database.
func LoadConfiguration(db gconf.ReadStore) (Configuration, error) {
	var c Configuration
	err := gconf.LoadValid(db, packageName, &c)
	return c, err
}
