package escrow

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/gconf"
)

// Initializer stores the escrow configuration from the genesis file.
type Initializer struct{}

var _ custody.Initializer = Initializer{}

// FromGenesis stores the configuration declared under "conf.escrow", or
// the defaults when none is declared.
func (Initializer) FromGenesis(opts custody.Options, db custody.KVStore) error {
	conf := Configuration{
		ProgramID: DefaultProgramID,
		MaxExpiry: DefaultMaxExpiry,
	}
	return gconf.InitConfigOrDefault(db, opts, packageName, &conf)
}
