package vault

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/gconf"
)

// Initializer stores the vault configuration from the genesis file.
type Initializer struct{}

var _ custody.Initializer = Initializer{}

// FromGenesis stores the configuration, falling back to DefaultProgramID.
func (Initializer) FromGenesis(opts custody.Options, db custody.KVStore) error {
	conf := Configuration{ProgramID: DefaultProgramID}
	return gconf.InitConfigOrDefault(db, opts, packageName, &conf)
}
