package exchange

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/gconf"
)

// Initializer stores the exchange configuration from the genesis file.
type Initializer struct{}

var _ custody.Initializer = Initializer{}

func (Initializer) FromGenesis(opts custody.Options, db custody.KVStore) error {
	conf := Configuration{ProgramID: DefaultProgramID}
	return gconf.InitConfigOrDefault(db, opts, packageName, &conf)
}
