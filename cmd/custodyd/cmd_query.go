package main

import (
	"sort"
	"strings"

	"github.com/iov-one/custody"
	custodyd "github.com/iov-one/custody/cmd/custodyd/app"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
	"github.com/iov-one/custody/x/escrow"
	"github.com/iov-one/custody/x/exchange"
	"github.com/iov-one/custody/x/ledger"
	"github.com/iov-one/custody/x/vault"
	"github.com/spf13/cobra"
)

type lamports struct {
	Address  custody.Address `json:"address"`
	Lamports uint64          `json:"lamports"`
}

// queries maps every record kind to its reader.
var queries = map[string]func(db custody.ReadOnlyKVStore, ctrl ledger.Controller, addr custody.Address) (interface{}, error){
	"account": func(db custody.ReadOnlyKVStore, ctrl ledger.Controller, addr custody.Address) (interface{}, error) {
		n, err := ctrl.Balance(db, addr)
		return lamports{Address: addr, Lamports: n}, err
	},
	"mint": func(db custody.ReadOnlyKVStore, ctrl ledger.Controller, addr custody.Address) (interface{}, error) {
		return ctrl.Mint(db, addr)
	},
	"token": func(db custody.ReadOnlyKVStore, ctrl ledger.Controller, addr custody.Address) (interface{}, error) {
		return ctrl.TokenAccount(db, addr)
	},
	"vault": func(db custody.ReadOnlyKVStore, _ ledger.Controller, addr custody.Address) (interface{}, error) {
		return one(db, vault.NewBucket(), addr, &vault.VaultState{})
	},
	"escrow": func(db custody.ReadOnlyKVStore, _ ledger.Controller, addr custody.Address) (interface{}, error) {
		return one(db, escrow.NewBucket(), addr, &escrow.Escrow{})
	},
	"exchange": func(db custody.ReadOnlyKVStore, _ ledger.Controller, addr custody.Address) (interface{}, error) {
		return one(db, exchange.NewBucket(), addr, &exchange.Exchange{})
	},
}

func one(db custody.ReadOnlyKVStore, b orm.Bucket, addr custody.Address, dest orm.Model) (interface{}, error) {
	if err := b.One(db, addr, dest); err != nil {
		return nil, err
	}
	return dest, nil
}

func queryKinds() []string {
	kinds := make([]string, 0, len(queries))
	for k := range queries {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func queryCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "query <" + strings.Join(queryKinds(), "|") + "> <address>",
		Short: "Print a record of the committed state as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			read, ok := queries[args[0]]
			if !ok {
				return errors.Wrapf(errors.ErrInvalidInput, "unknown record kind %q", args[0])
			}
			addr, err := custody.ParseAddress(args[1])
			if err != nil {
				return err
			}
			h, err := s.openInitialized()
			if err != nil {
				return err
			}
			defer h.Close()
			db := h.Committed()
			confs, err := custodyd.LoadConfigurations(db)
			if err != nil {
				return err
			}
			res, err := read(db, ledger.NewController(confs.Ledger), addr)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
}
