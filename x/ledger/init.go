package ledger

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/gconf"
)

const optKey = "ledger"

// GenesisAccount is a native balance declared in the genesis file.
type GenesisAccount struct {
	Address  custody.Address `json:"address"`
	Lamports uint64          `json:"lamports"`
}

// GenesisMint is a mint declared in the genesis file.
type GenesisMint struct {
	Address   custody.Address `json:"address"`
	Authority custody.Address `json:"authority"`
	Decimals  uint8           `json:"decimals"`
}

// GenesisToken is a token account declared in the genesis file. When
// Address is not set the associated token account of the owner is used.
// Its amount is added to the mint supply.
type GenesisToken struct {
	Address custody.Address `json:"address"`
	Mint    custody.Address `json:"mint"`
	Owner   custody.Address `json:"owner"`
	Amount  uint64          `json:"amount"`
}

type genesis struct {
	Accounts []GenesisAccount `json:"accounts"`
	Mints    []GenesisMint    `json:"mints"`
	Tokens   []GenesisToken   `json:"tokens"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ custody.Initializer = Initializer{}

// FromGenesis will parse initial account info from genesis
// and save it to the database
func (Initializer) FromGenesis(opts custody.Options, db custody.KVStore) error {
	conf := Configuration{AccountReserve: DefaultAccountReserve}
	if err := gconf.InitConfigOrDefault(db, opts, packageName, &conf); err != nil {
		return err
	}

	var gen genesis
	if err := opts.ReadOptions(optKey, &gen); err != nil {
		return errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	ctrl := NewController(conf)

	for _, a := range gen.Accounts {
		if err := ctrl.IssueLamports(db, a.Address, a.Lamports); err != nil {
			return errors.Wrapf(err, "account %s", a.Address)
		}
	}
	for _, m := range gen.Mints {
		mint := &Mint{Authority: m.Authority, Decimals: m.Decimals}
		if err := ctrl.CreateMint(db, m.Address, mint); err != nil {
			return errors.Wrapf(err, "mint %s", m.Address)
		}
	}
	for _, t := range gen.Tokens {
		addr := t.Address
		if addr.IsZero() {
			ata, err := AssociatedTokenAddress(t.Owner, t.Mint)
			if err != nil {
				return err
			}
			addr = ata
		}
		if err := ctrl.genesisToken(db, addr, t); err != nil {
			return errors.Wrapf(err, "token account %s", addr)
		}
	}
	return nil
}

// genesisToken creates a token account without charging any reserve and
// issues its initial amount.
func (c Controller) genesisToken(db custody.KVStore, addr custody.Address, t GenesisToken) error {
	m, err := c.Mint(db, t.Mint)
	if err != nil {
		return err
	}
	if err := c.IssueLamports(db, addr, c.reserve); err != nil {
		return err
	}
	if err := c.tokens.Create(db, addr, &TokenAccount{Mint: t.Mint, Owner: t.Owner}); err != nil {
		return err
	}
	return c.MintTo(db, t.Mint, addr, t.Amount, custody.SignedBy(m.Authority))
}
