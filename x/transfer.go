package x

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// Ledger is the transfer primitive custody programs move assets with.
type Ledger interface {
	TransferLamports(db custody.KVStore, from, to custody.Address, amount uint64, auth custody.Authority) error
	Transfer(db custody.KVStore, from, to custody.Address, amount uint64, auth custody.Authority) error
	TransferChecked(db custody.KVStore, from, mint, to custody.Address, amount uint64, decimals uint8, auth custody.Authority) error
	CloseAccount(db custody.KVStore, account, destination custody.Address, auth custody.Authority) error
}

// Transfers issues ledger calls on behalf of a program. Deposits are signed
// by the user, releases by a derived authority credential.
//
// No rollback is attempted when a later call fails. Every instruction runs
// in its own cache wrap and the host discards it on error.
type Transfers struct {
	ledger Ledger
}

// NewTransfers returns a transfer orchestrator using given ledger.
func NewTransfers(l Ledger) Transfers {
	return Transfers{ledger: l}
}

// DepositLamports moves native balance from a user into custody.
func (t Transfers) DepositLamports(db custody.KVStore, from, vault custody.Address, amount uint64, signer custody.Address) error {
	return t.ledger.TransferLamports(db, from, vault, amount, custody.SignedBy(signer))
}

// Deposit moves tokens from a user account into a custody account.
func (t Transfers) Deposit(db custody.KVStore, from, vault custody.Address, amount uint64, signer custody.Address) error {
	return t.ledger.Transfer(db, from, vault, amount, custody.SignedBy(signer))
}

// DepositChecked is Deposit verifying the mint and its decimals.
func (t Transfers) DepositChecked(db custody.KVStore, from, mint, vault custody.Address, amount uint64, decimals uint8, signer custody.Address) error {
	return t.ledger.TransferChecked(db, from, mint, vault, amount, decimals, custody.SignedBy(signer))
}

// ReleaseLamports moves native balance out of a derived address.
func (t Transfers) ReleaseLamports(db custody.KVStore, cred custody.AuthorityCredential, vault, to custody.Address, amount uint64) error {
	return t.ledger.TransferLamports(db, vault, to, amount, cred)
}

// Release moves tokens out of a custody account owned by a derived
// authority.
func (t Transfers) Release(db custody.KVStore, cred custody.AuthorityCredential, vault, to custody.Address, amount uint64) error {
	return t.ledger.Transfer(db, vault, to, amount, cred)
}

// ReleaseChecked is Release verifying the mint and its decimals.
func (t Transfers) ReleaseChecked(db custody.KVStore, cred custody.AuthorityCredential, vault, mint, to custody.Address, amount uint64, decimals uint8) error {
	return t.ledger.TransferChecked(db, vault, mint, to, amount, decimals, cred)
}

// Close removes an empty custody account, returning its reserve.
func (t Transfers) Close(db custody.KVStore, cred custody.AuthorityCredential, vault, destination custody.Address) error {
	return t.ledger.CloseAccount(db, vault, destination, cred)
}

// Leg is one side of a settlement.
type Leg struct {
	From   custody.Address
	To     custody.Address
	Amount uint64
	// Mint and Decimals are verified when Checked is set.
	Mint     custody.Address
	Decimals uint8
	Checked  bool
}

// Settlement describes an exchange between a counterparty and the assets
// held in custody.
type Settlement struct {
	// Counterparty signed the instruction and pays the counter leg.
	Counterparty custody.Address
	// Counter moves the counterparty's asset to the depositor.
	Counter Leg
	// Authority signs for the vault.
	Authority custody.AuthorityCredential
	// Release moves the vault content to the counterparty. From must be
	// the vault.
	Release Leg
	// CloseTo receives the vault reserve once the vault is closed.
	CloseTo custody.Address
}

// Settle performs a settlement in a fixed order: the counter leg, the
// release of the vault and finally the vault closure. The first failure
// aborts the remaining steps.
func (t Transfers) Settle(db custody.KVStore, s Settlement) error {
	c := s.Counter
	var err error
	if c.Checked {
		err = t.DepositChecked(db, c.From, c.Mint, c.To, c.Amount, c.Decimals, s.Counterparty)
	} else {
		err = t.Deposit(db, c.From, c.To, c.Amount, s.Counterparty)
	}
	if err != nil {
		return errors.Wrap(err, "counter transfer")
	}

	r := s.Release
	if r.Checked {
		err = t.ReleaseChecked(db, s.Authority, r.From, r.Mint, r.To, r.Amount, r.Decimals)
	} else {
		err = t.Release(db, s.Authority, r.From, r.To, r.Amount)
	}
	if err != nil {
		return errors.Wrap(err, "vault release")
	}

	if err := t.Close(db, s.Authority, r.From, s.CloseTo); err != nil {
		return errors.Wrap(err, "vault close")
	}
	return nil
}
