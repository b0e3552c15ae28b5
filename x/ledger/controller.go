package ledger

import (
	"math"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

// Controller is the transfer primitive. It is the only code that changes
// balances.
type Controller struct {
	accounts orm.Bucket
	mints    orm.Bucket
	tokens   orm.Bucket
	reserve  uint64
}

// NewController returns a controller using given configuration.
func NewController(conf Configuration) Controller {
	return Controller{
		accounts: NewAccountBucket(),
		mints:    NewMintBucket(),
		tokens:   NewTokenBucket(),
		reserve:  conf.AccountReserve,
	}
}

// AccountReserve returns the lamports locked in every token account.
func (c Controller) AccountReserve() uint64 {
	return c.reserve
}

// Balance returns the native balance of an address. Unknown addresses hold
// nothing.
func (c Controller) Balance(db custody.ReadOnlyKVStore, addr custody.Address) (uint64, error) {
	var acc Account
	switch err := c.accounts.One(db, addr, &acc); {
	case err == nil:
		return acc.Lamports, nil
	case errors.ErrNotFound.Is(err):
		return 0, nil
	default:
		return 0, err
	}
}

// Mint returns the mint stored under given address.
func (c Controller) Mint(db custody.ReadOnlyKVStore, addr custody.Address) (*Mint, error) {
	var m Mint
	if err := c.mints.One(db, addr, &m); err != nil {
		return nil, errors.Wrap(err, "mint")
	}
	return &m, nil
}

// TokenAccount returns the token account stored under given address.
func (c Controller) TokenAccount(db custody.ReadOnlyKVStore, addr custody.Address) (*TokenAccount, error) {
	var t TokenAccount
	if err := c.tokens.One(db, addr, &t); err != nil {
		return nil, errors.Wrap(err, "token account")
	}
	return &t, nil
}

// HasTokenAccount returns true if a token account exists at given address.
func (c Controller) HasTokenAccount(db custody.ReadOnlyKVStore, addr custody.Address) (bool, error) {
	return c.tokens.Has(db, addr)
}

// IssueLamports adds lamports to an address out of thin air. Only genesis
// and tests use it.
func (c Controller) IssueLamports(db custody.KVStore, to custody.Address, amount uint64) error {
	return c.credit(db, to, amount)
}

// TransferLamports moves native balance between two addresses. The
// authority must authorize the source.
func (c Controller) TransferLamports(db custody.KVStore, from, to custody.Address, amount uint64, auth custody.Authority) error {
	if !auth.Authorizes(from) {
		return errors.Wrapf(errors.ErrUnauthorized, "cannot move lamports of %s", from)
	}
	if err := c.debit(db, from, amount); err != nil {
		return err
	}
	return c.credit(db, to, amount)
}

func (c Controller) debit(db custody.KVStore, addr custody.Address, amount uint64) error {
	balance, err := c.Balance(db, addr)
	if err != nil {
		return err
	}
	if balance < amount {
		return errors.Wrapf(errors.ErrInsufficientFunds, "%s holds %d lamports, need %d", addr, balance, amount)
	}
	return c.accounts.Save(db, addr, &Account{Lamports: balance - amount})
}

func (c Controller) credit(db custody.KVStore, addr custody.Address, amount uint64) error {
	balance, err := c.Balance(db, addr)
	if err != nil {
		return err
	}
	if balance > math.MaxUint64-amount {
		return errors.Wrapf(errors.ErrOverflow, "balance of %s", addr)
	}
	return c.accounts.Save(db, addr, &Account{Lamports: balance + amount})
}

// CreateMint registers a new mint. It fails with ErrDuplicate when the
// address already holds one.
func (c Controller) CreateMint(db custody.KVStore, addr custody.Address, m *Mint) error {
	return c.mints.Create(db, addr, m)
}

// MintTo issues new tokens into a token account. The authority must
// authorize the mint authority.
func (c Controller) MintTo(db custody.KVStore, mint, to custody.Address, amount uint64, auth custody.Authority) error {
	m, err := c.Mint(db, mint)
	if err != nil {
		return err
	}
	if !auth.Authorizes(m.Authority) {
		return errors.Wrap(errors.ErrUnauthorized, "mint authority")
	}
	dst, err := c.TokenAccount(db, to)
	if err != nil {
		return err
	}
	if dst.Mint != mint {
		return errors.Wrapf(errors.ErrInvalidInput, "%s is not an account of mint %s", to, mint)
	}
	if m.Supply > math.MaxUint64-amount || dst.Amount > math.MaxUint64-amount {
		return errors.Wrap(errors.ErrOverflow, "supply")
	}
	m.Supply += amount
	dst.Amount += amount
	if err := c.mints.Save(db, mint, m); err != nil {
		return err
	}
	return c.tokens.Save(db, to, dst)
}

// InitAccount creates a token account at given address. The authority must
// authorize both the payer, who funds the account reserve, and the new
// account address.
func (c Controller) InitAccount(db custody.KVStore, account, mint, owner, payer custody.Address, auth custody.Authority) error {
	if !auth.Authorizes(account) {
		return errors.Wrapf(errors.ErrUnauthorized, "cannot create account %s", account)
	}
	return c.createTokenAccount(db, account, mint, owner, payer, auth)
}

func (c Controller) createTokenAccount(db custody.KVStore, account, mint, owner, payer custody.Address, auth custody.Authority) error {
	if _, err := c.Mint(db, mint); err != nil {
		return err
	}
	if ok, err := c.tokens.Has(db, account); err != nil {
		return err
	} else if ok {
		return errors.Wrapf(errors.ErrDuplicate, "token account %s", account)
	}
	if err := c.TransferLamports(db, payer, account, c.reserve, auth); err != nil {
		return errors.Wrap(err, "account reserve")
	}
	return c.tokens.Create(db, account, &TokenAccount{Mint: mint, Owner: owner})
}

// EnsureAssociatedAccount returns the associated token account of owner for
// mint, creating it at the payer's expense if it does not exist yet.
func (c Controller) EnsureAssociatedAccount(db custody.KVStore, owner, mint, payer custody.Address, auth custody.Authority) (custody.Address, error) {
	addr, err := AssociatedTokenAddress(owner, mint)
	if err != nil {
		return addr, err
	}
	ok, err := c.tokens.Has(db, addr)
	if err != nil {
		return addr, err
	}
	if !ok {
		return addr, c.createTokenAccount(db, addr, mint, owner, payer, auth)
	}
	acc, err := c.TokenAccount(db, addr)
	if err != nil {
		return addr, err
	}
	if acc.Mint != mint || acc.Owner != owner {
		return addr, errors.Wrapf(errors.ErrInvalidState, "associated account %s", addr)
	}
	return addr, nil
}

// Transfer moves tokens between two accounts of the same mint. The
// authority must authorize the owner of the source account.
func (c Controller) Transfer(db custody.KVStore, from, to custody.Address, amount uint64, auth custody.Authority) error {
	src, err := c.TokenAccount(db, from)
	if err != nil {
		return errors.Wrap(err, "source")
	}
	dst, err := c.TokenAccount(db, to)
	if err != nil {
		return errors.Wrap(err, "destination")
	}
	if src.Mint != dst.Mint {
		return errors.Wrap(errors.ErrInvalidInput, "mint mismatch")
	}
	if !auth.Authorizes(src.Owner) {
		return errors.Wrapf(errors.ErrUnauthorized, "owner of %s", from)
	}
	if src.Amount < amount {
		return errors.Wrapf(errors.ErrInsufficientFunds, "%s holds %d, need %d", from, src.Amount, amount)
	}
	if from == to {
		return nil
	}
	if dst.Amount > math.MaxUint64-amount {
		return errors.Wrap(errors.ErrOverflow, "destination amount")
	}
	src.Amount -= amount
	dst.Amount += amount
	if err := c.tokens.Save(db, from, src); err != nil {
		return err
	}
	return c.tokens.Save(db, to, dst)
}

// TransferChecked is Transfer that additionally verifies the mint and its
// decimals, so that a caller cannot be tricked into moving a different
// token or amount scale.
func (c Controller) TransferChecked(db custody.KVStore, from, mint, to custody.Address, amount uint64, decimals uint8, auth custody.Authority) error {
	m, err := c.Mint(db, mint)
	if err != nil {
		return err
	}
	if m.Decimals != decimals {
		return errors.Wrapf(errors.ErrInvalidInput, "mint has %d decimals, got %d", m.Decimals, decimals)
	}
	src, err := c.TokenAccount(db, from)
	if err != nil {
		return errors.Wrap(err, "source")
	}
	if src.Mint != mint {
		return errors.Wrap(errors.ErrInvalidInput, "mint mismatch")
	}
	return c.Transfer(db, from, to, amount, auth)
}

// CloseAccount removes an empty token account and moves its reserve to the
// destination. The authority must authorize the account owner.
func (c Controller) CloseAccount(db custody.KVStore, account, destination custody.Address, auth custody.Authority) error {
	acc, err := c.TokenAccount(db, account)
	if err != nil {
		return err
	}
	if !auth.Authorizes(acc.Owner) {
		return errors.Wrapf(errors.ErrUnauthorized, "owner of %s", account)
	}
	if acc.Amount != 0 {
		return errors.Wrapf(errors.ErrInvalidState, "%s still holds %d", account, acc.Amount)
	}
	lamports, err := c.Balance(db, account)
	if err != nil {
		return err
	}
	if err := c.TransferLamports(db, account, destination, lamports, custody.SignedBy(account)); err != nil {
		return err
	}
	if err := c.accounts.Delete(db, account); err != nil && !errors.ErrNotFound.Is(err) {
		return err
	}
	return c.tokens.Delete(db, account)
}
