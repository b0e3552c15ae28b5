package ledger

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

var (
	// SystemProgramID owns all native balances.
	SystemProgramID = custody.MustParseAddress("11111111111111111111111111111111")
	// TokenProgramID owns all mints and token accounts.
	TokenProgramID = custody.MustParseAddress("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	// AssociatedTokenProgramID derives the canonical token account of an
	// owner for a mint.
	AssociatedTokenProgramID = custody.MustParseAddress("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
)

var (
	accountDiscriminator = codec.AccountDiscriminator("Account")
	mintDiscriminator    = codec.AccountDiscriminator("Mint")
	tokenDiscriminator   = codec.AccountDiscriminator("TokenAccount")
)

// Record sizes in bytes.
const (
	AccountSize      = codec.DiscriminatorLength + codec.SizeUint64
	MintSize         = codec.DiscriminatorLength + codec.SizeAddress + codec.SizeUint64 + codec.SizeUint8
	TokenAccountSize = codec.DiscriminatorLength + 2*codec.SizeAddress + codec.SizeUint64
)

// MaxDecimals is the highest precision a mint can declare.
const MaxDecimals = 18

// Account is a native balance.
type Account struct {
	Lamports uint64
}

var _ orm.Model = (*Account)(nil)

func (a *Account) Marshal() ([]byte, error) {
	return codec.NewWriter(accountDiscriminator, AccountSize).Uint64(a.Lamports).Bytes(), nil
}

func (a *Account) Unmarshal(raw []byte) error {
	r := codec.NewReader(accountDiscriminator, raw, AccountSize)
	r.Uint64(&a.Lamports)
	return r.Err()
}

func (a *Account) Validate() error {
	return nil
}

// Mint defines a token.
type Mint struct {
	// Authority is the only identity allowed to issue new tokens.
	Authority custody.Address
	Supply    uint64
	Decimals  uint8
}

var _ orm.Model = (*Mint)(nil)

func (m *Mint) Marshal() ([]byte, error) {
	return codec.NewWriter(mintDiscriminator, MintSize).
		Address(m.Authority).
		Uint64(m.Supply).
		Uint8(m.Decimals).
		Bytes(), nil
}

func (m *Mint) Unmarshal(raw []byte) error {
	r := codec.NewReader(mintDiscriminator, raw, MintSize)
	r.Address(&m.Authority)
	r.Uint64(&m.Supply)
	r.Uint8(&m.Decimals)
	return r.Err()
}

func (m *Mint) Validate() error {
	if err := m.Authority.Validate(); err != nil {
		return errors.Wrap(err, "authority")
	}
	if m.Decimals > MaxDecimals {
		return errors.Wrapf(errors.ErrInvalidModel, "decimals %d", m.Decimals)
	}
	return nil
}

// TokenAccount holds an amount of a single mint on behalf of its owner.
type TokenAccount struct {
	Mint   custody.Address
	Owner  custody.Address
	Amount uint64
}

var _ orm.Model = (*TokenAccount)(nil)

func (t *TokenAccount) Marshal() ([]byte, error) {
	return codec.NewWriter(tokenDiscriminator, TokenAccountSize).
		Address(t.Mint).
		Address(t.Owner).
		Uint64(t.Amount).
		Bytes(), nil
}

func (t *TokenAccount) Unmarshal(raw []byte) error {
	r := codec.NewReader(tokenDiscriminator, raw, TokenAccountSize)
	r.Address(&t.Mint)
	r.Address(&t.Owner)
	r.Uint64(&t.Amount)
	return r.Err()
}

func (t *TokenAccount) Validate() error {
	if err := t.Mint.Validate(); err != nil {
		return errors.Wrap(err, "mint")
	}
	if err := t.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	return nil
}

// NewAccountBucket returns the bucket of native balances.
func NewAccountBucket() orm.Bucket {
	return orm.NewBucket("lamports", AccountSize)
}

// NewMintBucket returns the bucket of mints.
func NewMintBucket() orm.Bucket {
	return orm.NewBucket("mint", MintSize)
}

// NewTokenBucket returns the bucket of token accounts.
func NewTokenBucket() orm.Bucket {
	return orm.NewBucket("token", TokenAccountSize)
}

// AssociatedTokenAddress returns the canonical token account address of an
// owner for a mint.
func AssociatedTokenAddress(owner, mint custody.Address) (custody.Address, error) {
	addr, _, err := custody.FindProgramAddress(AssociatedTokenProgramID, owner[:], TokenProgramID[:], mint[:])
	return addr, err
}
