package exchange

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

const (
	AuthorityTag = "authority"
	StateTag     = "state"
	VaultTag     = "vault"
)

var stateDiscriminator = codec.AccountDiscriminator("EscrowState")

// ExchangeSize is the byte size of a stored Exchange.
const ExchangeSize = codec.DiscriminatorLength + 2*codec.SizeUint64 + 3*codec.SizeAddress + codec.SizeUint64 + 3*codec.SizeUint8

// Exchange is an open swap offer.
type Exchange struct {
	Seed        uint64          `json:"seed"`
	Initializer custody.Address `json:"initializer"`
	// DepositAccount is the token account the locked amount came from and
	// returns to on cancel.
	DepositAccount custody.Address `json:"deposit_account"`
	// ReceiveAccount is credited with TakerAmount on exchange.
	ReceiveAccount    custody.Address `json:"receive_account"`
	InitializerAmount uint64          `json:"initializer_amount"`
	TakerAmount       uint64          `json:"taker_amount"`
	AuthorityBump     uint8           `json:"authority_bump"`
	VaultBump         uint8           `json:"vault_bump"`
	StateBump         uint8           `json:"state_bump"`
}

var _ orm.Model = (*Exchange)(nil)

func (e *Exchange) Marshal() ([]byte, error) {
	return codec.NewWriter(stateDiscriminator, ExchangeSize).
		Uint64(e.Seed).
		Address(e.Initializer).
		Address(e.DepositAccount).
		Address(e.ReceiveAccount).
		Uint64(e.InitializerAmount).
		Uint64(e.TakerAmount).
		Uint8(e.AuthorityBump).
		Uint8(e.VaultBump).
		Uint8(e.StateBump).
		Bytes(), nil
}

func (e *Exchange) Unmarshal(raw []byte) error {
	r := codec.NewReader(stateDiscriminator, raw, ExchangeSize)
	r.Uint64(&e.Seed)
	r.Address(&e.Initializer)
	r.Address(&e.DepositAccount)
	r.Address(&e.ReceiveAccount)
	r.Uint64(&e.InitializerAmount)
	r.Uint64(&e.TakerAmount)
	r.Uint8(&e.AuthorityBump)
	r.Uint8(&e.VaultBump)
	r.Uint8(&e.StateBump)
	return r.Err()
}

func (e *Exchange) Validate() error {
	if err := e.Initializer.Validate(); err != nil {
		return errors.Wrap(err, "initializer")
	}
	if err := e.DepositAccount.Validate(); err != nil {
		return errors.Wrap(err, "deposit account")
	}
	if err := e.ReceiveAccount.Validate(); err != nil {
		return errors.Wrap(err, "receive account")
	}
	if e.InitializerAmount == 0 || e.TakerAmount == 0 {
		return errors.Wrap(errors.ErrInvalidModel, "zero amount")
	}
	return nil
}

// NewBucket returns the bucket of open exchanges.
func NewBucket() orm.Bucket {
	return orm.NewBucket("exchange", ExchangeSize)
}

// Addresses returns the authority, state and vault addresses of the
// exchange opened with given seed.
func Addresses(programID custody.Address, seed uint64) (authority, state, vault custody.Address, err error) {
	if authority, _, err = custody.Derive(programID, AuthorityTag); err != nil {
		return
	}
	if state, _, err = custody.Derive(programID, StateTag, custody.SeedUint64(seed)); err != nil {
		return
	}
	vault, _, err = custody.Derive(programID, VaultTag, state[:])
	return
}
