package escrow

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

// Seeds namespacing the addresses derived for an escrow.
const (
	AuthTag   = "auth"
	EscrowTag = "escrow"
	VaultTag  = "vault"
)

var escrowDiscriminator = codec.AccountDiscriminator("Escrow")

// EscrowSize is the byte size of a stored Escrow.
const EscrowSize = codec.DiscriminatorLength + 3*codec.SizeAddress + 3*codec.SizeUint64 + 3*codec.SizeUint8

// Escrow is the record of an open escrow, stored under its derived
// address.
type Escrow struct {
	Maker custody.Address `json:"maker"`
	// MakerAsset is the mint of the deposit held in the vault.
	MakerAsset custody.Address `json:"maker_asset"`
	// TakerAsset is the mint the maker asks for.
	TakerAsset  custody.Address `json:"taker_asset"`
	Seed        uint64          `json:"seed"`
	OfferAmount uint64          `json:"offer_amount"`
	// Expiry is the slot from which the escrow can no longer be taken.
	// Zero never expires.
	Expiry     uint64 `json:"expiry"`
	AuthBump   uint8  `json:"auth_bump"`
	VaultBump  uint8  `json:"vault_bump"`
	EscrowBump uint8  `json:"escrow_bump"`
}

var _ orm.Model = (*Escrow)(nil)

func (e *Escrow) Marshal() ([]byte, error) {
	return codec.NewWriter(escrowDiscriminator, EscrowSize).
		Address(e.Maker).
		Address(e.MakerAsset).
		Address(e.TakerAsset).
		Uint64(e.Seed).
		Uint64(e.OfferAmount).
		Uint64(e.Expiry).
		Uint8(e.AuthBump).
		Uint8(e.VaultBump).
		Uint8(e.EscrowBump).
		Bytes(), nil
}

func (e *Escrow) Unmarshal(raw []byte) error {
	r := codec.NewReader(escrowDiscriminator, raw, EscrowSize)
	r.Address(&e.Maker)
	r.Address(&e.MakerAsset)
	r.Address(&e.TakerAsset)
	r.Uint64(&e.Seed)
	r.Uint64(&e.OfferAmount)
	r.Uint64(&e.Expiry)
	r.Uint8(&e.AuthBump)
	r.Uint8(&e.VaultBump)
	r.Uint8(&e.EscrowBump)
	return r.Err()
}

// Validate ensures the escrow is valid
func (e *Escrow) Validate() error {
	if err := e.Maker.Validate(); err != nil {
		return errors.Wrap(err, "maker")
	}
	if err := e.MakerAsset.Validate(); err != nil {
		return errors.Wrap(err, "maker asset")
	}
	if err := e.TakerAsset.Validate(); err != nil {
		return errors.Wrap(err, "taker asset")
	}
	if e.OfferAmount == 0 {
		return errors.Wrap(errors.ErrInvalidModel, "zero offer amount")
	}
	return nil
}

// NewBucket returns the bucket of escrows.
func NewBucket() orm.Bucket {
	return orm.NewBucket("escrow", EscrowSize)
}

// escrowSeeds returns the seeds of the escrow address, without its tag.
func escrowSeeds(maker custody.Address, seed uint64) [][]byte {
	return [][]byte{maker[:], custody.SeedUint64(seed)}
}

// Addresses returns the auth, escrow and vault addresses of the escrow
// identified by given maker and seed.
func Addresses(programID, maker custody.Address, seed uint64) (auth, escrow, vault custody.Address, err error) {
	if auth, _, err = custody.Derive(programID, AuthTag); err != nil {
		return
	}
	if escrow, _, err = custody.Derive(programID, EscrowTag, escrowSeeds(maker, seed)...); err != nil {
		return
	}
	vault, _, err = custody.Derive(programID, VaultTag, escrow[:])
	return
}
