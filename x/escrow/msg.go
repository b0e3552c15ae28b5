package escrow

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x"
)

const (
	pathMakeMsg   = "escrow/make"
	pathUpdateMsg = "escrow/update"
	pathTakeMsg   = "escrow/take"
	pathRefundMsg = "escrow/refund"
)

var (
	makeDiscriminator   = codec.InstructionDiscriminator("make")
	updateDiscriminator = codec.InstructionDiscriminator("update")
	takeDiscriminator   = codec.InstructionDiscriminator("take")
	refundDiscriminator = codec.InstructionDiscriminator("refund")
)

const (
	makeMsgSize   = codec.DiscriminatorLength + 7*codec.SizeAddress + 4*codec.SizeUint64
	updateMsgSize = codec.DiscriminatorLength + 3*codec.SizeAddress + 2*codec.SizeUint64
	takeMsgSize   = codec.DiscriminatorLength + 10*codec.SizeAddress
	refundMsgSize = codec.DiscriminatorLength + 6*codec.SizeAddress
)

// RegisterCodec binds all escrow instructions to their paths.
func RegisterCodec(r *codec.Registry) {
	r.Register(pathMakeMsg, func() custody.Msg { return &MakeMsg{} })
	r.Register(pathUpdateMsg, func() custody.Msg { return &UpdateMsg{} })
	r.Register(pathTakeMsg, func() custody.Msg { return &TakeMsg{} })
	r.Register(pathRefundMsg, func() custody.Msg { return &RefundMsg{} })
}

// MakeMsg opens an escrow. DepositAmount of MakerAsset moves from
// MakerToken into the vault, OfferAmount of TakerAsset is asked in return.
// Expiry is relative to the current slot, zero never expires.
type MakeMsg struct {
	Maker         custody.Address `json:"maker"`
	MakerAsset    custody.Address `json:"maker_asset"`
	TakerAsset    custody.Address `json:"taker_asset"`
	MakerToken    custody.Address `json:"maker_token"`
	Auth          custody.Address `json:"auth"`
	Escrow        custody.Address `json:"escrow"`
	Vault         custody.Address `json:"vault"`
	Seed          uint64          `json:"seed"`
	DepositAmount uint64          `json:"deposit_amount"`
	OfferAmount   uint64          `json:"offer_amount"`
	Expiry        uint64          `json:"expiry"`
}

var _ custody.Msg = (*MakeMsg)(nil)

func (MakeMsg) Path() string { return pathMakeMsg }

func (m *MakeMsg) Validate() error {
	err := x.ValidateAddresses(
		x.Named("maker", m.Maker),
		x.Named("maker asset", m.MakerAsset),
		x.Named("taker asset", m.TakerAsset),
		x.Named("maker token", m.MakerToken),
		x.Named("auth", m.Auth),
		x.Named("escrow", m.Escrow),
		x.Named("vault", m.Vault),
	)
	if err != nil {
		return err
	}
	if err := x.ValidateAmount(m.DepositAmount); err != nil {
		return errors.Wrap(err, "deposit")
	}
	return errors.Wrap(x.ValidateAmount(m.OfferAmount), "offer")
}

func (m *MakeMsg) Marshal() ([]byte, error) {
	return codec.NewWriter(makeDiscriminator, makeMsgSize).
		Address(m.Maker).
		Address(m.MakerAsset).
		Address(m.TakerAsset).
		Address(m.MakerToken).
		Address(m.Auth).
		Address(m.Escrow).
		Address(m.Vault).
		Uint64(m.Seed).
		Uint64(m.DepositAmount).
		Uint64(m.OfferAmount).
		Uint64(m.Expiry).
		Bytes(), nil
}

func (m *MakeMsg) Unmarshal(raw []byte) error {
	r := codec.NewReader(makeDiscriminator, raw, makeMsgSize)
	r.Address(&m.Maker)
	r.Address(&m.MakerAsset)
	r.Address(&m.TakerAsset)
	r.Address(&m.MakerToken)
	r.Address(&m.Auth)
	r.Address(&m.Escrow)
	r.Address(&m.Vault)
	r.Uint64(&m.Seed)
	r.Uint64(&m.DepositAmount)
	r.Uint64(&m.OfferAmount)
	r.Uint64(&m.Expiry)
	return r.Err()
}

// UpdateMsg replaces the ask of an open escrow. A zero NewTakerAsset keeps
// the recorded one.
type UpdateMsg struct {
	Maker         custody.Address `json:"maker"`
	Escrow        custody.Address `json:"escrow"`
	NewTakerAsset custody.Address `json:"new_taker_asset"`
	OfferAmount   uint64          `json:"offer_amount"`
	Expiry        uint64          `json:"expiry"`
}

var _ custody.Msg = (*UpdateMsg)(nil)

func (UpdateMsg) Path() string { return pathUpdateMsg }

func (m *UpdateMsg) Validate() error {
	if err := x.ValidateAddresses(x.Named("maker", m.Maker), x.Named("escrow", m.Escrow)); err != nil {
		return err
	}
	return errors.Wrap(x.ValidateAmount(m.OfferAmount), "offer")
}

func (m *UpdateMsg) Marshal() ([]byte, error) {
	return codec.NewWriter(updateDiscriminator, updateMsgSize).
		Address(m.Maker).
		Address(m.Escrow).
		Address(m.NewTakerAsset).
		Uint64(m.OfferAmount).
		Uint64(m.Expiry).
		Bytes(), nil
}

func (m *UpdateMsg) Unmarshal(raw []byte) error {
	r := codec.NewReader(updateDiscriminator, raw, updateMsgSize)
	r.Address(&m.Maker)
	r.Address(&m.Escrow)
	r.Address(&m.NewTakerAsset)
	r.Uint64(&m.OfferAmount)
	r.Uint64(&m.Expiry)
	return r.Err()
}

// TakeMsg settles an escrow. TakerToken pays the ask into MakerReceive
// and the vault content goes to TakerReceive. Both receive accounts are
// associated token accounts and are created at the taker's expense when
// missing.
type TakeMsg struct {
	Taker        custody.Address `json:"taker"`
	Maker        custody.Address `json:"maker"`
	MakerAsset   custody.Address `json:"maker_asset"`
	TakerAsset   custody.Address `json:"taker_asset"`
	TakerToken   custody.Address `json:"taker_token"`
	TakerReceive custody.Address `json:"taker_receive"`
	MakerReceive custody.Address `json:"maker_receive"`
	Auth         custody.Address `json:"auth"`
	Escrow       custody.Address `json:"escrow"`
	Vault        custody.Address `json:"vault"`
}

var _ custody.Msg = (*TakeMsg)(nil)

func (TakeMsg) Path() string { return pathTakeMsg }

func (m *TakeMsg) Validate() error {
	return x.ValidateAddresses(
		x.Named("taker", m.Taker),
		x.Named("maker", m.Maker),
		x.Named("maker asset", m.MakerAsset),
		x.Named("taker asset", m.TakerAsset),
		x.Named("taker token", m.TakerToken),
		x.Named("taker receive", m.TakerReceive),
		x.Named("maker receive", m.MakerReceive),
		x.Named("auth", m.Auth),
		x.Named("escrow", m.Escrow),
		x.Named("vault", m.Vault),
	)
}

func (m *TakeMsg) Marshal() ([]byte, error) {
	return codec.NewWriter(takeDiscriminator, takeMsgSize).
		Address(m.Taker).
		Address(m.Maker).
		Address(m.MakerAsset).
		Address(m.TakerAsset).
		Address(m.TakerToken).
		Address(m.TakerReceive).
		Address(m.MakerReceive).
		Address(m.Auth).
		Address(m.Escrow).
		Address(m.Vault).
		Bytes(), nil
}

func (m *TakeMsg) Unmarshal(raw []byte) error {
	r := codec.NewReader(takeDiscriminator, raw, takeMsgSize)
	r.Address(&m.Taker)
	r.Address(&m.Maker)
	r.Address(&m.MakerAsset)
	r.Address(&m.TakerAsset)
	r.Address(&m.TakerToken)
	r.Address(&m.TakerReceive)
	r.Address(&m.MakerReceive)
	r.Address(&m.Auth)
	r.Address(&m.Escrow)
	r.Address(&m.Vault)
	return r.Err()
}

// RefundMsg cancels an escrow, returning the deposit to MakerToken.
type RefundMsg struct {
	Maker      custody.Address `json:"maker"`
	MakerAsset custody.Address `json:"maker_asset"`
	MakerToken custody.Address `json:"maker_token"`
	Auth       custody.Address `json:"auth"`
	Escrow     custody.Address `json:"escrow"`
	Vault      custody.Address `json:"vault"`
}

var _ custody.Msg = (*RefundMsg)(nil)

func (RefundMsg) Path() string { return pathRefundMsg }

func (m *RefundMsg) Validate() error {
	return x.ValidateAddresses(
		x.Named("maker", m.Maker),
		x.Named("maker asset", m.MakerAsset),
		x.Named("maker token", m.MakerToken),
		x.Named("auth", m.Auth),
		x.Named("escrow", m.Escrow),
		x.Named("vault", m.Vault),
	)
}

func (m *RefundMsg) Marshal() ([]byte, error) {
	return codec.NewWriter(refundDiscriminator, refundMsgSize).
		Address(m.Maker).
		Address(m.MakerAsset).
		Address(m.MakerToken).
		Address(m.Auth).
		Address(m.Escrow).
		Address(m.Vault).
		Bytes(), nil
}

func (m *RefundMsg) Unmarshal(raw []byte) error {
	r := codec.NewReader(refundDiscriminator, raw, refundMsgSize)
	r.Address(&m.Maker)
	r.Address(&m.MakerAsset)
	r.Address(&m.MakerToken)
	r.Address(&m.Auth)
	r.Address(&m.Escrow)
	r.Address(&m.Vault)
	return r.Err()
}
