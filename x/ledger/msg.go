package ledger

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/errors"
)

const (
	pathSendMsg             = "ledger/send"
	pathTransferMsg         = "ledger/transfer"
	pathCreateAssociatedMsg = "ledger/create_associated"
	pathCreateMintMsg       = "ledger/create_mint"
	pathMintToMsg           = "ledger/mint_to"
)

var (
	sendDiscriminator             = codec.InstructionDiscriminator("send")
	transferDiscriminator         = codec.InstructionDiscriminator("transfer")
	createAssociatedDiscriminator = codec.InstructionDiscriminator("create_associated")
	createMintDiscriminator       = codec.InstructionDiscriminator("create_mint")
	mintToDiscriminator           = codec.InstructionDiscriminator("mint_to")
)

const (
	sendMsgSize             = codec.DiscriminatorLength + 2*codec.SizeAddress + codec.SizeUint64
	transferMsgSize         = codec.DiscriminatorLength + 3*codec.SizeAddress + codec.SizeUint64
	createAssociatedMsgSize = codec.DiscriminatorLength + 3*codec.SizeAddress
	createMintMsgSize       = codec.DiscriminatorLength + 2*codec.SizeAddress + codec.SizeUint8
	mintToMsgSize           = codec.DiscriminatorLength + 3*codec.SizeAddress + codec.SizeUint64
)

// RegisterCodec binds all ledger instructions to their paths.
func RegisterCodec(r *codec.Registry) {
	r.Register(pathSendMsg, func() custody.Msg { return &SendMsg{} })
	r.Register(pathTransferMsg, func() custody.Msg { return &TransferMsg{} })
	r.Register(pathCreateAssociatedMsg, func() custody.Msg { return &CreateAssociatedMsg{} })
	r.Register(pathCreateMintMsg, func() custody.Msg { return &CreateMintMsg{} })
	r.Register(pathMintToMsg, func() custody.Msg { return &MintToMsg{} })
}

// SendMsg moves lamports between two native balances.
type SendMsg struct {
	From   custody.Address `json:"from"`
	To     custody.Address `json:"to"`
	Amount uint64          `json:"amount"`
}

var _ custody.Msg = (*SendMsg)(nil)

func (SendMsg) Path() string { return pathSendMsg }

func (m *SendMsg) Validate() error {
	if err := m.From.Validate(); err != nil {
		return errors.Wrap(err, "from")
	}
	if err := m.To.Validate(); err != nil {
		return errors.Wrap(err, "to")
	}
	if m.Amount == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "zero amount")
	}
	return nil
}

func (m *SendMsg) Marshal() ([]byte, error) {
	return codec.NewWriter(sendDiscriminator, sendMsgSize).
		Address(m.From).
		Address(m.To).
		Uint64(m.Amount).
		Bytes(), nil
}

func (m *SendMsg) Unmarshal(raw []byte) error {
	r := codec.NewReader(sendDiscriminator, raw, sendMsgSize)
	r.Address(&m.From)
	r.Address(&m.To)
	r.Uint64(&m.Amount)
	return r.Err()
}

// TransferMsg moves tokens between two token accounts of the same mint.
type TransferMsg struct {
	Owner  custody.Address `json:"owner"`
	From   custody.Address `json:"from"`
	To     custody.Address `json:"to"`
	Amount uint64          `json:"amount"`
}

var _ custody.Msg = (*TransferMsg)(nil)

func (TransferMsg) Path() string { return pathTransferMsg }

func (m *TransferMsg) Validate() error {
	if err := m.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if err := m.From.Validate(); err != nil {
		return errors.Wrap(err, "from")
	}
	if err := m.To.Validate(); err != nil {
		return errors.Wrap(err, "to")
	}
	if m.Amount == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "zero amount")
	}
	return nil
}

func (m *TransferMsg) Marshal() ([]byte, error) {
	return codec.NewWriter(transferDiscriminator, transferMsgSize).
		Address(m.Owner).
		Address(m.From).
		Address(m.To).
		Uint64(m.Amount).
		Bytes(), nil
}

func (m *TransferMsg) Unmarshal(raw []byte) error {
	r := codec.NewReader(transferDiscriminator, raw, transferMsgSize)
	r.Address(&m.Owner)
	r.Address(&m.From)
	r.Address(&m.To)
	r.Uint64(&m.Amount)
	return r.Err()
}

// CreateAssociatedMsg creates the associated token account of an owner for
// a mint. The payer funds the account reserve.
type CreateAssociatedMsg struct {
	Payer custody.Address `json:"payer"`
	Owner custody.Address `json:"owner"`
	Mint  custody.Address `json:"mint"`
}

var _ custody.Msg = (*CreateAssociatedMsg)(nil)

func (CreateAssociatedMsg) Path() string { return pathCreateAssociatedMsg }

func (m *CreateAssociatedMsg) Validate() error {
	if err := m.Payer.Validate(); err != nil {
		return errors.Wrap(err, "payer")
	}
	if err := m.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if err := m.Mint.Validate(); err != nil {
		return errors.Wrap(err, "mint")
	}
	return nil
}

func (m *CreateAssociatedMsg) Marshal() ([]byte, error) {
	return codec.NewWriter(createAssociatedDiscriminator, createAssociatedMsgSize).
		Address(m.Payer).
		Address(m.Owner).
		Address(m.Mint).
		Bytes(), nil
}

func (m *CreateAssociatedMsg) Unmarshal(raw []byte) error {
	r := codec.NewReader(createAssociatedDiscriminator, raw, createAssociatedMsgSize)
	r.Address(&m.Payer)
	r.Address(&m.Owner)
	r.Address(&m.Mint)
	return r.Err()
}

// CreateMintMsg registers a new mint at a fresh address. Both the mint
// address and the authority sign.
type CreateMintMsg struct {
	Authority custody.Address `json:"authority"`
	Mint      custody.Address `json:"mint"`
	Decimals  uint8           `json:"decimals"`
}

var _ custody.Msg = (*CreateMintMsg)(nil)

func (CreateMintMsg) Path() string { return pathCreateMintMsg }

func (m *CreateMintMsg) Validate() error {
	if err := m.Authority.Validate(); err != nil {
		return errors.Wrap(err, "authority")
	}
	if err := m.Mint.Validate(); err != nil {
		return errors.Wrap(err, "mint")
	}
	return nil
}

func (m *CreateMintMsg) Marshal() ([]byte, error) {
	return codec.NewWriter(createMintDiscriminator, createMintMsgSize).
		Address(m.Authority).
		Address(m.Mint).
		Uint8(m.Decimals).
		Bytes(), nil
}

func (m *CreateMintMsg) Unmarshal(raw []byte) error {
	r := codec.NewReader(createMintDiscriminator, raw, createMintMsgSize)
	r.Address(&m.Authority)
	r.Address(&m.Mint)
	r.Uint8(&m.Decimals)
	return r.Err()
}

// MintToMsg issues tokens into the associated account of Owner, creating
// it at the authority's expense if needed.
type MintToMsg struct {
	Authority custody.Address `json:"authority"`
	Mint      custody.Address `json:"mint"`
	Owner     custody.Address `json:"owner"`
	Amount    uint64          `json:"amount"`
}

var _ custody.Msg = (*MintToMsg)(nil)

func (MintToMsg) Path() string { return pathMintToMsg }

func (m *MintToMsg) Validate() error {
	if err := m.Authority.Validate(); err != nil {
		return errors.Wrap(err, "authority")
	}
	if err := m.Mint.Validate(); err != nil {
		return errors.Wrap(err, "mint")
	}
	if err := m.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if m.Amount == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "zero amount")
	}
	return nil
}

func (m *MintToMsg) Marshal() ([]byte, error) {
	return codec.NewWriter(mintToDiscriminator, mintToMsgSize).
		Address(m.Authority).
		Address(m.Mint).
		Address(m.Owner).
		Uint64(m.Amount).
		Bytes(), nil
}

func (m *MintToMsg) Unmarshal(raw []byte) error {
	r := codec.NewReader(mintToDiscriminator, raw, mintToMsgSize)
	r.Address(&m.Authority)
	r.Address(&m.Mint)
	r.Address(&m.Owner)
	r.Uint64(&m.Amount)
	return r.Err()
}
