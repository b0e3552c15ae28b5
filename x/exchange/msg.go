package exchange

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x"
)

const (
	pathInitializeMsg = "exchange/initialize"
	pathCancelMsg     = "exchange/cancel"
	pathExchangeMsg   = "exchange/exchange"
)

var (
	initializeDiscriminator = codec.InstructionDiscriminator("initialize")
	cancelDiscriminator     = codec.InstructionDiscriminator("cancel")
	exchangeMsgDiscriminator  = codec.InstructionDiscriminator("exchange")
)

const (
	initializeMsgSize = codec.DiscriminatorLength + 7*codec.SizeAddress + 3*codec.SizeUint64
	cancelMsgSize     = codec.DiscriminatorLength + 6*codec.SizeAddress
	exchangeMsgSize   = codec.DiscriminatorLength + 11*codec.SizeAddress
)

// RegisterCodec binds all exchange instructions to their paths.
func RegisterCodec(r *codec.Registry) {
	r.Register(pathInitializeMsg, func() custody.Msg { return &InitializeMsg{} })
	r.Register(pathCancelMsg, func() custody.Msg { return &CancelMsg{} })
	r.Register(pathExchangeMsg, func() custody.Msg { return &ExchangeMsg{} })
}

// InitializeMsg locks InitializerAmount of Mint from DepositAccount and
// asks TakerAmount to be paid into ReceiveAccount.
type InitializeMsg struct {
	Initializer       custody.Address `json:"initializer"`
	Mint              custody.Address `json:"mint"`
	Authority         custody.Address `json:"authority"`
	Vault             custody.Address `json:"vault"`
	DepositAccount    custody.Address `json:"deposit_account"`
	ReceiveAccount    custody.Address `json:"receive_account"`
	State             custody.Address `json:"state"`
	Seed              uint64          `json:"seed"`
	InitializerAmount uint64          `json:"initializer_amount"`
	TakerAmount       uint64          `json:"taker_amount"`
}

var _ custody.Msg = (*InitializeMsg)(nil)

func (InitializeMsg) Path() string { return pathInitializeMsg }

func (m *InitializeMsg) Validate() error {
	err := x.ValidateAddresses(
		x.Named("initializer", m.Initializer),
		x.Named("mint", m.Mint),
		x.Named("authority", m.Authority),
		x.Named("vault", m.Vault),
		x.Named("deposit account", m.DepositAccount),
		x.Named("receive account", m.ReceiveAccount),
		x.Named("state", m.State),
	)
	if err != nil {
		return err
	}
	if err := x.ValidateAmount(m.InitializerAmount); err != nil {
		return errors.Wrap(err, "initializer amount")
	}
	return errors.Wrap(x.ValidateAmount(m.TakerAmount), "taker amount")
}

func (m *InitializeMsg) Marshal() ([]byte, error) {
	return codec.NewWriter(initializeDiscriminator, initializeMsgSize).
		Address(m.Initializer).
		Address(m.Mint).
		Address(m.Authority).
		Address(m.Vault).
		Address(m.DepositAccount).
		Address(m.ReceiveAccount).
		Address(m.State).
		Uint64(m.Seed).
		Uint64(m.InitializerAmount).
		Uint64(m.TakerAmount).
		Bytes(), nil
}

func (m *InitializeMsg) Unmarshal(raw []byte) error {
	r := codec.NewReader(initializeDiscriminator, raw, initializeMsgSize)
	r.Address(&m.Initializer)
	r.Address(&m.Mint)
	r.Address(&m.Authority)
	r.Address(&m.Vault)
	r.Address(&m.DepositAccount)
	r.Address(&m.ReceiveAccount)
	r.Address(&m.State)
	r.Uint64(&m.Seed)
	r.Uint64(&m.InitializerAmount)
	r.Uint64(&m.TakerAmount)
	return r.Err()
}

// CancelMsg returns the locked amount to the initializer.
type CancelMsg struct {
	Initializer    custody.Address `json:"initializer"`
	Mint           custody.Address `json:"mint"`
	Vault          custody.Address `json:"vault"`
	Authority      custody.Address `json:"authority"`
	DepositAccount custody.Address `json:"deposit_account"`
	State          custody.Address `json:"state"`
}

var _ custody.Msg = (*CancelMsg)(nil)

func (CancelMsg) Path() string { return pathCancelMsg }

func (m *CancelMsg) Validate() error {
	return x.ValidateAddresses(
		x.Named("initializer", m.Initializer),
		x.Named("mint", m.Mint),
		x.Named("vault", m.Vault),
		x.Named("authority", m.Authority),
		x.Named("deposit account", m.DepositAccount),
		x.Named("state", m.State),
	)
}

func (m *CancelMsg) Marshal() ([]byte, error) {
	return codec.NewWriter(cancelDiscriminator, cancelMsgSize).
		Address(m.Initializer).
		Address(m.Mint).
		Address(m.Vault).
		Address(m.Authority).
		Address(m.DepositAccount).
		Address(m.State).
		Bytes(), nil
}

func (m *CancelMsg) Unmarshal(raw []byte) error {
	r := codec.NewReader(cancelDiscriminator, raw, cancelMsgSize)
	r.Address(&m.Initializer)
	r.Address(&m.Mint)
	r.Address(&m.Vault)
	r.Address(&m.Authority)
	r.Address(&m.DepositAccount)
	r.Address(&m.State)
	return r.Err()
}

// ExchangeMsg completes an exchange. The taker pays TakerAmount of
// TakerMint from TakerDeposit and receives the vault content in
// TakerReceive.
type ExchangeMsg struct {
	Taker              custody.Address `json:"taker"`
	Initializer        custody.Address `json:"initializer"`
	InitializerMint    custody.Address `json:"initializer_mint"`
	TakerMint          custody.Address `json:"taker_mint"`
	TakerDeposit       custody.Address `json:"taker_deposit"`
	TakerReceive       custody.Address `json:"taker_receive"`
	InitializerDeposit custody.Address `json:"initializer_deposit"`
	InitializerReceive custody.Address `json:"initializer_receive"`
	State              custody.Address `json:"state"`
	Vault              custody.Address `json:"vault"`
	Authority          custody.Address `json:"authority"`
}

var _ custody.Msg = (*ExchangeMsg)(nil)

func (ExchangeMsg) Path() string { return pathExchangeMsg }

func (m *ExchangeMsg) Validate() error {
	return x.ValidateAddresses(
		x.Named("taker", m.Taker),
		x.Named("initializer", m.Initializer),
		x.Named("initializer mint", m.InitializerMint),
		x.Named("taker mint", m.TakerMint),
		x.Named("taker deposit", m.TakerDeposit),
		x.Named("taker receive", m.TakerReceive),
		x.Named("initializer deposit", m.InitializerDeposit),
		x.Named("initializer receive", m.InitializerReceive),
		x.Named("state", m.State),
		x.Named("vault", m.Vault),
		x.Named("authority", m.Authority),
	)
}

func (m *ExchangeMsg) Marshal() ([]byte, error) {
	return codec.NewWriter(exchangeMsgDiscriminator, exchangeMsgSize).
		Address(m.Taker).
		Address(m.Initializer).
		Address(m.InitializerMint).
		Address(m.TakerMint).
		Address(m.TakerDeposit).
		Address(m.TakerReceive).
		Address(m.InitializerDeposit).
		Address(m.InitializerReceive).
		Address(m.State).
		Address(m.Vault).
		Address(m.Authority).
		Bytes(), nil
}

func (m *ExchangeMsg) Unmarshal(raw []byte) error {
	r := codec.NewReader(exchangeMsgDiscriminator, raw, exchangeMsgSize)
	r.Address(&m.Taker)
	r.Address(&m.Initializer)
	r.Address(&m.InitializerMint)
	r.Address(&m.TakerMint)
	r.Address(&m.TakerDeposit)
	r.Address(&m.TakerReceive)
	r.Address(&m.InitializerDeposit)
	r.Address(&m.InitializerReceive)
	r.Address(&m.State)
	r.Address(&m.Vault)
	r.Address(&m.Authority)
	return r.Err()
}
