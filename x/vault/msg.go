package vault

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/x"
)

const (
	pathInitializeMsg    = "vault/initialize"
	pathDepositMsg       = "vault/deposit"
	pathWithdrawMsg      = "vault/withdraw"
	pathDepositTokenMsg  = "vault/deposit_token"
	pathWithdrawTokenMsg = "vault/withdraw_token"
)

var (
	initializeDiscriminator    = codec.InstructionDiscriminator("initialize")
	depositDiscriminator       = codec.InstructionDiscriminator("deposit")
	withdrawDiscriminator      = codec.InstructionDiscriminator("withdraw")
	depositTokenDiscriminator  = codec.InstructionDiscriminator("deposit_spl")
	withdrawTokenDiscriminator = codec.InstructionDiscriminator("withdraw_spl")
)

const (
	nativeAccountsSize = 4 * codec.SizeAddress
	tokenAccountsSize  = 6 * codec.SizeAddress

	initializeMsgSize = codec.DiscriminatorLength + nativeAccountsSize
	nativeMsgSize     = codec.DiscriminatorLength + nativeAccountsSize + codec.SizeUint64
	tokenMsgSize      = codec.DiscriminatorLength + tokenAccountsSize + codec.SizeUint64
)

// RegisterCodec binds all vault instructions to their paths.
func RegisterCodec(r *codec.Registry) {
	r.Register(pathInitializeMsg, func() custody.Msg { return &InitializeMsg{} })
	r.Register(pathDepositMsg, func() custody.Msg { return &DepositMsg{} })
	r.Register(pathWithdrawMsg, func() custody.Msg { return &WithdrawMsg{} })
	r.Register(pathDepositTokenMsg, func() custody.Msg { return &DepositTokenMsg{} })
	r.Register(pathWithdrawTokenMsg, func() custody.Msg { return &WithdrawTokenMsg{} })
}

// NativeAccounts are the accounts referenced by native balance
// instructions.
type NativeAccounts struct {
	Owner custody.Address `json:"owner"`
	State custody.Address `json:"state"`
	Auth  custody.Address `json:"auth"`
	Vault custody.Address `json:"vault"`
}

func (a *NativeAccounts) validate() error {
	return x.ValidateAddresses(
		x.Named("owner", a.Owner),
		x.Named("state", a.State),
		x.Named("auth", a.Auth),
		x.Named("vault", a.Vault),
	)
}

func (a *NativeAccounts) write(w *codec.Writer) *codec.Writer {
	return w.Address(a.Owner).Address(a.State).Address(a.Auth).Address(a.Vault)
}

func (a *NativeAccounts) read(r *codec.Reader) {
	r.Address(&a.Owner)
	r.Address(&a.State)
	r.Address(&a.Auth)
	r.Address(&a.Vault)
}

// TokenAccounts are the accounts referenced by token instructions.
type TokenAccounts struct {
	Owner      custody.Address `json:"owner"`
	State      custody.Address `json:"state"`
	Auth       custody.Address `json:"auth"`
	Mint       custody.Address `json:"mint"`
	OwnerToken custody.Address `json:"owner_token"`
	VaultToken custody.Address `json:"vault_token"`
}

func (a *TokenAccounts) validate() error {
	return x.ValidateAddresses(
		x.Named("owner", a.Owner),
		x.Named("state", a.State),
		x.Named("auth", a.Auth),
		x.Named("mint", a.Mint),
		x.Named("owner token", a.OwnerToken),
		x.Named("vault token", a.VaultToken),
	)
}

func (a *TokenAccounts) write(w *codec.Writer) *codec.Writer {
	return w.Address(a.Owner).
		Address(a.State).
		Address(a.Auth).
		Address(a.Mint).
		Address(a.OwnerToken).
		Address(a.VaultToken)
}

func (a *TokenAccounts) read(r *codec.Reader) {
	r.Address(&a.Owner)
	r.Address(&a.State)
	r.Address(&a.Auth)
	r.Address(&a.Mint)
	r.Address(&a.OwnerToken)
	r.Address(&a.VaultToken)
}

// InitializeMsg creates a vault state owned by Owner. State is a fresh
// address and must sign as well.
type InitializeMsg struct {
	NativeAccounts
}

var _ custody.Msg = (*InitializeMsg)(nil)

func (InitializeMsg) Path() string { return pathInitializeMsg }

func (m *InitializeMsg) Validate() error {
	return m.validate()
}

func (m *InitializeMsg) Marshal() ([]byte, error) {
	return m.write(codec.NewWriter(initializeDiscriminator, initializeMsgSize)).Bytes(), nil
}

func (m *InitializeMsg) Unmarshal(raw []byte) error {
	r := codec.NewReader(initializeDiscriminator, raw, initializeMsgSize)
	m.read(r)
	return r.Err()
}

// DepositMsg moves lamports from Owner into the vault. Owner is the
// depositor and need not be the recorded vault owner.
type DepositMsg struct {
	NativeAccounts
	Amount uint64 `json:"amount"`
}

var _ custody.Msg = (*DepositMsg)(nil)

func (DepositMsg) Path() string { return pathDepositMsg }

func (m *DepositMsg) Validate() error {
	if err := m.validate(); err != nil {
		return err
	}
	return x.ValidateAmount(m.Amount)
}

func (m *DepositMsg) Marshal() ([]byte, error) {
	return m.write(codec.NewWriter(depositDiscriminator, nativeMsgSize)).Uint64(m.Amount).Bytes(), nil
}

func (m *DepositMsg) Unmarshal(raw []byte) error {
	r := codec.NewReader(depositDiscriminator, raw, nativeMsgSize)
	m.read(r)
	r.Uint64(&m.Amount)
	return r.Err()
}

// WithdrawMsg moves lamports from the vault back to the owner.
type WithdrawMsg struct {
	NativeAccounts
	Amount uint64 `json:"amount"`
}

var _ custody.Msg = (*WithdrawMsg)(nil)

func (WithdrawMsg) Path() string { return pathWithdrawMsg }

func (m *WithdrawMsg) Validate() error {
	if err := m.validate(); err != nil {
		return err
	}
	return x.ValidateAmount(m.Amount)
}

func (m *WithdrawMsg) Marshal() ([]byte, error) {
	return m.write(codec.NewWriter(withdrawDiscriminator, nativeMsgSize)).Uint64(m.Amount).Bytes(), nil
}

func (m *WithdrawMsg) Unmarshal(raw []byte) error {
	r := codec.NewReader(withdrawDiscriminator, raw, nativeMsgSize)
	m.read(r)
	r.Uint64(&m.Amount)
	return r.Err()
}

// DepositTokenMsg moves tokens from the depositor token account into the
// vault token account, creating the latter at the depositor's expense if
// needed.
type DepositTokenMsg struct {
	TokenAccounts
	Amount uint64 `json:"amount"`
}

var _ custody.Msg = (*DepositTokenMsg)(nil)

func (DepositTokenMsg) Path() string { return pathDepositTokenMsg }

func (m *DepositTokenMsg) Validate() error {
	if err := m.validate(); err != nil {
		return err
	}
	return x.ValidateAmount(m.Amount)
}

func (m *DepositTokenMsg) Marshal() ([]byte, error) {
	return m.write(codec.NewWriter(depositTokenDiscriminator, tokenMsgSize)).Uint64(m.Amount).Bytes(), nil
}

func (m *DepositTokenMsg) Unmarshal(raw []byte) error {
	r := codec.NewReader(depositTokenDiscriminator, raw, tokenMsgSize)
	m.read(r)
	r.Uint64(&m.Amount)
	return r.Err()
}

// WithdrawTokenMsg moves tokens from the vault token account back to the
// owner token account.
type WithdrawTokenMsg struct {
	TokenAccounts
	Amount uint64 `json:"amount"`
}

var _ custody.Msg = (*WithdrawTokenMsg)(nil)

func (WithdrawTokenMsg) Path() string { return pathWithdrawTokenMsg }

func (m *WithdrawTokenMsg) Validate() error {
	if err := m.validate(); err != nil {
		return err
	}
	return x.ValidateAmount(m.Amount)
}

func (m *WithdrawTokenMsg) Marshal() ([]byte, error) {
	return m.write(codec.NewWriter(withdrawTokenDiscriminator, tokenMsgSize)).Uint64(m.Amount).Bytes(), nil
}

func (m *WithdrawTokenMsg) Unmarshal(raw []byte) error {
	r := codec.NewReader(withdrawTokenDiscriminator, raw, tokenMsgSize)
	m.read(r)
	r.Uint64(&m.Amount)
	return r.Err()
}
