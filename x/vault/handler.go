package vault

import (
	"context"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
	"github.com/iov-one/custody/x"
	"github.com/iov-one/custody/x/ledger"
)

// RegisterRoutes will instantiate and register all handlers in this
// package.
func RegisterRoutes(r custody.Registry, auth x.Authenticator, conf Configuration, ctrl ledger.Controller) {
	base := handler{
		auth:      auth,
		bucket:    NewBucket(),
		programID: conf.ProgramID,
		ledger:    ctrl,
		transfers: x.NewTransfers(ctrl),
	}
	r.Handle(pathInitializeMsg, InitializeHandler{base})
	r.Handle(pathDepositMsg, DepositHandler{base})
	r.Handle(pathWithdrawMsg, WithdrawHandler{base})
	r.Handle(pathDepositTokenMsg, DepositTokenHandler{base})
	r.Handle(pathWithdrawTokenMsg, WithdrawTokenHandler{base})
}

// handler holds what all vault handlers share.
type handler struct {
	auth      x.Authenticator
	bucket    orm.Bucket
	programID custody.Address
	ledger    ledger.Controller
	transfers x.Transfers
}

// loadState returns the vault state together with the credential of its
// auth address, after checking the auth address derivation.
func (h handler) loadState(db custody.ReadOnlyKVStore, state, auth custody.Address) (*VaultState, custody.AuthorityCredential, error) {
	var v VaultState
	if err := h.bucket.One(db, state, &v); err != nil {
		return nil, custody.AuthorityCredential{}, errors.Wrap(err, "vault state")
	}
	cred, err := x.RequireDerived(h.programID, auth, v.AuthBump, AuthTag, state[:])
	if err != nil {
		return nil, cred, err
	}
	return &v, cred, nil
}

// loadOwned is loadState for instructions only the recorded owner may
// sign. The owner named in the message must be the recorded one.
func (h handler) loadOwned(ctx context.Context, db custody.ReadOnlyKVStore, owner, state, auth custody.Address) (*VaultState, custody.AuthorityCredential, error) {
	v, cred, err := h.loadState(db, state, auth)
	if err != nil {
		return nil, cred, err
	}
	if err := x.RequireSigner(ctx, h.auth, v.Owner, "owner"); err != nil {
		return nil, cred, err
	}
	if err := x.RequireLinked("owner", owner, v.Owner); err != nil {
		return nil, cred, err
	}
	return v, cred, nil
}

func (h handler) setStatus(db custody.KVStore, state custody.Address, v *VaultState, s Status) error {
	v.Status = s
	return h.bucket.Save(db, state, v)
}

// InitializeHandler creates vault states.
type InitializeHandler struct {
	handler
}

var _ custody.Handler = InitializeHandler{}

func (h InitializeHandler) Check(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, err := h.validate(ctx, info, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{}, nil
}

func (h InitializeHandler) Deliver(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, v, err := h.validate(ctx, info, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.bucket.Create(db, msg.State, v); err != nil {
		return nil, errors.Wrap(err, "cannot store vault state")
	}
	info.Logger().Info("vault initialized", "state", msg.State, "owner", msg.Owner)
	return &custody.DeliverResult{Data: msg.State.Bytes()}, nil
}

func (h InitializeHandler) validate(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*InitializeMsg, *VaultState, error) {
	var msg *InitializeMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	if err := x.RequireSigner(ctx, h.auth, msg.Owner, "owner"); err != nil {
		return nil, nil, err
	}
	if err := x.RequireSigner(ctx, h.auth, msg.State, "state"); err != nil {
		return nil, nil, err
	}
	authCred, err := x.DeriveAndMatch(h.programID, msg.Auth, AuthTag, msg.State[:])
	if err != nil {
		return nil, nil, err
	}
	vaultCred, err := x.DeriveAndMatch(h.programID, msg.Vault, VaultTag, msg.Auth[:])
	if err != nil {
		return nil, nil, err
	}
	if ok, err := h.bucket.Has(db, msg.State); err != nil {
		return nil, nil, err
	} else if ok {
		return nil, nil, errors.Wrapf(errors.ErrDuplicate, "vault state %s", msg.State)
	}
	v := &VaultState{
		Owner:     msg.Owner,
		AuthBump:  authCred.Bump,
		VaultBump: vaultCred.Bump,
		Status:    StatusInitialized,
	}
	return msg, v, nil
}

// DepositHandler moves lamports into a vault.
type DepositHandler struct {
	handler
}

var _ custody.Handler = DepositHandler{}

func (h DepositHandler) Check(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, err := h.validate(ctx, info, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{}, nil
}

func (h DepositHandler) Deliver(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, v, err := h.validate(ctx, info, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.transfers.DepositLamports(db, msg.Owner, msg.Vault, msg.Amount, msg.Owner); err != nil {
		return nil, errors.Wrap(err, "deposit")
	}
	if err := h.setStatus(db, msg.State, v, StatusDeposited); err != nil {
		return nil, err
	}
	info.Logger().Info("vault deposit", "state", msg.State, "amount", msg.Amount)
	return &custody.DeliverResult{}, nil
}

func (h DepositHandler) validate(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*DepositMsg, *VaultState, error) {
	var msg *DepositMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	if err := x.RequireSigner(ctx, h.auth, msg.Owner, "depositor"); err != nil {
		return nil, nil, err
	}
	v, _, err := h.loadState(db, msg.State, msg.Auth)
	if err != nil {
		return nil, nil, err
	}
	if _, err := x.RequireDerived(h.programID, msg.Vault, v.VaultBump, VaultTag, msg.Auth[:]); err != nil {
		return nil, nil, err
	}
	balance, err := h.ledger.Balance(db, msg.Owner)
	if err != nil {
		return nil, nil, err
	}
	if err := x.RequireFunds(balance, msg.Amount); err != nil {
		return nil, nil, err
	}
	return msg, v, nil
}

// WithdrawHandler moves lamports out of a vault back to its owner.
type WithdrawHandler struct {
	handler
}

var _ custody.Handler = WithdrawHandler{}

func (h WithdrawHandler) Check(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, info, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{}, nil
}

func (h WithdrawHandler) Deliver(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, v, cred, err := h.validate(ctx, info, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.transfers.ReleaseLamports(db, cred, msg.Vault, msg.Owner, msg.Amount); err != nil {
		return nil, errors.Wrap(err, "withdraw")
	}
	if err := h.setStatus(db, msg.State, v, StatusWithdrawn); err != nil {
		return nil, err
	}
	info.Logger().Info("vault withdrawal", "state", msg.State, "amount", msg.Amount)
	return &custody.DeliverResult{}, nil
}

func (h WithdrawHandler) validate(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*WithdrawMsg, *VaultState, custody.AuthorityCredential, error) {
	var msg *WithdrawMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, custody.AuthorityCredential{}, errors.Wrap(err, "load msg")
	}
	v, _, err := h.loadOwned(ctx, db, msg.Owner, msg.State, msg.Auth)
	if err != nil {
		return nil, nil, custody.AuthorityCredential{}, err
	}
	cred, err := x.RequireDerived(h.programID, msg.Vault, v.VaultBump, VaultTag, msg.Auth[:])
	if err != nil {
		return nil, nil, cred, err
	}
	balance, err := h.ledger.Balance(db, msg.Vault)
	if err != nil {
		return nil, nil, cred, err
	}
	if err := x.RequireFunds(balance, msg.Amount); err != nil {
		return nil, nil, cred, err
	}
	return msg, v, cred, nil
}

// DepositTokenHandler moves tokens into the vault token account.
type DepositTokenHandler struct {
	handler
}

var _ custody.Handler = DepositTokenHandler{}

func (h DepositTokenHandler) Check(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, err := h.validate(ctx, info, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{}, nil
}

func (h DepositTokenHandler) Deliver(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, v, err := h.validate(ctx, info, db, tx)
	if err != nil {
		return nil, err
	}
	if _, err := h.ledger.EnsureAssociatedAccount(db, msg.Auth, msg.Mint, msg.Owner, custody.SignedBy(msg.Owner)); err != nil {
		return nil, errors.Wrap(err, "vault token account")
	}
	if err := h.transfers.Deposit(db, msg.OwnerToken, msg.VaultToken, msg.Amount, msg.Owner); err != nil {
		return nil, errors.Wrap(err, "deposit")
	}
	if err := h.setStatus(db, msg.State, v, StatusTokenDeposited); err != nil {
		return nil, err
	}
	info.Logger().Info("vault token deposit", "state", msg.State, "mint", msg.Mint, "amount", msg.Amount)
	return &custody.DeliverResult{}, nil
}

func (h DepositTokenHandler) validate(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*DepositTokenMsg, *VaultState, error) {
	var msg *DepositTokenMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	if err := x.RequireSigner(ctx, h.auth, msg.Owner, "depositor"); err != nil {
		return nil, nil, err
	}
	v, _, err := h.loadState(db, msg.State, msg.Auth)
	if err != nil {
		return nil, nil, err
	}
	src, err := h.ledger.TokenAccount(db, msg.OwnerToken)
	if err != nil {
		return nil, nil, errors.Wrap(err, "owner token")
	}
	if err := x.RequireFunds(src.Amount, msg.Amount); err != nil {
		return nil, nil, err
	}
	if err := h.linkTokens(msg.TokenAccounts, src); err != nil {
		return nil, nil, err
	}
	return msg, v, nil
}

// linkTokens verifies the token accounts supplied: the owner token account
// belongs to the named owner and holds the mint, and the vault account is
// the associated account of the auth address.
func (h handler) linkTokens(accs TokenAccounts, ownerToken *ledger.TokenAccount) error {
	if err := x.RequireLinked("owner token owner", ownerToken.Owner, accs.Owner); err != nil {
		return err
	}
	if err := x.RequireLinked("owner token mint", ownerToken.Mint, accs.Mint); err != nil {
		return err
	}
	vaultToken, err := ledger.AssociatedTokenAddress(accs.Auth, accs.Mint)
	if err != nil {
		return err
	}
	return x.RequireLinked("vault token", accs.VaultToken, vaultToken)
}

// WithdrawTokenHandler moves tokens out of the vault token account back to
// the owner.
type WithdrawTokenHandler struct {
	handler
}

var _ custody.Handler = WithdrawTokenHandler{}

func (h WithdrawTokenHandler) Check(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, info, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{}, nil
}

func (h WithdrawTokenHandler) Deliver(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, v, cred, err := h.validate(ctx, info, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.transfers.Release(db, cred, msg.VaultToken, msg.OwnerToken, msg.Amount); err != nil {
		return nil, errors.Wrap(err, "withdraw")
	}
	if err := h.setStatus(db, msg.State, v, StatusTokenWithdrawn); err != nil {
		return nil, err
	}
	info.Logger().Info("vault token withdrawal", "state", msg.State, "mint", msg.Mint, "amount", msg.Amount)
	return &custody.DeliverResult{}, nil
}

func (h WithdrawTokenHandler) validate(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*WithdrawTokenMsg, *VaultState, custody.AuthorityCredential, error) {
	var msg *WithdrawTokenMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, custody.AuthorityCredential{}, errors.Wrap(err, "load msg")
	}
	v, cred, err := h.loadOwned(ctx, db, msg.Owner, msg.State, msg.Auth)
	if err != nil {
		return nil, nil, cred, err
	}
	vault, err := h.ledger.TokenAccount(db, msg.VaultToken)
	if err != nil {
		return nil, nil, cred, errors.Wrap(err, "vault token")
	}
	if err := x.RequireFunds(vault.Amount, msg.Amount); err != nil {
		return nil, nil, cred, err
	}
	dst, err := h.ledger.TokenAccount(db, msg.OwnerToken)
	if err != nil {
		return nil, nil, cred, errors.Wrap(err, "owner token")
	}
	if err := h.linkTokens(msg.TokenAccounts, dst); err != nil {
		return nil, nil, cred, err
	}
	return msg, v, cred, nil
}
