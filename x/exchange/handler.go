package exchange

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
	r.Handle(pathCancelMsg, CancelHandler{base})
	r.Handle(pathExchangeMsg, ExchangeHandler{base})
}

type handler struct {
	auth      x.Authenticator
	bucket    orm.Bucket
	programID custody.Address
	ledger    ledger.Controller
	transfers x.Transfers
}

func (h handler) load(db custody.ReadOnlyKVStore, state custody.Address) (*Exchange, error) {
	var e Exchange
	if err := h.bucket.One(db, state, &e); err != nil {
		return nil, errors.Wrapf(err, "exchange %s", state)
	}
	return &e, nil
}

// rederive checks the supplied addresses against the recorded bumps and
// returns the authority credential.
func (h handler) rederive(e *Exchange, authority, state, vault custody.Address) (custody.AuthorityCredential, error) {
	cred, err := x.RequireDerived(h.programID, authority, e.AuthorityBump, AuthorityTag)
	if err != nil {
		return cred, err
	}
	if _, err := x.RequireDerived(h.programID, state, e.StateBump, StateTag, custody.SeedUint64(e.Seed)); err != nil {
		return cred, err
	}
	if _, err := x.RequireDerived(h.programID, vault, e.VaultBump, VaultTag, state[:]); err != nil {
		return cred, err
	}
	return cred, nil
}

// InitializeHandler opens exchanges.
type InitializeHandler struct {
	handler
}

var _ custody.Handler = InitializeHandler{}

func (h InitializeHandler) Check(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, _, _, err := h.validate(ctx, info, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{}, nil
}

func (h InitializeHandler) Deliver(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, e, mint, vaultCred, err := h.validate(ctx, info, db, tx)
	if err != nil {
		return nil, err
	}
	auth := custody.Authorities{custody.SignedBy(msg.Initializer), vaultCred}
	if err := h.ledger.InitAccount(db, msg.Vault, msg.Mint, msg.Authority, msg.Initializer, auth); err != nil {
		return nil, errors.Wrap(err, "vault account")
	}
	if err := h.bucket.Create(db, msg.State, e); err != nil {
		return nil, errors.Wrap(err, "cannot store exchange")
	}
	err = h.transfers.DepositChecked(db, msg.DepositAccount, msg.Mint, msg.Vault, msg.InitializerAmount, mint.Decimals, msg.Initializer)
	if err != nil {
		return nil, errors.Wrap(err, "deposit")
	}
	info.Logger().Info("exchange initialized",
		"state", msg.State,
		"initializer", msg.Initializer,
		"amount", msg.InitializerAmount,
		"asks", msg.TakerAmount)
	return &custody.DeliverResult{Data: msg.State.Bytes(), Log: msg.State.String()}, nil
}

func (h InitializeHandler) validate(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*InitializeMsg, *Exchange, *ledger.Mint, custody.AuthorityCredential, error) {
	var none custody.AuthorityCredential
	var msg *InitializeMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, none, errors.Wrap(err, "load msg")
	}
	if err := x.RequireSigner(ctx, h.auth, msg.Initializer, "initializer"); err != nil {
		return nil, nil, nil, none, err
	}
	authorityCred, err := x.DeriveAndMatch(h.programID, msg.Authority, AuthorityTag)
	if err != nil {
		return nil, nil, nil, none, err
	}
	stateCred, err := x.DeriveAndMatch(h.programID, msg.State, StateTag, custody.SeedUint64(msg.Seed))
	if err != nil {
		return nil, nil, nil, none, err
	}
	vaultCred, err := x.DeriveAndMatch(h.programID, msg.Vault, VaultTag, msg.State[:])
	if err != nil {
		return nil, nil, nil, none, err
	}
	if ok, err := h.bucket.Has(db, msg.State); err != nil {
		return nil, nil, nil, none, err
	} else if ok {
		return nil, nil, nil, none, errors.Wrapf(errors.ErrDuplicate, "exchange %s", msg.State)
	}

	deposit, err := h.ledger.TokenAccount(db, msg.DepositAccount)
	if err != nil {
		return nil, nil, nil, none, errors.Wrap(err, "deposit account")
	}
	if err := x.RequireFunds(deposit.Amount, msg.InitializerAmount); err != nil {
		return nil, nil, nil, none, err
	}
	if err := x.RequireLinked("deposit account owner", deposit.Owner, msg.Initializer); err != nil {
		return nil, nil, nil, none, err
	}
	if err := x.RequireLinked("deposit account mint", deposit.Mint, msg.Mint); err != nil {
		return nil, nil, nil, none, err
	}
	receive, err := h.ledger.TokenAccount(db, msg.ReceiveAccount)
	if err != nil {
		return nil, nil, nil, none, errors.Wrap(err, "receive account")
	}
	if err := x.RequireLinked("receive account owner", receive.Owner, msg.Initializer); err != nil {
		return nil, nil, nil, none, err
	}
	mint, err := h.ledger.Mint(db, msg.Mint)
	if err != nil {
		return nil, nil, nil, none, err
	}

	e := &Exchange{
		Seed:              msg.Seed,
		Initializer:       msg.Initializer,
		DepositAccount:    msg.DepositAccount,
		ReceiveAccount:    msg.ReceiveAccount,
		InitializerAmount: msg.InitializerAmount,
		TakerAmount:       msg.TakerAmount,
		AuthorityBump:     authorityCred.Bump,
		VaultBump:         vaultCred.Bump,
		StateBump:         stateCred.Bump,
	}
	return msg, e, mint, vaultCred, nil
}

// CancelHandler returns the locked amount to the initializer and closes
// the exchange.
type CancelHandler struct {
	handler
}

var _ custody.Handler = CancelHandler{}

func (h CancelHandler) Check(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, _, _, err := h.validate(ctx, info, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{}, nil
}

func (h CancelHandler) Deliver(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, e, mint, cred, err := h.validate(ctx, info, db, tx)
	if err != nil {
		return nil, err
	}
	err = h.transfers.ReleaseChecked(db, cred, msg.Vault, msg.Mint, msg.DepositAccount, e.InitializerAmount, mint.Decimals)
	if err != nil {
		return nil, errors.Wrap(err, "refund")
	}
	if err := h.transfers.Close(db, cred, msg.Vault, e.Initializer); err != nil {
		return nil, errors.Wrap(err, "vault close")
	}
	if err := h.bucket.Delete(db, msg.State); err != nil {
		return nil, errors.Wrap(err, "cannot delete exchange")
	}
	info.Logger().Info("exchange cancelled", "state", msg.State, "amount", e.InitializerAmount)
	return &custody.DeliverResult{}, nil
}

func (h CancelHandler) validate(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*CancelMsg, *Exchange, *ledger.Mint, custody.AuthorityCredential, error) {
	var cred custody.AuthorityCredential
	var msg *CancelMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, cred, errors.Wrap(err, "load msg")
	}
	e, err := h.load(db, msg.State)
	if err != nil {
		return nil, nil, nil, cred, err
	}
	if err := x.RequireSigner(ctx, h.auth, e.Initializer, "initializer"); err != nil {
		return nil, nil, nil, cred, err
	}
	if cred, err = h.rederive(e, msg.Authority, msg.State, msg.Vault); err != nil {
		return nil, nil, nil, cred, err
	}
	vault, err := h.ledger.TokenAccount(db, msg.Vault)
	if err != nil {
		return nil, nil, nil, cred, errors.Wrap(err, "vault")
	}
	if err := x.RequireFunds(vault.Amount, e.InitializerAmount); err != nil {
		return nil, nil, nil, cred, err
	}
	if err := x.RequireLinked("initializer", msg.Initializer, e.Initializer); err != nil {
		return nil, nil, nil, cred, err
	}
	if err := x.RequireLinked("deposit account", msg.DepositAccount, e.DepositAccount); err != nil {
		return nil, nil, nil, cred, err
	}
	if err := x.RequireLinked("mint", msg.Mint, vault.Mint); err != nil {
		return nil, nil, nil, cred, err
	}
	mint, err := h.ledger.Mint(db, msg.Mint)
	if err != nil {
		return nil, nil, nil, cred, err
	}
	return msg, e, mint, cred, nil
}

// ExchangeHandler completes exchanges. Any signer holding the asked asset
// can complete one.
type ExchangeHandler struct {
	handler
}

var _ custody.Handler = ExchangeHandler{}

func (h ExchangeHandler) Check(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, err := h.validate(ctx, info, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{}, nil
}

func (h ExchangeHandler) Deliver(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, s, err := h.validate(ctx, info, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.transfers.Settle(db, *s); err != nil {
		return nil, err
	}
	if err := h.bucket.Delete(db, msg.State); err != nil {
		return nil, errors.Wrap(err, "cannot delete exchange")
	}
	info.Logger().Info("exchange completed",
		"state", msg.State,
		"taker", msg.Taker,
		"paid", s.Counter.Amount,
		"received", s.Release.Amount)
	return &custody.DeliverResult{}, nil
}

// validate returns the settlement the exchange resolves to.
func (h ExchangeHandler) validate(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*ExchangeMsg, *x.Settlement, error) {
	var msg *ExchangeMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	if err := x.RequireSigner(ctx, h.auth, msg.Taker, "taker"); err != nil {
		return nil, nil, err
	}
	e, err := h.load(db, msg.State)
	if err != nil {
		return nil, nil, err
	}
	cred, err := h.rederive(e, msg.Authority, msg.State, msg.Vault)
	if err != nil {
		return nil, nil, err
	}
	takerDeposit, err := h.ledger.TokenAccount(db, msg.TakerDeposit)
	if err != nil {
		return nil, nil, errors.Wrap(err, "taker deposit")
	}
	if err := x.RequireFunds(takerDeposit.Amount, e.TakerAmount); err != nil {
		return nil, nil, err
	}
	if err := x.RequireLinked("initializer", msg.Initializer, e.Initializer); err != nil {
		return nil, nil, err
	}
	if err := x.RequireLinked("initializer deposit", msg.InitializerDeposit, e.DepositAccount); err != nil {
		return nil, nil, err
	}
	if err := x.RequireLinked("initializer receive", msg.InitializerReceive, e.ReceiveAccount); err != nil {
		return nil, nil, err
	}
	if err := x.RequireLinked("taker deposit owner", takerDeposit.Owner, msg.Taker); err != nil {
		return nil, nil, err
	}
	if err := x.RequireLinked("taker mint", msg.TakerMint, takerDeposit.Mint); err != nil {
		return nil, nil, err
	}
	vault, err := h.ledger.TokenAccount(db, msg.Vault)
	if err != nil {
		return nil, nil, errors.Wrap(err, "vault")
	}
	if err := x.RequireLinked("initializer mint", msg.InitializerMint, vault.Mint); err != nil {
		return nil, nil, err
	}
	takerReceive, err := h.ledger.TokenAccount(db, msg.TakerReceive)
	if err != nil {
		return nil, nil, errors.Wrap(err, "taker receive")
	}
	if err := x.RequireLinked("taker receive mint", takerReceive.Mint, vault.Mint); err != nil {
		return nil, nil, err
	}
	initReceive, err := h.ledger.TokenAccount(db, msg.InitializerReceive)
	if err != nil {
		return nil, nil, errors.Wrap(err, "initializer receive")
	}
	if err := x.RequireLinked("initializer receive mint", initReceive.Mint, takerDeposit.Mint); err != nil {
		return nil, nil, err
	}
	initMint, err := h.ledger.Mint(db, msg.InitializerMint)
	if err != nil {
		return nil, nil, errors.Wrap(err, "initializer mint")
	}
	takerMint, err := h.ledger.Mint(db, msg.TakerMint)
	if err != nil {
		return nil, nil, errors.Wrap(err, "taker mint")
	}

	return msg, &x.Settlement{
		Counterparty: msg.Taker,
		Counter: x.Leg{
			From:     msg.TakerDeposit,
			To:       msg.InitializerReceive,
			Amount:   e.TakerAmount,
			Mint:     msg.TakerMint,
			Decimals: takerMint.Decimals,
			Checked:  true,
		},
		Authority: cred,
		Release: x.Leg{
			From:     msg.Vault,
			To:       msg.TakerReceive,
			Amount:   e.InitializerAmount,
			Mint:     msg.InitializerMint,
			Decimals: initMint.Decimals,
			Checked:  true,
		},
		CloseTo: e.Initializer,
	}, nil
}
