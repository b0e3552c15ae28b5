package escrow

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
		conf:      conf,
		ledger:    ctrl,
		transfers: x.NewTransfers(ctrl),
	}
	r.Handle(pathMakeMsg, MakeHandler{base})
	r.Handle(pathUpdateMsg, UpdateHandler{base})
	r.Handle(pathTakeMsg, TakeHandler{base})
	r.Handle(pathRefundMsg, RefundHandler{base})
}

type handler struct {
	auth      x.Authenticator
	bucket    orm.Bucket
	conf      Configuration
	ledger    ledger.Controller
	transfers x.Transfers
}

// credentials holds the authorities re-derived for an open escrow.
type credentials struct {
	auth   custody.AuthorityCredential
	escrow custody.AuthorityCredential
	vault  custody.AuthorityCredential
}

func (h handler) load(db custody.ReadOnlyKVStore, addr custody.Address) (*Escrow, error) {
	var e Escrow
	if err := h.bucket.One(db, addr, &e); err != nil {
		return nil, errors.Wrapf(err, "escrow %s", addr)
	}
	return &e, nil
}

// rederive checks the supplied addresses against the bumps recorded in the
// escrow.
func (h handler) rederive(e *Escrow, auth, escrow, vault custody.Address) (credentials, error) {
	var c credentials
	var err error
	pid := h.conf.ProgramID
	if c.auth, err = x.RequireDerived(pid, auth, e.AuthBump, AuthTag); err != nil {
		return c, err
	}
	if c.escrow, err = x.RequireDerived(pid, escrow, e.EscrowBump, EscrowTag, escrowSeeds(e.Maker, e.Seed)...); err != nil {
		return c, err
	}
	if c.vault, err = x.RequireDerived(pid, vault, e.VaultBump, VaultTag, escrow[:]); err != nil {
		return c, err
	}
	return c, nil
}

// linkToken checks that a token account belongs to owner and holds mint.
func linkToken(name string, acc *ledger.TokenAccount, owner, mint custody.Address) error {
	if err := x.RequireLinked(name+" owner", acc.Owner, owner); err != nil {
		return err
	}
	return x.RequireLinked(name+" mint", acc.Mint, mint)
}

// MakeHandler opens escrows.
type MakeHandler struct {
	handler
}

var _ custody.Handler = MakeHandler{}

func (h MakeHandler) Check(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, info, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{}, nil
}

func (h MakeHandler) Deliver(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, e, vaultCred, err := h.validate(ctx, info, db, tx)
	if err != nil {
		return nil, err
	}
	// The vault is created at a derived address, so the maker paying its
	// reserve and the vault credential must both authorize it.
	auth := custody.Authorities{custody.SignedBy(msg.Maker), vaultCred}
	if err := h.ledger.InitAccount(db, msg.Vault, msg.MakerAsset, msg.Auth, msg.Maker, auth); err != nil {
		return nil, errors.Wrap(err, "vault account")
	}
	if err := h.bucket.Create(db, msg.Escrow, e); err != nil {
		return nil, errors.Wrap(err, "cannot store escrow")
	}
	if err := h.transfers.Deposit(db, msg.MakerToken, msg.Vault, msg.DepositAmount, msg.Maker); err != nil {
		return nil, errors.Wrap(err, "deposit")
	}
	info.Logger().Info("escrow made",
		"escrow", msg.Escrow,
		"maker", msg.Maker,
		"deposit", msg.DepositAmount,
		"offer", msg.OfferAmount,
		"expiry", e.Expiry)
	return &custody.DeliverResult{Data: msg.Escrow.Bytes(), Log: msg.Escrow.String()}, nil
}

func (h MakeHandler) validate(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*MakeMsg, *Escrow, custody.AuthorityCredential, error) {
	var none custody.AuthorityCredential
	var msg *MakeMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, none, errors.Wrap(err, "load msg")
	}
	if err := x.RequireSigner(ctx, h.auth, msg.Maker, "maker"); err != nil {
		return nil, nil, none, err
	}
	expiry, err := absoluteExpiry(info.Slot(), msg.Expiry, h.conf.MaxExpiry)
	if err != nil {
		return nil, nil, none, err
	}

	pid := h.conf.ProgramID
	authCred, err := x.DeriveAndMatch(pid, msg.Auth, AuthTag)
	if err != nil {
		return nil, nil, none, err
	}
	escrowCred, err := x.DeriveAndMatch(pid, msg.Escrow, EscrowTag, escrowSeeds(msg.Maker, msg.Seed)...)
	if err != nil {
		return nil, nil, none, err
	}
	vaultCred, err := x.DeriveAndMatch(pid, msg.Vault, VaultTag, msg.Escrow[:])
	if err != nil {
		return nil, nil, none, err
	}
	if ok, err := h.bucket.Has(db, msg.Escrow); err != nil {
		return nil, nil, none, err
	} else if ok {
		return nil, nil, none, errors.Wrapf(errors.ErrDuplicate, "escrow %s", msg.Escrow)
	}

	src, err := h.ledger.TokenAccount(db, msg.MakerToken)
	if err != nil {
		return nil, nil, none, errors.Wrap(err, "maker token")
	}
	if err := x.RequireFunds(src.Amount, msg.DepositAmount); err != nil {
		return nil, nil, none, err
	}
	if err := linkToken("maker token", src, msg.Maker, msg.MakerAsset); err != nil {
		return nil, nil, none, err
	}
	if _, err := h.ledger.Mint(db, msg.TakerAsset); err != nil {
		return nil, nil, none, errors.Wrap(err, "taker asset")
	}

	e := &Escrow{
		Maker:       msg.Maker,
		MakerAsset:  msg.MakerAsset,
		TakerAsset:  msg.TakerAsset,
		Seed:        msg.Seed,
		OfferAmount: msg.OfferAmount,
		Expiry:      expiry,
		AuthBump:    authCred.Bump,
		VaultBump:   vaultCred.Bump,
		EscrowBump:  escrowCred.Bump,
	}
	return msg, e, vaultCred, nil
}

// UpdateHandler changes the ask of an open escrow.
type UpdateHandler struct {
	handler
}

var _ custody.Handler = UpdateHandler{}

func (h UpdateHandler) Check(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, err := h.validate(ctx, info, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{}, nil
}

func (h UpdateHandler) Deliver(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, e, err := h.validate(ctx, info, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.bucket.Save(db, msg.Escrow, e); err != nil {
		return nil, errors.Wrap(err, "cannot store escrow")
	}
	info.Logger().Info("escrow updated",
		"escrow", msg.Escrow,
		"taker_asset", e.TakerAsset,
		"offer", e.OfferAmount,
		"expiry", e.Expiry)
	return &custody.DeliverResult{}, nil
}

// validate returns the escrow with the update applied. The deposit is left
// untouched.
func (h UpdateHandler) validate(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*UpdateMsg, *Escrow, error) {
	var msg *UpdateMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	e, err := h.load(db, msg.Escrow)
	if err != nil {
		return nil, nil, err
	}
	if err := x.RequireSigner(ctx, h.auth, e.Maker, "maker"); err != nil {
		return nil, nil, err
	}
	if _, err := x.RequireDerived(h.conf.ProgramID, msg.Escrow, e.EscrowBump, EscrowTag, escrowSeeds(e.Maker, e.Seed)...); err != nil {
		return nil, nil, err
	}
	if err := x.RequireLinked("maker", msg.Maker, e.Maker); err != nil {
		return nil, nil, err
	}
	expiry, err := absoluteExpiry(info.Slot(), msg.Expiry, h.conf.MaxExpiry)
	if err != nil {
		return nil, nil, err
	}
	if !msg.NewTakerAsset.IsZero() {
		if _, err := h.ledger.Mint(db, msg.NewTakerAsset); err != nil {
			return nil, nil, errors.Wrap(err, "taker asset")
		}
		e.TakerAsset = msg.NewTakerAsset
	}
	e.OfferAmount = msg.OfferAmount
	e.Expiry = expiry
	return msg, e, nil
}

// TakeHandler settles escrows. Anybody holding the asked asset can take.
type TakeHandler struct {
	handler
}

var _ custody.Handler = TakeHandler{}

func (h TakeHandler) Check(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, info, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{}, nil
}

func (h TakeHandler) Deliver(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, e, creds, err := h.validate(ctx, info, db, tx)
	if err != nil {
		return nil, err
	}
	payer := custody.SignedBy(msg.Taker)
	if _, err := h.ledger.EnsureAssociatedAccount(db, msg.Taker, e.MakerAsset, msg.Taker, payer); err != nil {
		return nil, errors.Wrap(err, "taker receive account")
	}
	if _, err := h.ledger.EnsureAssociatedAccount(db, e.Maker, e.TakerAsset, msg.Taker, payer); err != nil {
		return nil, errors.Wrap(err, "maker receive account")
	}
	vault, err := h.ledger.TokenAccount(db, msg.Vault)
	if err != nil {
		return nil, errors.Wrap(err, "vault")
	}
	err = h.transfers.Settle(db, x.Settlement{
		Counterparty: msg.Taker,
		Counter: x.Leg{
			From:   msg.TakerToken,
			To:     msg.MakerReceive,
			Amount: e.OfferAmount,
		},
		Authority: creds.auth,
		Release: x.Leg{
			From:   msg.Vault,
			To:     msg.TakerReceive,
			Amount: vault.Amount,
		},
		CloseTo: e.Maker,
	})
	if err != nil {
		return nil, err
	}
	if err := h.bucket.Delete(db, msg.Escrow); err != nil {
		return nil, errors.Wrap(err, "cannot delete escrow")
	}
	info.Logger().Info("escrow taken",
		"escrow", msg.Escrow,
		"taker", msg.Taker,
		"received", vault.Amount,
		"paid", e.OfferAmount)
	return &custody.DeliverResult{}, nil
}

func (h TakeHandler) validate(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*TakeMsg, *Escrow, credentials, error) {
	var creds credentials
	var msg *TakeMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, creds, errors.Wrap(err, "load msg")
	}
	if err := x.RequireSigner(ctx, h.auth, msg.Taker, "taker"); err != nil {
		return nil, nil, creds, err
	}
	e, err := h.load(db, msg.Escrow)
	if err != nil {
		return nil, nil, creds, err
	}
	if creds, err = h.rederive(e, msg.Auth, msg.Escrow, msg.Vault); err != nil {
		return nil, nil, creds, err
	}
	src, err := h.ledger.TokenAccount(db, msg.TakerToken)
	if err != nil {
		return nil, nil, creds, errors.Wrap(err, "taker token")
	}
	if err := x.RequireFunds(src.Amount, e.OfferAmount); err != nil {
		return nil, nil, creds, err
	}
	if err := x.RequireNotExpired(info, e.Expiry); err != nil {
		return nil, nil, creds, err
	}
	if err := h.link(msg, e, src); err != nil {
		return nil, nil, creds, err
	}
	if err := h.requireReserves(db, msg); err != nil {
		return nil, nil, creds, err
	}
	return msg, e, creds, nil
}

// requireReserves checks the taker can pay the reserve of every receive
// account the take creates.
func (h TakeHandler) requireReserves(db custody.ReadOnlyKVStore, msg *TakeMsg) error {
	var missing uint64
	for _, addr := range []custody.Address{msg.TakerReceive, msg.MakerReceive} {
		ok, err := h.ledger.HasTokenAccount(db, addr)
		if err != nil {
			return err
		}
		if !ok {
			missing++
		}
	}
	balance, err := h.ledger.Balance(db, msg.Taker)
	if err != nil {
		return err
	}
	return errors.Wrap(x.RequireFunds(balance, missing*h.ledger.AccountReserve()), "receive account reserves")
}

// link verifies every account of the take instruction against the escrow
// record.
func (h TakeHandler) link(msg *TakeMsg, e *Escrow, takerToken *ledger.TokenAccount) error {
	if err := x.RequireLinked("maker", msg.Maker, e.Maker); err != nil {
		return err
	}
	if err := x.RequireLinked("maker asset", msg.MakerAsset, e.MakerAsset); err != nil {
		return err
	}
	if err := x.RequireLinked("taker asset", msg.TakerAsset, e.TakerAsset); err != nil {
		return err
	}
	if err := linkToken("taker token", takerToken, msg.Taker, e.TakerAsset); err != nil {
		return err
	}
	takerReceive, err := ledger.AssociatedTokenAddress(msg.Taker, e.MakerAsset)
	if err != nil {
		return err
	}
	if err := x.RequireLinked("taker receive", msg.TakerReceive, takerReceive); err != nil {
		return err
	}
	makerReceive, err := ledger.AssociatedTokenAddress(e.Maker, e.TakerAsset)
	if err != nil {
		return err
	}
	return x.RequireLinked("maker receive", msg.MakerReceive, makerReceive)
}

// RefundHandler returns the deposit to the maker and closes the escrow.
// It stays available after expiry.
type RefundHandler struct {
	handler
}

var _ custody.Handler = RefundHandler{}

func (h RefundHandler) Check(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, info, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{}, nil
}

func (h RefundHandler) Deliver(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, e, creds, err := h.validate(ctx, info, db, tx)
	if err != nil {
		return nil, err
	}
	vault, err := h.ledger.TokenAccount(db, msg.Vault)
	if err != nil {
		return nil, errors.Wrap(err, "vault")
	}
	if err := h.transfers.Release(db, creds.auth, msg.Vault, msg.MakerToken, vault.Amount); err != nil {
		return nil, errors.Wrap(err, "refund")
	}
	if err := h.transfers.Close(db, creds.auth, msg.Vault, e.Maker); err != nil {
		return nil, errors.Wrap(err, "vault close")
	}
	if err := h.bucket.Delete(db, msg.Escrow); err != nil {
		return nil, errors.Wrap(err, "cannot delete escrow")
	}
	info.Logger().Info("escrow refunded", "escrow", msg.Escrow, "amount", vault.Amount)
	return &custody.DeliverResult{}, nil
}

func (h RefundHandler) validate(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*RefundMsg, *Escrow, credentials, error) {
	var creds credentials
	var msg *RefundMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, creds, errors.Wrap(err, "load msg")
	}
	e, err := h.load(db, msg.Escrow)
	if err != nil {
		return nil, nil, creds, err
	}
	if err := x.RequireSigner(ctx, h.auth, e.Maker, "maker"); err != nil {
		return nil, nil, creds, err
	}
	if creds, err = h.rederive(e, msg.Auth, msg.Escrow, msg.Vault); err != nil {
		return nil, nil, creds, err
	}
	if err := x.RequireLinked("maker", msg.Maker, e.Maker); err != nil {
		return nil, nil, creds, err
	}
	if err := x.RequireLinked("maker asset", msg.MakerAsset, e.MakerAsset); err != nil {
		return nil, nil, creds, err
	}
	dst, err := h.ledger.TokenAccount(db, msg.MakerToken)
	if err != nil {
		return nil, nil, creds, errors.Wrap(err, "maker token")
	}
	if err := linkToken("maker token", dst, e.Maker, e.MakerAsset); err != nil {
		return nil, nil, creds, err
	}
	return msg, e, creds, nil
}
