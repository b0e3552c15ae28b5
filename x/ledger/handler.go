package ledger

import (
	"context"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x"
)

// RegisterRoutes will instantiate and register all handlers in this
// package.
func RegisterRoutes(r custody.Registry, auth x.Authenticator, ctrl Controller) {
	r.Handle(pathSendMsg, SendHandler{auth: auth, ctrl: ctrl})
	r.Handle(pathTransferMsg, TransferHandler{auth: auth, ctrl: ctrl})
	r.Handle(pathCreateAssociatedMsg, CreateAssociatedHandler{auth: auth, ctrl: ctrl})
	r.Handle(pathCreateMintMsg, CreateMintHandler{auth: auth, ctrl: ctrl})
	r.Handle(pathMintToMsg, MintToHandler{auth: auth, ctrl: ctrl})
}

// SendHandler moves native balance.
type SendHandler struct {
	auth x.Authenticator
	ctrl Controller
}

var _ custody.Handler = SendHandler{}

func (h SendHandler) Check(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, err := h.validate(ctx, info, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{}, nil
}

func (h SendHandler) Deliver(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, err := h.validate(ctx, info, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.TransferLamports(db, msg.From, msg.To, msg.Amount, custody.SignedBy(msg.From)); err != nil {
		return nil, errors.Wrap(err, "send")
	}
	return &custody.DeliverResult{}, nil
}

func (h SendHandler) validate(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*SendMsg, error) {
	var msg *SendMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if err := x.RequireSigner(ctx, h.auth, msg.From, "sender"); err != nil {
		return nil, err
	}
	balance, err := h.ctrl.Balance(db, msg.From)
	if err != nil {
		return nil, err
	}
	if err := x.RequireFunds(balance, msg.Amount); err != nil {
		return nil, err
	}
	return msg, nil
}

// TransferHandler moves tokens between two token accounts.
type TransferHandler struct {
	auth x.Authenticator
	ctrl Controller
}

var _ custody.Handler = TransferHandler{}

func (h TransferHandler) Check(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, err := h.validate(ctx, info, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{}, nil
}

func (h TransferHandler) Deliver(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, err := h.validate(ctx, info, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.Transfer(db, msg.From, msg.To, msg.Amount, custody.SignedBy(msg.Owner)); err != nil {
		return nil, errors.Wrap(err, "transfer")
	}
	return &custody.DeliverResult{}, nil
}

func (h TransferHandler) validate(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*TransferMsg, error) {
	var msg *TransferMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if err := x.RequireSigner(ctx, h.auth, msg.Owner, "owner"); err != nil {
		return nil, err
	}
	src, err := h.ctrl.TokenAccount(db, msg.From)
	if err != nil {
		return nil, errors.Wrap(err, "source")
	}
	if err := x.RequireFunds(src.Amount, msg.Amount); err != nil {
		return nil, err
	}
	if err := x.RequireLinked("owner", msg.Owner, src.Owner); err != nil {
		return nil, err
	}
	return msg, nil
}

// CreateAssociatedHandler creates associated token accounts.
type CreateAssociatedHandler struct {
	auth x.Authenticator
	ctrl Controller
}

var _ custody.Handler = CreateAssociatedHandler{}

func (h CreateAssociatedHandler) Check(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, err := h.validate(ctx, info, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{}, nil
}

// Deliver creates the account if missing and returns its address.
func (h CreateAssociatedHandler) Deliver(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, err := h.validate(ctx, info, db, tx)
	if err != nil {
		return nil, err
	}
	addr, err := h.ctrl.EnsureAssociatedAccount(db, msg.Owner, msg.Mint, msg.Payer, custody.SignedBy(msg.Payer))
	if err != nil {
		return nil, errors.Wrap(err, "create associated account")
	}
	return &custody.DeliverResult{Data: addr.Bytes(), Log: addr.String()}, nil
}

func (h CreateAssociatedHandler) validate(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*CreateAssociatedMsg, error) {
	var msg *CreateAssociatedMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if err := x.RequireSigner(ctx, h.auth, msg.Payer, "payer"); err != nil {
		return nil, err
	}
	if _, err := h.ctrl.Mint(db, msg.Mint); err != nil {
		return nil, err
	}
	balance, err := h.ctrl.Balance(db, msg.Payer)
	if err != nil {
		return nil, err
	}
	if err := x.RequireFunds(balance, h.ctrl.AccountReserve()); err != nil {
		return nil, err
	}
	return msg, nil
}

// CreateMintHandler registers new mints.
type CreateMintHandler struct {
	auth x.Authenticator
	ctrl Controller
}

var _ custody.Handler = CreateMintHandler{}

func (h CreateMintHandler) Check(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, err := h.validate(ctx, info, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{}, nil
}

func (h CreateMintHandler) Deliver(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, err := h.validate(ctx, info, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.CreateMint(db, msg.Mint, &Mint{Authority: msg.Authority, Decimals: msg.Decimals}); err != nil {
		return nil, errors.Wrap(err, "create mint")
	}
	info.Logger().Info("mint created", "mint", msg.Mint, "decimals", msg.Decimals)
	return &custody.DeliverResult{Data: msg.Mint.Bytes(), Log: msg.Mint.String()}, nil
}

func (h CreateMintHandler) validate(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*CreateMintMsg, error) {
	var msg *CreateMintMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if err := x.RequireSigner(ctx, h.auth, msg.Authority, "mint authority"); err != nil {
		return nil, err
	}
	if err := x.RequireSigner(ctx, h.auth, msg.Mint, "mint"); err != nil {
		return nil, err
	}
	if ok, err := h.ctrl.mints.Has(db, msg.Mint); err != nil {
		return nil, err
	} else if ok {
		return nil, errors.Wrapf(errors.ErrDuplicate, "mint %s", msg.Mint)
	}
	return msg, nil
}

// MintToHandler issues tokens.
type MintToHandler struct {
	auth x.Authenticator
	ctrl Controller
}

var _ custody.Handler = MintToHandler{}

func (h MintToHandler) Check(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, err := h.validate(ctx, info, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{}, nil
}

// Deliver returns the address of the credited token account.
func (h MintToHandler) Deliver(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, err := h.validate(ctx, info, db, tx)
	if err != nil {
		return nil, err
	}
	auth := custody.SignedBy(msg.Authority)
	ata, err := h.ctrl.EnsureAssociatedAccount(db, msg.Owner, msg.Mint, msg.Authority, auth)
	if err != nil {
		return nil, errors.Wrap(err, "recipient account")
	}
	if err := h.ctrl.MintTo(db, msg.Mint, ata, msg.Amount, auth); err != nil {
		return nil, errors.Wrap(err, "mint to")
	}
	info.Logger().Info("tokens minted", "mint", msg.Mint, "account", ata, "amount", msg.Amount)
	return &custody.DeliverResult{Data: ata.Bytes(), Log: ata.String()}, nil
}

func (h MintToHandler) validate(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx) (*MintToMsg, error) {
	var msg *MintToMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if err := x.RequireSigner(ctx, h.auth, msg.Authority, "mint authority"); err != nil {
		return nil, err
	}
	m, err := h.ctrl.Mint(db, msg.Mint)
	if err != nil {
		return nil, err
	}
	if err := x.RequireLinked("mint authority", msg.Authority, m.Authority); err != nil {
		return nil, err
	}
	ata, err := AssociatedTokenAddress(msg.Owner, msg.Mint)
	if err != nil {
		return nil, err
	}
	ok, err := h.ctrl.HasTokenAccount(db, ata)
	if err != nil {
		return nil, err
	}
	if !ok {
		balance, err := h.ctrl.Balance(db, msg.Authority)
		if err != nil {
			return nil, err
		}
		if err := x.RequireFunds(balance, h.ctrl.AccountReserve()); err != nil {
			return nil, err
		}
	}
	return msg, nil
}
