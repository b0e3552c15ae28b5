package escrow

import (
	"context"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/custodytest"
	"github.com/iov-one/custody/custodytest/assert"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
	"github.com/iov-one/custody/x/ledger"
)

const reserve = 100

type env struct {
	db   custody.CacheableKVStore
	ctrl ledger.Controller
	conf Configuration
	slot int64

	issuer     custody.Address
	maker      custody.Address
	taker      custody.Address
	makerAsset custody.Address
	takerAsset custody.Address
	makerToken custody.Address
	takerToken custody.Address
}

// newEnv returns a ledger where the maker holds 100 maker asset tokens
// and the taker 50 taker asset tokens. Both start with 1000 lamports and
// paid the reserve of their token account.
func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		db:         store.MemStore(),
		ctrl:       ledger.NewController(ledger.Configuration{AccountReserve: reserve}),
		conf:       Configuration{ProgramID: custodytest.NewAddress("escrow-program"), MaxExpiry: DefaultMaxExpiry},
		slot:       10,
		issuer:     custodytest.NewAddress("issuer"),
		maker:      custodytest.NewAddress("maker"),
		taker:      custodytest.NewAddress("taker"),
		makerAsset: custodytest.NewAddress("maker-asset"),
		takerAsset: custodytest.NewAddress("taker-asset"),
	}
	for _, m := range []custody.Address{e.makerAsset, e.takerAsset} {
		assert.Nil(t, e.ctrl.CreateMint(e.db, m, &ledger.Mint{Authority: e.issuer, Decimals: 6}))
	}
	e.makerToken = e.fund(t, e.maker, e.makerAsset, 100)
	e.takerToken = e.fund(t, e.taker, e.takerAsset, 50)
	return e
}

func (e *env) fund(t *testing.T, owner, mint custody.Address, amount uint64) custody.Address {
	t.Helper()
	assert.Nil(t, e.ctrl.IssueLamports(e.db, owner, 1000))
	ata, err := e.ctrl.EnsureAssociatedAccount(e.db, owner, mint, owner, custody.SignedBy(owner))
	assert.Nil(t, err)
	assert.Nil(t, e.ctrl.MintTo(e.db, mint, ata, amount, custody.SignedBy(e.issuer)))
	return ata
}

// run processes a message the way the host does: a discarded Check
// followed by a Deliver whose changes are kept only on success.
func (e *env) run(t *testing.T, msg custody.Msg, signers ...custody.Address) error {
	t.Helper()
	r := make(router)
	RegisterRoutes(r, &custodytest.Auth{Signers: signers}, e.conf, e.ctrl)
	h, ok := r[msg.Path()]
	if !ok {
		t.Fatalf("no handler for %s", msg.Path())
	}
	info := custodytest.BlockInfo(t, e.slot)
	tx := &custodytest.Tx{Msg: msg}

	check := e.db.CacheWrap()
	_, checkErr := h.Check(context.TODO(), info, check, tx)
	check.Discard()

	deliver := e.db.CacheWrap()
	_, err := h.Deliver(context.TODO(), info, deliver, tx)
	if err != nil {
		deliver.Discard()
	} else {
		assert.Nil(t, deliver.Write())
	}
	if (checkErr == nil) != (err == nil) {
		t.Fatalf("check and deliver disagree: %v, %v", checkErr, err)
	}
	return err
}

type router map[string]custody.Handler

func (r router) Handle(path string, h custody.Handler) { r[path] = h }

func (e *env) addresses(t *testing.T, seed uint64) (auth, escrow, vault custody.Address) {
	t.Helper()
	auth, escrow, vault, err := Addresses(e.conf.ProgramID, e.maker, seed)
	assert.Nil(t, err)
	return auth, escrow, vault
}

func (e *env) makeMsg(t *testing.T, seed, deposit, offer, expiry uint64) *MakeMsg {
	auth, escrow, vault := e.addresses(t, seed)
	return &MakeMsg{
		Maker:         e.maker,
		MakerAsset:    e.makerAsset,
		TakerAsset:    e.takerAsset,
		MakerToken:    e.makerToken,
		Auth:          auth,
		Escrow:        escrow,
		Vault:         vault,
		Seed:          seed,
		DepositAmount: deposit,
		OfferAmount:   offer,
		Expiry:        expiry,
	}
}

func (e *env) takeMsg(t *testing.T, seed uint64) *TakeMsg {
	auth, escrow, vault := e.addresses(t, seed)
	takerReceive, err := ledger.AssociatedTokenAddress(e.taker, e.makerAsset)
	assert.Nil(t, err)
	makerReceive, err := ledger.AssociatedTokenAddress(e.maker, e.takerAsset)
	assert.Nil(t, err)
	return &TakeMsg{
		Taker:        e.taker,
		Maker:        e.maker,
		MakerAsset:   e.makerAsset,
		TakerAsset:   e.takerAsset,
		TakerToken:   e.takerToken,
		TakerReceive: takerReceive,
		MakerReceive: makerReceive,
		Auth:         auth,
		Escrow:       escrow,
		Vault:        vault,
	}
}

func (e *env) refundMsg(t *testing.T, seed uint64) *RefundMsg {
	auth, escrow, vault := e.addresses(t, seed)
	return &RefundMsg{
		Maker:      e.maker,
		MakerAsset: e.makerAsset,
		MakerToken: e.makerToken,
		Auth:       auth,
		Escrow:     escrow,
		Vault:      vault,
	}
}

func (e *env) tokens(t *testing.T, addr custody.Address) uint64 {
	t.Helper()
	acc, err := e.ctrl.TokenAccount(e.db, addr)
	assert.Nil(t, err)
	return acc.Amount
}

func (e *env) lamports(t *testing.T, addr custody.Address) uint64 {
	t.Helper()
	b, err := e.ctrl.Balance(e.db, addr)
	assert.Nil(t, err)
	return b
}

func (e *env) escrow(t *testing.T, seed uint64) *Escrow {
	t.Helper()
	_, addr, _ := e.addresses(t, seed)
	var esc Escrow
	assert.Nil(t, NewBucket().One(e.db, addr, &esc))
	return &esc
}

func (e *env) assertClosed(t *testing.T, seed uint64) {
	t.Helper()
	_, escrow, vault := e.addresses(t, seed)
	ok, err := NewBucket().Has(e.db, escrow)
	assert.Nil(t, err)
	assert.Equal(t, false, ok)
	ok, err = e.ctrl.HasTokenAccount(e.db, vault)
	assert.Nil(t, err)
	assert.Equal(t, false, ok)
}

func TestMake(t *testing.T) {
	cases := map[string]struct {
		mutate  func(e *env, m *MakeMsg) []custody.Address
		wantErr *errors.Error
	}{
		"success": {
			mutate: func(e *env, m *MakeMsg) []custody.Address {
				return []custody.Address{e.maker}
			},
		},
		"maker did not sign": {
			mutate: func(e *env, m *MakeMsg) []custody.Address {
				return []custody.Address{e.taker}
			},
			wantErr: errors.ErrUnauthorized,
		},
		"expiry at the bound": {
			mutate: func(e *env, m *MakeMsg) []custody.Address {
				m.Expiry = DefaultMaxExpiry
				return []custody.Address{e.maker}
			},
			wantErr: errors.ErrExpiryOutOfBounds,
		},
		"escrow not derived from the seed": {
			mutate: func(e *env, m *MakeMsg) []custody.Address {
				m.Seed++
				return []custody.Address{e.maker}
			},
			wantErr: errors.ErrAddressMismatch,
		},
		"wrong auth address": {
			mutate: func(e *env, m *MakeMsg) []custody.Address {
				m.Auth = m.Vault
				return []custody.Address{e.maker}
			},
			wantErr: errors.ErrAddressMismatch,
		},
		"deposit above balance": {
			mutate: func(e *env, m *MakeMsg) []custody.Address {
				m.DepositAmount = 101
				return []custody.Address{e.maker}
			},
			wantErr: errors.ErrInsufficientFunds,
		},
		"maker token of another mint": {
			mutate: func(e *env, m *MakeMsg) []custody.Address {
				m.MakerAsset = e.takerAsset
				return []custody.Address{e.maker}
			},
			wantErr: errors.ErrAddressMismatch,
		},
		"unknown taker asset": {
			mutate: func(e *env, m *MakeMsg) []custody.Address {
				m.TakerAsset = custodytest.NewAddress("nothing")
				return []custody.Address{e.maker}
			},
			wantErr: errors.ErrNotFound,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			e := newEnv(t)
			msg := e.makeMsg(t, 5, 100, 50, 1000)
			signers := tc.mutate(e, msg)
			err := e.run(t, msg, signers...)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.wantErr != nil {
				// Nothing moved.
				assert.Equal(t, uint64(100), e.tokens(t, e.makerToken))
				assert.Equal(t, uint64(1000-reserve), e.lamports(t, e.maker))
				return
			}

			esc := e.escrow(t, 5)
			assert.Equal(t, e.maker, esc.Maker)
			assert.Equal(t, uint64(50), esc.OfferAmount)
			assert.Equal(t, uint64(1010), esc.Expiry)

			assert.Equal(t, uint64(0), e.tokens(t, e.makerToken))
			assert.Equal(t, uint64(100), e.tokens(t, msg.Vault))
			vault, err := e.ctrl.TokenAccount(e.db, msg.Vault)
			assert.Nil(t, err)
			assert.Equal(t, msg.Auth, vault.Owner)
			assert.Equal(t, uint64(1000-2*reserve), e.lamports(t, e.maker))

			// The same seed cannot be used twice.
			err = e.run(t, e.makeMsg(t, 5, 1, 1, 0), e.maker)
			assert.IsErr(t, errors.ErrDuplicate, err)
		})
	}
}

func TestMakeThenRefund(t *testing.T) {
	e := newEnv(t)
	assert.Nil(t, e.run(t, e.makeMsg(t, 5, 100, 50, 1000), e.maker))
	assert.Nil(t, e.run(t, e.refundMsg(t, 5), e.maker))

	assert.Equal(t, uint64(100), e.tokens(t, e.makerToken))
	assert.Equal(t, uint64(1000-reserve), e.lamports(t, e.maker))
	e.assertClosed(t, 5)

	// The seed can be used again once the escrow is gone.
	assert.Nil(t, e.run(t, e.makeMsg(t, 5, 10, 50, 0), e.maker))
}

func TestTake(t *testing.T) {
	e := newEnv(t)
	assert.Nil(t, e.run(t, e.makeMsg(t, 1, 100, 50, 0), e.maker))
	msg := e.takeMsg(t, 1)
	assert.Nil(t, e.run(t, msg, e.taker))

	assert.Equal(t, uint64(0), e.tokens(t, e.makerToken))
	assert.Equal(t, uint64(50), e.tokens(t, msg.MakerReceive))
	assert.Equal(t, uint64(0), e.tokens(t, e.takerToken))
	assert.Equal(t, uint64(100), e.tokens(t, msg.TakerReceive))
	e.assertClosed(t, 1)

	// The vault reserve went back to the maker, the taker paid for both
	// receive accounts.
	assert.Equal(t, uint64(1000-reserve), e.lamports(t, e.maker))
	assert.Equal(t, uint64(1000-3*reserve), e.lamports(t, e.taker))

	err := e.run(t, msg, e.taker)
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestTakeRejected(t *testing.T) {
	stranger := custodytest.NewAddress("stranger")
	cases := map[string]struct {
		mutate  func(e *env, m *TakeMsg) []custody.Address
		wantErr *errors.Error
	}{
		"taker did not sign": {
			mutate: func(e *env, m *TakeMsg) []custody.Address {
				return []custody.Address{stranger}
			},
			wantErr: errors.ErrUnauthorized,
		},
		"wrong vault": {
			mutate: func(e *env, m *TakeMsg) []custody.Address {
				m.Vault = stranger
				return []custody.Address{e.taker}
			},
			wantErr: errors.ErrAddressMismatch,
		},
		"wrong auth": {
			mutate: func(e *env, m *TakeMsg) []custody.Address {
				m.Auth = m.Escrow
				return []custody.Address{e.taker}
			},
			wantErr: errors.ErrAddressMismatch,
		},
		"maker receive redirected": {
			mutate: func(e *env, m *TakeMsg) []custody.Address {
				m.MakerReceive = e.takerToken
				return []custody.Address{e.taker}
			},
			wantErr: errors.ErrAddressMismatch,
		},
		"maker asset substituted": {
			mutate: func(e *env, m *TakeMsg) []custody.Address {
				m.MakerAsset = e.takerAsset
				return []custody.Address{e.taker}
			},
			wantErr: errors.ErrAddressMismatch,
		},
		"taker pays from a foreign account": {
			mutate: func(e *env, m *TakeMsg) []custody.Address {
				m.TakerToken = e.makerToken
				return []custody.Address{e.taker}
			},
			wantErr: errors.ErrAddressMismatch,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			e := newEnv(t)
			assert.Nil(t, e.run(t, e.makeMsg(t, 1, 100, 50, 0), e.maker))
			msg := e.takeMsg(t, 1)
			signers := tc.mutate(e, msg)
			err := e.run(t, msg, signers...)
			assert.IsErr(t, tc.wantErr, err)

			_, _, vault := e.addresses(t, 1)
			assert.Equal(t, uint64(100), e.tokens(t, vault))
			assert.Equal(t, uint64(50), e.tokens(t, e.takerToken))
			assert.Equal(t, uint64(1000-reserve), e.lamports(t, e.taker))
		})
	}
}

func TestTakeInsufficientFunds(t *testing.T) {
	e := newEnv(t)
	assert.Nil(t, e.run(t, e.makeMsg(t, 1, 100, 51, 0), e.maker))
	err := e.run(t, e.takeMsg(t, 1), e.taker)
	assert.IsErr(t, errors.ErrInsufficientFunds, err)
	assert.Equal(t, uint64(50), e.tokens(t, e.takerToken))
}

func TestTakeExpiry(t *testing.T) {
	e := newEnv(t)
	assert.Nil(t, e.run(t, e.makeMsg(t, 1, 100, 50, 100), e.maker))
	assert.Equal(t, uint64(110), e.escrow(t, 1).Expiry)

	e.slot = 110
	err := e.run(t, e.takeMsg(t, 1), e.taker)
	assert.IsErr(t, errors.ErrExpired, err)

	e.slot = 109
	assert.Nil(t, e.run(t, e.takeMsg(t, 1), e.taker))
	e.assertClosed(t, 1)
}

func TestRefundAfterExpiry(t *testing.T) {
	e := newEnv(t)
	assert.Nil(t, e.run(t, e.makeMsg(t, 1, 100, 50, 100), e.maker))
	e.slot = 5000
	assert.Nil(t, e.run(t, e.refundMsg(t, 1), e.maker))
	assert.Equal(t, uint64(100), e.tokens(t, e.makerToken))
	e.assertClosed(t, 1)
}

func TestOnlyMakerCanChangeEscrow(t *testing.T) {
	e := newEnv(t)
	assert.Nil(t, e.run(t, e.makeMsg(t, 1, 100, 50, 1000), e.maker))
	before := e.escrow(t, 1)
	_, escrow, _ := e.addresses(t, 1)

	update := &UpdateMsg{Maker: e.maker, Escrow: escrow, OfferAmount: 1}
	err := e.run(t, update, e.taker)
	assert.IsErr(t, errors.ErrUnauthorized, err)

	// Naming the taker as maker does not help.
	impersonate := &UpdateMsg{Maker: e.taker, Escrow: escrow, OfferAmount: 1}
	err = e.run(t, impersonate, e.taker)
	assert.IsErr(t, errors.ErrUnauthorized, err)

	refund := e.refundMsg(t, 1)
	refund.MakerToken = e.takerToken
	err = e.run(t, refund, e.taker)
	assert.IsErr(t, errors.ErrUnauthorized, err)

	assert.Equal(t, before, e.escrow(t, 1))
	_, _, vault := e.addresses(t, 1)
	assert.Equal(t, uint64(100), e.tokens(t, vault))
}

func TestUpdate(t *testing.T) {
	e := newEnv(t)
	assert.Nil(t, e.run(t, e.makeMsg(t, 1, 100, 50, 1000), e.maker))
	_, escrow, vault := e.addresses(t, 1)

	other := custodytest.NewAddress("other-asset")
	assert.Nil(t, e.ctrl.CreateMint(e.db, other, &ledger.Mint{Authority: e.issuer}))

	e.slot = 20
	msg := &UpdateMsg{Maker: e.maker, Escrow: escrow, NewTakerAsset: other, OfferAmount: 70, Expiry: 30}
	assert.Nil(t, e.run(t, msg, e.maker))
	esc := e.escrow(t, 1)
	assert.Equal(t, other, esc.TakerAsset)
	assert.Equal(t, uint64(70), esc.OfferAmount)
	assert.Equal(t, uint64(50), esc.Expiry)

	// A zero taker asset keeps the recorded one.
	msg = &UpdateMsg{Maker: e.maker, Escrow: escrow, OfferAmount: 40}
	assert.Nil(t, e.run(t, msg, e.maker))
	esc = e.escrow(t, 1)
	assert.Equal(t, other, esc.TakerAsset)
	assert.Equal(t, uint64(0), esc.Expiry)

	msg = &UpdateMsg{Maker: e.maker, Escrow: escrow, OfferAmount: 40, Expiry: DefaultMaxExpiry}
	err := e.run(t, msg, e.maker)
	assert.IsErr(t, errors.ErrExpiryOutOfBounds, err)

	// The deposit is never touched.
	assert.Equal(t, uint64(100), e.tokens(t, vault))
}

func TestTakeRequiresReserves(t *testing.T) {
	e := newEnv(t)
	assert.Nil(t, e.run(t, e.makeMsg(t, 1, 100, 50, 0), e.maker))
	sink := custodytest.NewAddress("sink")

	// Both receive accounts are missing: the taker needs two reserves.
	left := 2*reserve - 1
	spend := e.lamports(t, e.taker) - uint64(left)
	assert.Nil(t, e.ctrl.TransferLamports(e.db, e.taker, sink, spend, custody.SignedBy(e.taker)))
	err := e.run(t, e.takeMsg(t, 1), e.taker)
	assert.IsErr(t, errors.ErrInsufficientFunds, err)
	assert.Equal(t, uint64(50), e.tokens(t, e.takerToken))

	// With the maker receive account already open one reserve is enough.
	_, err = e.ctrl.EnsureAssociatedAccount(e.db, e.maker, e.takerAsset, e.maker, custody.SignedBy(e.maker))
	assert.Nil(t, err)
	assert.Nil(t, e.run(t, e.takeMsg(t, 1), e.taker))
	assert.Equal(t, uint64(left-reserve), e.lamports(t, e.taker))
	e.assertClosed(t, 1)
}
