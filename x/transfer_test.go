package x_test

import (
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/custodytest"
	"github.com/iov-one/custody/custodytest/assert"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
	"github.com/iov-one/custody/x"
	"github.com/iov-one/custody/x/ledger"
)

const reserve = 100

func TestSettle(t *testing.T) {
	program := custodytest.NewAddress("program")
	maker := custodytest.NewAddress("maker")
	taker := custodytest.NewAddress("taker")
	authority := custodytest.NewAddress("authority")
	mintA := custodytest.NewAddress("mint-a")
	mintB := custodytest.NewAddress("mint-b")

	setup := func(t *testing.T) (custody.KVStore, ledger.Controller, x.Settlement) {
		db := store.MemStore()
		ctrl := ledger.NewController(ledger.Configuration{AccountReserve: reserve})
		for _, m := range []custody.Address{mintA, mintB} {
			assert.Nil(t, ctrl.CreateMint(db, m, &ledger.Mint{Authority: authority, Decimals: 3}))
		}
		assert.Nil(t, ctrl.IssueLamports(db, maker, 10*reserve))
		assert.Nil(t, ctrl.IssueLamports(db, taker, 10*reserve))

		ata := func(owner, mint custody.Address, amount uint64) custody.Address {
			addr, err := ctrl.EnsureAssociatedAccount(db, owner, mint, owner, custody.SignedBy(owner))
			assert.Nil(t, err)
			if amount > 0 {
				assert.Nil(t, ctrl.MintTo(db, mint, addr, amount, custody.SignedBy(authority)))
			}
			return addr
		}

		// The vault holds 50 of mint A on behalf of the maker.
		vaultAuth, bump, err := custody.Derive(program, "auth", maker[:])
		assert.Nil(t, err)
		cred := custody.NewCredential(program, bump, "auth", maker[:])
		vault, err := ledger.AssociatedTokenAddress(vaultAuth, mintA)
		assert.Nil(t, err)
		_, err = ctrl.EnsureAssociatedAccount(db, vaultAuth, mintA, maker, custody.SignedBy(maker))
		assert.Nil(t, err)
		assert.Nil(t, ctrl.MintTo(db, mintA, vault, 50, custody.SignedBy(authority)))

		s := x.Settlement{
			Counterparty: taker,
			Counter: x.Leg{
				From:     ata(taker, mintB, 20),
				To:       ata(maker, mintB, 0),
				Amount:   20,
				Mint:     mintB,
				Decimals: 3,
				Checked:  true,
			},
			Authority: cred,
			Release: x.Leg{
				From:   vault,
				To:     ata(taker, mintA, 0),
				Amount: 50,
			},
			CloseTo: maker,
		}
		return db, ctrl, s
	}

	t.Run("success", func(t *testing.T) {
		db, ctrl, s := setup(t)
		assert.Nil(t, x.NewTransfers(ctrl).Settle(db, s))

		got, err := ctrl.TokenAccount(db, s.Counter.To)
		assert.Nil(t, err)
		assert.Equal(t, uint64(20), got.Amount)
		got, err = ctrl.TokenAccount(db, s.Release.To)
		assert.Nil(t, err)
		assert.Equal(t, uint64(50), got.Amount)
		ok, err := ctrl.HasTokenAccount(db, s.Release.From)
		assert.Nil(t, err)
		assert.Equal(t, false, ok)
		// Maker paid one reserve for the vault and one for its receive
		// account, and got the vault reserve back.
		lamports, err := ctrl.Balance(db, maker)
		assert.Nil(t, err)
		assert.Equal(t, uint64(9*reserve), lamports)
	})

	t.Run("counter leg fails first", func(t *testing.T) {
		db, ctrl, s := setup(t)
		s.Counter.Amount = 21
		err := x.NewTransfers(ctrl).Settle(db, s)
		assert.IsErr(t, errors.ErrInsufficientFunds, err)
	})

	t.Run("wrong vault authority", func(t *testing.T) {
		db, ctrl, s := setup(t)
		s.Authority = custody.NewCredential(program, s.Authority.Bump, "auth", taker[:])
		err := x.NewTransfers(ctrl).Settle(db, s)
		assert.IsErr(t, errors.ErrUnauthorized, err)
	})
}

func TestDepositAndRelease(t *testing.T) {
	db := store.MemStore()
	ctrl := ledger.NewController(ledger.Configuration{AccountReserve: reserve})
	transfers := x.NewTransfers(ctrl)

	program := custodytest.NewAddress("program")
	user := custodytest.NewAddress("user")
	vault, bump, err := custody.Derive(program, "vault", user[:])
	assert.Nil(t, err)
	cred := custody.NewCredential(program, bump, "vault", user[:])
	assert.Nil(t, ctrl.IssueLamports(db, user, 500))

	assert.Nil(t, transfers.DepositLamports(db, user, vault, 300, user))
	err = transfers.DepositLamports(db, user, vault, 300, vault)
	assert.IsErr(t, errors.ErrUnauthorized, err)

	assert.Nil(t, transfers.ReleaseLamports(db, cred, vault, user, 100))
	wrong := custody.NewCredential(program, bump, "vault", program[:])
	err = transfers.ReleaseLamports(db, wrong, vault, user, 100)
	assert.IsErr(t, errors.ErrUnauthorized, err)

	got, err := ctrl.Balance(db, user)
	assert.Nil(t, err)
	assert.Equal(t, uint64(300), got)
}
