package ledger

import (
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/custodytest"
	"github.com/iov-one/custody/custodytest/assert"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
)

const testReserve = 1000

type fixture struct {
	ctrl      Controller
	mint      custody.Address
	authority custody.Address
}

func newFixture(t testing.TB, db custody.KVStore) fixture {
	t.Helper()
	f := fixture{
		ctrl:      NewController(Configuration{AccountReserve: testReserve}),
		mint:      custodytest.NewAddress("mint"),
		authority: custodytest.NewAddress("mint-authority"),
	}
	err := f.ctrl.CreateMint(db, f.mint, &Mint{Authority: f.authority, Decimals: 6})
	assert.Nil(t, err)
	return f
}

// fund creates the associated token account of the owner holding given
// amount of tokens.
func (f fixture) fund(t testing.TB, db custody.KVStore, owner custody.Address, amount uint64) custody.Address {
	t.Helper()
	assert.Nil(t, f.ctrl.IssueLamports(db, owner, testReserve))
	ata, err := f.ctrl.EnsureAssociatedAccount(db, owner, f.mint, owner, custody.SignedBy(owner))
	assert.Nil(t, err)
	if amount > 0 {
		assert.Nil(t, f.ctrl.MintTo(db, f.mint, ata, amount, custody.SignedBy(f.authority)))
	}
	return ata
}

func TestTransferLamports(t *testing.T) {
	alice := custodytest.NewAddress("alice")
	bob := custodytest.NewAddress("bob")

	cases := map[string]struct {
		amount   uint64
		auth     custody.Authority
		wantErr  *errors.Error
		wantFrom uint64
		wantTo   uint64
	}{
		"full balance": {
			amount:   500,
			auth:     custody.SignedBy(alice),
			wantFrom: 0,
			wantTo:   500,
		},
		"partial": {
			amount:   200,
			auth:     custody.SignedBy(alice),
			wantFrom: 300,
			wantTo:   200,
		},
		"insufficient": {
			amount:   501,
			auth:     custody.SignedBy(alice),
			wantErr:  errors.ErrInsufficientFunds,
			wantFrom: 500,
		},
		"wrong signer": {
			amount:   1,
			auth:     custody.SignedBy(bob),
			wantErr:  errors.ErrUnauthorized,
			wantFrom: 500,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			db := store.MemStore()
			ctrl := NewController(Configuration{AccountReserve: testReserve})
			assert.Nil(t, ctrl.IssueLamports(db, alice, 500))

			err := ctrl.TransferLamports(db, alice, bob, tc.amount, tc.auth)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			from, err := ctrl.Balance(db, alice)
			assert.Nil(t, err)
			assert.Equal(t, tc.wantFrom, from)
			to, err := ctrl.Balance(db, bob)
			assert.Nil(t, err)
			assert.Equal(t, tc.wantTo, to)
		})
	}
}

func TestAssociatedAccountPaysReserve(t *testing.T) {
	db := store.MemStore()
	f := newFixture(t, db)
	owner := custodytest.NewAddress("owner")
	payer := custodytest.NewAddress("payer")
	assert.Nil(t, f.ctrl.IssueLamports(db, payer, testReserve+1))

	ata, err := f.ctrl.EnsureAssociatedAccount(db, owner, f.mint, payer, custody.SignedBy(payer))
	assert.Nil(t, err)
	want, err := AssociatedTokenAddress(owner, f.mint)
	assert.Nil(t, err)
	assert.Equal(t, want, ata)

	left, err := f.ctrl.Balance(db, payer)
	assert.Nil(t, err)
	assert.Equal(t, uint64(1), left)
	locked, err := f.ctrl.Balance(db, ata)
	assert.Nil(t, err)
	assert.Equal(t, uint64(testReserve), locked)

	// A second call finds the existing account and charges nothing.
	again, err := f.ctrl.EnsureAssociatedAccount(db, owner, f.mint, payer, custody.SignedBy(payer))
	assert.Nil(t, err)
	assert.Equal(t, ata, again)
	left, err = f.ctrl.Balance(db, payer)
	assert.Nil(t, err)
	assert.Equal(t, uint64(1), left)

	// Nobody can pay for an account without enough lamports.
	poor := custodytest.NewAddress("poor")
	_, err = f.ctrl.EnsureAssociatedAccount(db, poor, f.mint, poor, custody.SignedBy(poor))
	assert.IsErr(t, errors.ErrInsufficientFunds, err)
}

func TestInitAccountRequiresAccountAuthority(t *testing.T) {
	db := store.MemStore()
	f := newFixture(t, db)
	payer := custodytest.NewAddress("payer")
	assert.Nil(t, f.ctrl.IssueLamports(db, payer, 2*testReserve))

	program := custodytest.NewAddress("program")
	account, bump, err := custody.Derive(program, "vault", []byte("seed"))
	assert.Nil(t, err)
	cred := custody.NewCredential(program, bump, "vault", []byte("seed"))

	err = f.ctrl.InitAccount(db, account, f.mint, account, payer, custody.SignedBy(payer))
	assert.IsErr(t, errors.ErrUnauthorized, err)

	err = f.ctrl.InitAccount(db, account, f.mint, account, payer, custody.Authorities{custody.SignedBy(payer), cred})
	assert.Nil(t, err)

	err = f.ctrl.InitAccount(db, account, f.mint, account, payer, custody.Authorities{custody.SignedBy(payer), cred})
	assert.IsErr(t, errors.ErrDuplicate, err)
}

func TestTokenTransfer(t *testing.T) {
	alice := custodytest.NewAddress("alice")
	bob := custodytest.NewAddress("bob")

	cases := map[string]struct {
		amount    uint64
		auth      func(f fixture) custody.Authority
		checked   bool
		decimals  uint8
		wantErr   *errors.Error
		wantAlice uint64
		wantBob   uint64
	}{
		"owner moves tokens": {
			amount:    40,
			auth:      func(fixture) custody.Authority { return custody.SignedBy(alice) },
			wantAlice: 60,
			wantBob:   40,
		},
		"checked transfer": {
			amount:    100,
			auth:      func(fixture) custody.Authority { return custody.SignedBy(alice) },
			checked:   true,
			decimals:  6,
			wantAlice: 0,
			wantBob:   100,
		},
		"checked transfer with wrong decimals": {
			amount:    1,
			auth:      func(fixture) custody.Authority { return custody.SignedBy(alice) },
			checked:   true,
			decimals:  9,
			wantErr:   errors.ErrInvalidInput,
			wantAlice: 100,
		},
		"not the owner": {
			amount:    1,
			auth:      func(fixture) custody.Authority { return custody.SignedBy(bob) },
			wantErr:   errors.ErrUnauthorized,
			wantAlice: 100,
		},
		"too much": {
			amount:    101,
			auth:      func(fixture) custody.Authority { return custody.SignedBy(alice) },
			wantErr:   errors.ErrInsufficientFunds,
			wantAlice: 100,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			db := store.MemStore()
			f := newFixture(t, db)
			from := f.fund(t, db, alice, 100)
			to := f.fund(t, db, bob, 0)

			var err error
			if tc.checked {
				err = f.ctrl.TransferChecked(db, from, f.mint, to, tc.amount, tc.decimals, tc.auth(f))
			} else {
				err = f.ctrl.Transfer(db, from, to, tc.amount, tc.auth(f))
			}
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}

			src, err := f.ctrl.TokenAccount(db, from)
			assert.Nil(t, err)
			assert.Equal(t, tc.wantAlice, src.Amount)
			dst, err := f.ctrl.TokenAccount(db, to)
			assert.Nil(t, err)
			assert.Equal(t, tc.wantBob, dst.Amount)
		})
	}
}

func TestTransferRejectsForeignMint(t *testing.T) {
	db := store.MemStore()
	f := newFixture(t, db)
	alice := custodytest.NewAddress("alice")
	from := f.fund(t, db, alice, 10)

	other := custodytest.NewAddress("other-mint")
	assert.Nil(t, f.ctrl.CreateMint(db, other, &Mint{Authority: f.authority}))
	assert.Nil(t, f.ctrl.IssueLamports(db, alice, testReserve))
	to, err := f.ctrl.EnsureAssociatedAccount(db, alice, other, alice, custody.SignedBy(alice))
	assert.Nil(t, err)

	err = f.ctrl.Transfer(db, from, to, 1, custody.SignedBy(alice))
	assert.IsErr(t, errors.ErrInvalidInput, err)
}

func TestCloseAccount(t *testing.T) {
	db := store.MemStore()
	f := newFixture(t, db)
	alice := custodytest.NewAddress("alice")
	ata := f.fund(t, db, alice, 5)
	dest := custodytest.NewAddress("destination")

	err := f.ctrl.CloseAccount(db, ata, dest, custody.SignedBy(alice))
	assert.IsErr(t, errors.ErrInvalidState, err)

	bob := f.fund(t, db, custodytest.NewAddress("bob"), 0)
	assert.Nil(t, f.ctrl.Transfer(db, ata, bob, 5, custody.SignedBy(alice)))

	err = f.ctrl.CloseAccount(db, ata, dest, custody.SignedBy(dest))
	assert.IsErr(t, errors.ErrUnauthorized, err)

	assert.Nil(t, f.ctrl.CloseAccount(db, ata, dest, custody.SignedBy(alice)))
	got, err := f.ctrl.Balance(db, dest)
	assert.Nil(t, err)
	assert.Equal(t, uint64(testReserve), got)
	ok, err := f.ctrl.HasTokenAccount(db, ata)
	assert.Nil(t, err)
	assert.Equal(t, false, ok)
}

func TestMintTo(t *testing.T) {
	db := store.MemStore()
	f := newFixture(t, db)
	ata := f.fund(t, db, custodytest.NewAddress("alice"), 0)

	err := f.ctrl.MintTo(db, f.mint, ata, 10, custody.SignedBy(custodytest.NewAddress("alice")))
	assert.IsErr(t, errors.ErrUnauthorized, err)

	assert.Nil(t, f.ctrl.MintTo(db, f.mint, ata, 10, custody.SignedBy(f.authority)))
	m, err := f.ctrl.Mint(db, f.mint)
	assert.Nil(t, err)
	assert.Equal(t, uint64(10), m.Supply)
}
