package app

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/app"
	"github.com/iov-one/custody/custodytest"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x/escrow"
	"github.com/iov-one/custody/x/ledger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
)

type fixture struct {
	host       *Host
	maker      custodytest.Key
	taker      custodytest.Key
	makerAsset custody.Address
	takerAsset custody.Address
	makerToken custody.Address
	takerToken custody.Address
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		maker:      custodytest.NewKey("maker"),
		taker:      custodytest.NewKey("taker"),
		makerAsset: custodytest.NewAddress("maker-asset"),
		takerAsset: custodytest.NewAddress("taker-asset"),
	}
	issuer := custodytest.NewAddress("issuer")

	var err error
	f.makerToken, err = ledger.AssociatedTokenAddress(f.maker.Address(), f.makerAsset)
	require.NoError(t, err)
	f.takerToken, err = ledger.AssociatedTokenAddress(f.taker.Address(), f.takerAsset)
	require.NoError(t, err)

	state := map[string]interface{}{
		"conf": map[string]interface{}{
			"ledger": ledger.Configuration{AccountReserve: 10},
		},
		"ledger": map[string]interface{}{
			"accounts": []ledger.GenesisAccount{
				{Address: f.maker.Address(), Lamports: 1000},
				{Address: f.taker.Address(), Lamports: 1000},
			},
			"mints": []ledger.GenesisMint{
				{Address: f.makerAsset, Authority: issuer, Decimals: 6},
				{Address: f.takerAsset, Authority: issuer, Decimals: 2},
			},
			"tokens": []ledger.GenesisToken{
				{Mint: f.makerAsset, Owner: f.maker.Address(), Amount: 100},
				{Mint: f.takerAsset, Owner: f.taker.Address(), Amount: 50},
			},
		},
	}
	opts := make(custody.Options)
	for k, v := range state {
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		opts[k] = raw
	}

	f.host, err = Application("", prometheus.NewRegistry(), log.NewNopLogger())
	require.NoError(t, err)
	_, err = f.host.Genesis(app.Genesis{ChainID: "custody-test", AppState: opts})
	require.NoError(t, err)
	return f
}

func (f *fixture) tokens(t *testing.T, addr custody.Address) uint64 {
	t.Helper()
	acc, err := ledger.NewController(ledger.Configuration{AccountReserve: 10}).TokenAccount(f.host.Committed(), addr)
	require.NoError(t, err)
	return acc.Amount
}

func (f *fixture) escrowAddresses(t *testing.T, seed uint64) (auth, esc, vault custody.Address) {
	t.Helper()
	auth, esc, vault, err := escrow.Addresses(escrow.DefaultProgramID, f.maker.Address(), seed)
	require.NoError(t, err)
	return auth, esc, vault
}

func TestEscrowEndToEnd(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	auth, esc, vault := f.escrowAddresses(t, 7)

	res, err := f.host.Submit(&escrow.MakeMsg{
		Maker:         f.maker.Address(),
		MakerAsset:    f.makerAsset,
		TakerAsset:    f.takerAsset,
		MakerToken:    f.makerToken,
		Auth:          auth,
		Escrow:        esc,
		Vault:         vault,
		Seed:          7,
		DepositAmount: 100,
		OfferAmount:   50,
	}, 1, now, f.maker.Private)
	require.NoError(t, err)
	assert.Equal(t, esc[:], res.Data)
	assert.Equal(t, uint64(0), f.tokens(t, f.makerToken))
	assert.Equal(t, uint64(100), f.tokens(t, vault))

	takerReceive, err := ledger.AssociatedTokenAddress(f.taker.Address(), f.makerAsset)
	require.NoError(t, err)
	makerReceive, err := ledger.AssociatedTokenAddress(f.maker.Address(), f.takerAsset)
	require.NoError(t, err)

	take := &escrow.TakeMsg{
		Taker:        f.taker.Address(),
		Maker:        f.maker.Address(),
		MakerAsset:   f.makerAsset,
		TakerAsset:   f.takerAsset,
		TakerToken:   f.takerToken,
		TakerReceive: takerReceive,
		MakerReceive: makerReceive,
		Auth:         auth,
		Escrow:       esc,
		Vault:        vault,
	}

	// only signatures of the taker are accepted
	_, err = f.host.Submit(take, 2, now, f.maker.Private)
	assert.True(t, errors.ErrUnauthorized.Is(err), "unexpected error: %+v", err)

	_, err = f.host.Submit(take, 3, now, f.taker.Private)
	require.NoError(t, err)

	assert.Equal(t, uint64(100), f.tokens(t, takerReceive))
	assert.Equal(t, uint64(50), f.tokens(t, makerReceive))
	assert.Equal(t, uint64(0), f.tokens(t, f.takerToken))

	has, err := escrow.NewBucket().Has(f.host.Committed(), esc)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestReopenAttachesHandler(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "custody-test", f.host.ChainID())

	confs, err := LoadConfigurations(f.host.Committed())
	require.NoError(t, err)
	assert.Equal(t, uint64(10), confs.Ledger.AccountReserve)
	assert.Equal(t, escrow.DefaultProgramID, confs.Escrow.ProgramID)
	assert.Equal(t, uint64(escrow.DefaultMaxExpiry), confs.Escrow.MaxExpiry)
}

func TestCodecRegistryMatchesRouter(t *testing.T) {
	confs := Configurations{
		Ledger: ledger.Configuration{AccountReserve: 1},
	}
	r := Router(Authenticator(), confs)
	assert.ElementsMatch(t, CodecRegistry().Paths(), r.Paths())
}

func TestLoadConfigurationsBeforeGenesis(t *testing.T) {
	h, err := Application("", prometheus.NewRegistry(), log.NewNopLogger())
	require.NoError(t, err)
	_, err = LoadConfigurations(h.Committed())
	assert.True(t, errors.ErrNotFound.Is(err))
}
