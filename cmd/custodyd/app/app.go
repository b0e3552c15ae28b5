/*
Package app links together all the custody programs to construct the
custodyd host.
*/
package app

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/app"
	"github.com/iov-one/custody/codec"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store/iavl"
	"github.com/iov-one/custody/x"
	"github.com/iov-one/custody/x/escrow"
	"github.com/iov-one/custody/x/exchange"
	"github.com/iov-one/custody/x/ledger"
	"github.com/iov-one/custody/x/sigs"
	"github.com/iov-one/custody/x/vault"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tendermint/tendermint/libs/log"
	"golang.org/x/crypto/ed25519"
)

// Authenticator returns the typical authentication, just using public key
// signatures.
func Authenticator() x.Authenticator {
	return x.ChainAuth(sigs.Authenticate{})
}

// Chain returns a chain of decorators, to handle logging, recovery,
// metrics and signature verification.
func Chain(metrics *app.Metrics) app.Decorators {
	return app.ChainDecorators(
		app.NewLogging(),
		app.NewRecovery(),
		metrics,
		sigs.NewDecorator(),
	)
}

// Configurations groups the configuration of every program, as stored at
// genesis.
type Configurations struct {
	Ledger   ledger.Configuration
	Vault    vault.Configuration
	Escrow   escrow.Configuration
	Exchange exchange.Configuration
}

// LoadConfigurations reads the configuration of every program from the
// state.
func LoadConfigurations(db custody.ReadOnlyKVStore) (Configurations, error) {
	var (
		confs Configurations
		err   error
	)
	if confs.Ledger, err = ledger.LoadConfiguration(db); err != nil {
		return confs, errors.Wrap(err, "ledger")
	}
	if confs.Vault, err = vault.LoadConfiguration(db); err != nil {
		return confs, errors.Wrap(err, "vault")
	}
	if confs.Escrow, err = escrow.LoadConfiguration(db); err != nil {
		return confs, errors.Wrap(err, "escrow")
	}
	if confs.Exchange, err = exchange.LoadConfiguration(db); err != nil {
		return confs, errors.Wrap(err, "exchange")
	}
	return confs, nil
}

// Router returns a router dispatching to every custody program.
func Router(authFn x.Authenticator, confs Configurations) *app.Router {
	ctrl := ledger.NewController(confs.Ledger)
	r := app.NewRouter()
	ledger.RegisterRoutes(r, authFn, ctrl)
	sigs.RegisterRoutes(r, authFn)
	vault.RegisterRoutes(r, authFn, confs.Vault, ctrl)
	escrow.RegisterRoutes(r, authFn, confs.Escrow, ctrl)
	exchange.RegisterRoutes(r, authFn, confs.Exchange, ctrl)
	return r
}

// CodecRegistry returns the decoder of every instruction the Router
// handles.
func CodecRegistry() *codec.Registry {
	r := codec.NewRegistry()
	ledger.RegisterCodec(r)
	sigs.RegisterCodec(r)
	vault.RegisterCodec(r)
	escrow.RegisterCodec(r)
	exchange.RegisterCodec(r)
	return r
}

// GenesisInitializers returns the initializers of all programs, ledger
// first so that program genesis can rely on accounts and mints.
func GenesisInitializers() custody.Initializer {
	return custody.ChainInitializers{
		ledger.Initializer{},
		vault.Initializer{},
		escrow.Initializer{},
		exchange.Initializer{},
	}
}

// Stack wires up a standard router with a standard decorator chain, using
// the configuration found in given state.
func Stack(db custody.ReadOnlyKVStore, metrics *app.Metrics) (custody.Handler, error) {
	confs, err := LoadConfigurations(db)
	if err != nil {
		return nil, err
	}
	authFn := Authenticator()
	return Chain(metrics).WithHandler(Router(authFn, confs)), nil
}

// Application opens the state stored under dbPath. When the chain is
// already initialized the returned host is ready to process instructions,
// otherwise Genesis must be called first. Instruction metrics are
// registered with reg and exported by WriteMetrics.
func Application(dbPath string, reg *prometheus.Registry, logger log.Logger) (*Host, error) {
	metrics, err := app.NewMetrics(reg)
	if err != nil {
		return nil, err
	}
	kv, err := CommitKVStore(dbPath)
	if err != nil {
		return nil, err
	}
	registry := CodecRegistry()
	h := &Host{Registry: registry, metrics: metrics, gatherer: reg, kv: kv}
	h.Executor, err = app.NewExecutor(kv, registry.TxDecoder(), GenesisInitializers())
	if err != nil {
		h.Close()
		return nil, err
	}
	h.WithLogger(logger)
	if h.ChainID() != "" {
		if err := h.Attach(); err != nil {
			h.Close()
			return nil, err
		}
	}
	return h, nil
}

// Host is an executor together with the codec of its instructions.
type Host struct {
	*app.Executor
	Registry *codec.Registry

	metrics  *app.Metrics
	gatherer prometheus.Gatherer
	kv       custody.CommitKVStore
}

// WriteMetrics writes everything gathered so far to path in the Prometheus
// text exposition format. The file is replaced atomically, so it can be
// picked up by a node exporter textfile collector.
func (h *Host) WriteMetrics(path string) error {
	if err := prometheus.WriteToTextfile(path, h.gatherer); err != nil {
		return errors.Wrapf(errors.ErrInvalidState, "write metrics: %s", err)
	}
	return nil
}

// Close releases the database of a disk backed state.
func (h *Host) Close() {
	if c, ok := h.kv.(interface{ Close() }); ok {
		c.Close()
	}
}

// Attach builds the handler stack from the committed configuration.
func (h *Host) Attach() error {
	stack, err := Stack(h.Committed(), h.metrics)
	if err != nil {
		return errors.Wrap(err, "build handler")
	}
	h.WithHandler(stack)
	return nil
}

// Genesis initializes the chain, commits the genesis state and attaches the
// handler stack configured by it.
func (h *Host) Genesis(gen app.Genesis) (custody.CommitID, error) {
	if err := h.InitChain(gen); err != nil {
		return custody.CommitID{}, err
	}
	id, err := h.Commit()
	if err != nil {
		return id, err
	}
	return id, h.Attach()
}

// CommitKVStore returns an initialized KVStore that persists the data to
// the named path.
func CommitKVStore(dbPath string) (custody.CommitKVStore, error) {
	// memory backed case, just for testing
	if dbPath == "" {
		return iavl.MockCommitStore(), nil
	}

	path, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "invalid database name: %s", dbPath)
	}

	// Some external calls accidently add a ".db", which is now removed
	path = strings.TrimSuffix(path, filepath.Ext(path))

	// Split the database name into it's components (dir, name)
	dir := filepath.Dir(path)
	name := filepath.Base(path)
	return iavl.NewCommitStore(dir, name)
}

// Submit signs given instruction with all keys, using the next sequence of
// every signer, and processes it in a block of its own. The block is
// committed only when the instruction succeeds.
func (h *Host) Submit(msg custody.Msg, slot uint64, now time.Time, keys ...ed25519.PrivateKey) (*custody.DeliverResult, error) {
	tx, err := codec.NewTx(msg)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		signer, err := custody.NewAddress(key.Public().(ed25519.PublicKey))
		if err != nil {
			return nil, err
		}
		seq, err := sigs.NextNonce(h.Committed(), signer)
		if err != nil {
			return nil, err
		}
		sig, err := sigs.SignTx(key, tx, h.ChainID(), seq)
		if err != nil {
			return nil, errors.Wrapf(err, "sign with %s", signer)
		}
		tx.Signatures = append(tx.Signatures, sig)
	}
	raw, err := tx.Marshal()
	if err != nil {
		return nil, err
	}

	if err := h.BeginBlock(slot, now); err != nil {
		return nil, err
	}
	if _, err := h.CheckTx(raw); err != nil {
		return nil, errors.Wrap(err, "check")
	}
	res, err := h.DeliverTx(raw)
	if err != nil {
		return nil, errors.Wrap(err, "deliver")
	}
	if _, err := h.Commit(); err != nil {
		return nil, err
	}
	return res, nil
}
