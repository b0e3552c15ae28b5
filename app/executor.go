package app

import (
	"context"
	"time"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

// Executor is the host processing instructions one at a time. Every
// instruction runs in its own cache wrap on top of the block state: the
// changes of a successful DeliverTx are kept, a failing one leaves no
// trace. CheckTx changes are always dropped.
type Executor struct {
	logger      log.Logger
	store       *CommitStore
	decoder     custody.TxDecoder
	handler     custody.Handler
	initializer custody.Initializer

	// chainID is loaded from the store, or set by InitChain.
	chainID string
	info    custody.BlockInfo
	inBlock bool
}

// NewExecutor loads the latest committed state of given store. Handlers
// usually depend on the configuration stored at genesis, so they are
// attached later with WithHandler.
func NewExecutor(store custody.CommitKVStore, decoder custody.TxDecoder, init custody.Initializer) (*Executor, error) {
	cs, err := NewCommitStore(store)
	if err != nil {
		return nil, err
	}
	chainID, err := loadChainID(cs.DeliverStore())
	if err != nil {
		return nil, err
	}
	return &Executor{
		logger:      log.NewNopLogger(),
		store:       cs,
		decoder:     decoder,
		initializer: init,
		chainID:     chainID,
	}, nil
}

// WithLogger sets the logger passed to every handler.
func (e *Executor) WithLogger(logger log.Logger) *Executor {
	e.logger = logger
	return e
}

// WithHandler sets the handler processing every instruction.
func (e *Executor) WithHandler(h custody.Handler) *Executor {
	e.handler = h
	return e
}

// ChainID returns the chain the state belongs to, empty before InitChain.
func (e *Executor) ChainID() string {
	return e.chainID
}

// InitChain stores the chain id and runs all genesis initializers. It can
// be called only once in the lifetime of a state.
func (e *Executor) InitChain(gen Genesis) error {
	if e.chainID != "" {
		return errors.Wrapf(errors.ErrInvalidState, "state already initialized for chain %s", e.chainID)
	}
	if !custody.IsValidChainID(gen.ChainID) {
		return errors.Wrapf(errors.ErrInvalidInput, "chain id %q", gen.ChainID)
	}
	db := e.store.DeliverStore().CacheWrap()
	if err := saveChainID(db, gen.ChainID); err != nil {
		db.Discard()
		return err
	}
	if err := e.initializer.FromGenesis(gen.AppState, db); err != nil {
		db.Discard()
		return errors.Wrap(err, "genesis")
	}
	if err := db.Write(); err != nil {
		return err
	}
	e.chainID = gen.ChainID
	e.logger.Info("chain initialized", "chain_id", gen.ChainID)
	return nil
}

// BeginBlock opens a new slot. Every following instruction sees given slot
// and time until the next BeginBlock.
func (e *Executor) BeginBlock(slot uint64, now time.Time) error {
	if e.chainID == "" {
		return errors.Wrap(errors.ErrInvalidState, "chain not initialized")
	}
	header := abci.Header{ChainID: e.chainID, Height: int64(slot), Time: now}
	info, err := custody.NewBlockInfo(header, e.chainID, e.logger)
	if err != nil {
		return err
	}
	e.info = info
	e.inBlock = true
	return nil
}

// Slot returns the slot of the current block.
func (e *Executor) Slot() uint64 {
	return e.info.Slot()
}

// CheckTx validates an instruction without changing the state.
func (e *Executor) CheckTx(txBytes []byte) (*custody.CheckResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	tx, err := e.loadTx(txBytes)
	if err != nil {
		return nil, err
	}
	info := e.info.WithLogInfo("call", "check_tx", "path", custody.GetPath(tx))
	db := e.store.CheckStore().CacheWrap()
	defer db.Discard()
	return e.handler.Check(context.Background(), info, db, tx)
}

// DeliverTx executes an instruction. Its changes become part of the block
// state only if it succeeds.
func (e *Executor) DeliverTx(txBytes []byte) (*custody.DeliverResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	tx, err := e.loadTx(txBytes)
	if err != nil {
		return nil, err
	}
	info := e.info.WithLogInfo("call", "deliver_tx", "path", custody.GetPath(tx))
	db := e.store.DeliverStore().CacheWrap()
	rec := store.NewRecordingStore(db)
	res, err := e.handler.Deliver(context.Background(), info, rec, tx)
	if err != nil {
		db.Discard()
		code, msg := errors.ResultInfo(err, false)
		info.Logger().Debug("instruction failed", "code", code, "log", msg)
		return nil, err
	}
	if err := db.Write(); err != nil {
		return nil, errors.Wrap(err, "write instruction state")
	}
	info.Logger().Debug("instruction delivered", "changes", len(rec.(store.Recorder).KVPairs()))
	return res, nil
}

// Commit persists the block state and closes the block.
func (e *Executor) Commit() (custody.CommitID, error) {
	id, err := e.store.Commit()
	if err != nil {
		return id, err
	}
	e.inBlock = false
	e.logger.Debug("commit synced", "version", id.Version, "hash", id.Hash)
	return id, nil
}

// Committed returns the last committed state, for queries.
func (e *Executor) Committed() custody.ReadOnlyKVStore {
	return e.store.Committed()
}

func (e *Executor) ready() error {
	if !e.inBlock {
		return errors.Wrap(errors.ErrInvalidState, "no block")
	}
	if e.handler == nil {
		return errors.Wrap(errors.ErrInvalidState, "no handler")
	}
	return nil
}

// loadTx calls the decoder, and capture any panics
func (e *Executor) loadTx(txBytes []byte) (tx custody.Tx, err error) {
	defer errors.Recover(&err)
	return e.decoder(txBytes)
}
