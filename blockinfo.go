package custody

import (
	"regexp"
	"time"

	"github.com/iov-one/custody/errors"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

var (
	// DefaultLogger is used for all context that have not
	// set anything themselves
	DefaultLogger = log.NewNopLogger()

	// IsValidChainID is the RegExp to ensure valid chain IDs
	IsValidChainID = regexp.MustCompile(`^[a-zA-Z0-9_\-]{6,20}$`).MatchString
)

// BlockInfo carries everything the host knows about the slot an instruction
// is processed in. The slot is the block height and is the clock every
// expiry is measured against.
type BlockInfo struct {
	header  abci.Header
	chainID string
	logger  log.Logger
}

// NewBlockInfo creates a BlockInfo struct with current context of where it is being executed
func NewBlockInfo(header abci.Header, chainID string, logger log.Logger) (BlockInfo, error) {
	if !IsValidChainID(chainID) {
		return BlockInfo{}, errors.Wrap(errors.ErrInvalidInput, "chainID invalid")
	}
	if header.Height < 0 {
		return BlockInfo{}, errors.Wrap(errors.ErrInvalidInput, "negative height")
	}
	if logger == nil {
		logger = DefaultLogger
	}
	return BlockInfo{
		header:  header,
		chainID: chainID,
		logger:  logger,
	}, nil
}

func (b BlockInfo) Header() abci.Header {
	return b.header
}

func (b BlockInfo) ChainID() string {
	return b.chainID
}

// Slot returns the current slot.
func (b BlockInfo) Slot() uint64 {
	return uint64(b.header.Height)
}

func (b BlockInfo) BlockTime() time.Time {
	return b.header.Time
}

func (b BlockInfo) Logger() log.Logger {
	return b.logger
}

// WithLogInfo accepts keyvalue pairs, and returns another
// context like this, after passing all the keyvals to the
// Logger
func (b BlockInfo) WithLogInfo(keyvals ...interface{}) BlockInfo {
	b.logger = b.logger.With(keyvals...)
	return b
}

// IsExpired returns true if given expiry slot is reached. Expiration is
// inclusive, meaning that if current slot is equal to the expiry than this
// function returns true. Zero expiry never expires.
func (b BlockInfo) IsExpired(expiry uint64) bool {
	return expiry != 0 && b.Slot() >= expiry
}
