package app

import (
	"context"
	"time"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// Logging is a decorator to log instructions as they pass through
type Logging struct{}

var _ custody.Decorator = Logging{}

// NewLogging creates a Logging decorator
func NewLogging() Logging {
	return Logging{}
}

// Check logs rejection -> info, fault -> error, success -> debug
func (Logging) Check(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx, next custody.Checker) (*custody.CheckResult, error) {
	start := time.Now()
	res, err := next.Check(ctx, info, db, tx)
	var resLog string
	if err == nil {
		resLog = res.Log
	}
	logDuration(info, tx, start, resLog, err, true)
	return res, err
}

// Deliver logs error -> error, success -> info
func (Logging) Deliver(ctx context.Context, info custody.BlockInfo, db custody.KVStore, tx custody.Tx, next custody.Deliverer) (*custody.DeliverResult, error) {
	start := time.Now()
	res, err := next.Deliver(ctx, info, db, tx)
	var resLog string
	if err == nil {
		resLog = res.Log
	}
	logDuration(info, tx, start, resLog, err, false)
	return res, err
}

// logDuration writes information about the time and result to the logger
func logDuration(info custody.BlockInfo, tx custody.Tx, start time.Time, msg string, err error, lowPrio bool) {
	logger := info.Logger().With(
		"path", custody.GetPath(tx),
		"duration", time.Since(start)/time.Microsecond,
	)

	// Although message can be empty, we still want to emit a log entry
	// because it contains other relevant information beside the message.
	// Faults are always errors, even when only checking.
	switch {
	case err != nil && lowPrio && !errors.IsFault(err):
		logger.Info(msg, "err", err)
	case err != nil:
		logger.Error(msg, "err", err)
	case lowPrio:
		logger.Debug(msg)
	default:
		logger.Info(msg)
	}
}
