package errors

import (
	"errors"
	"fmt"
	"reflect"
)

const (
	// SuccessCode is reported for instructions processed without an error.
	SuccessCode uint32 = 0

	// Errors that were not registered are reported under code 1 with a
	// generic message, so that storage or library details never reach
	// the submitter.
	internalCode uint32 = 1
	internalLog         = "internal error"
)

// faults are registered kinds that report a failure of the host, its
// storage or its configuration instead of a rejected instruction.
var faults = []*Error{ErrPanic, ErrDatabase, ErrDerivation, ErrHuman}

// IsFault returns true if err is not caused by the instruction itself but
// by the host running it. Unregistered errors are faults as well.
func IsFault(err error) bool {
	if errIsNil(err) {
		return false
	}
	return fault(err) != nil || resultCode(err) == internalCode
}

func fault(err error) *Error {
	for _, kind := range faults {
		if kind.Is(err) {
			return kind
		}
	}
	return nil
}

// ResultInfo returns the code and log reported for an instruction result.
//
// An instruction rejected with a registered kind reports that kind's code
// together with the full message, so the submitter learns which account or
// check failed. Faults report their code and the kind description only.
// Unregistered errors report code 1 and a generic message. In debug mode
// the full message, including a stack trace when available, is always
// returned.
func ResultInfo(err error, debug bool) (uint32, string) {
	if errIsNil(err) {
		return SuccessCode, ""
	}
	code := resultCode(err)
	if debug {
		return code, fmt.Sprintf("%+v", err)
	}
	if code == internalCode {
		return internalCode, internalLog
	}
	if kind := fault(err); kind != nil {
		return code, kind.desc
	}
	return code, err.Error()
}

type coder interface {
	Code() uint32
}

// resultCode returns the code of the first error in the cause chain that
// carries one, or the internal code if none does.
func resultCode(err error) uint32 {
	if errIsNil(err) {
		return SuccessCode
	}
	for {
		if c, ok := err.(coder); ok {
			return c.Code()
		}
		if c, ok := err.(causer); ok {
			err = c.Cause()
		} else {
			return internalCode
		}
	}
}

// errIsNil returns true if value represented by the given error is nil.
//
// Most of the time a simple == check is enough. There is a very narrowed
// spectrum of cases (mostly in tests) where a more sophisticated check is
// required.
func errIsNil(err error) bool {
	if err == nil {
		return true
	}
	if val := reflect.ValueOf(err); val.Kind() == reflect.Ptr {
		return val.IsNil()
	}
	return false
}

// Redact strips the details ResultInfo would not report. Unregistered
// errors become a generic internal error and faults are reduced to their
// kind. Rejections are returned unchanged.
//
// This is a no-operation function when running in debug mode.
func Redact(err error, debug bool) error {
	if debug || errIsNil(err) {
		return err
	}
	if resultCode(err) == internalCode {
		return errors.New(internalLog)
	}
	if kind := fault(err); kind != nil {
		return kind
	}
	return err
}
