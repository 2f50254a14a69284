package errors

import (
	"fmt"
)

const (
	// SuccessCode is returned for a nil error.
	SuccessCode = 0

	// InternalCode is used for all unclassified errors that do not provide
	// a code. Their message is replaced with a generic one.
	InternalCode uint32 = 1
	internalLog         = "internal error"
)

// Info returns the code and the log message that can be exposed to a client.
// Any error that does not wrap a registered root error is categorized as an
// internal error and, unless debug is set, its message is replaced with a
// generic one.
func Info(err error, debug bool) (uint32, string) {
	if isNilErr(err) {
		return SuccessCode, ""
	}

	if code := errCode(err); code != InternalCode {
		if debug {
			return code, fmt.Sprintf("%+v", err)
		}
		return code, err.Error()
	}

	if debug {
		return InternalCode, fmt.Sprintf("%+v", err)
	}
	return InternalCode, internalLog
}

// Redact replaces all errors that do not wrap a registered root error, and
// all panics, with a generic internal error.
//
// This is a no-operation function when running in debug mode.
func Redact(err error, debug bool) error {
	if debug || isNilErr(err) {
		return err
	}
	if ErrPanic.Is(err) || errCode(err) == InternalCode {
		return usedCodes[InternalCode]
	}
	return err
}

type coder interface {
	Code() uint32
}

// errCode unwraps given error and returns the code of the first found root
// error. Errors without a code are internal.
func errCode(err error) uint32 {
	if isNilErr(err) {
		return SuccessCode
	}

	for {
		if c, ok := err.(coder); ok {
			return c.Code()
		}

		if c, ok := err.(causer); ok {
			err = c.Cause()
		} else {
			return InternalCode
		}
	}
}
