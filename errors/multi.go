package errors

import (
	"strings"
)

// Append clubs together all provided errors. Nil values are ignored.
//
// If no non-nil error is given, nil is returned. A single non-nil error is
// returned as it is.
func Append(errs ...error) error {
	var all []error
	for _, e := range errs {
		if isNilErr(e) {
			continue
		}
		if m, ok := e.(multiErr); ok {
			all = append(all, m...)
		} else {
			all = append(all, e)
		}
	}

	switch len(all) {
	case 0:
		return nil
	case 1:
		return all[0]
	}
	return multiErr(all)
}

// multiErr represents a group of errors. It is never empty.
type multiErr []error

func (m multiErr) Error() string {
	msgs := make([]string, len(m))
	for i, e := range m {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unpack returns all errors of this group.
func (m multiErr) Unpack() []error {
	return m
}

// Cause returns the first error of the group. Errors are appended in
// the order of validation, so this is the error that would be reported by a
// fail-fast implementation.
func (m multiErr) Cause() error {
	return m[0]
}

// unpacker is implemented by errors that represent a group of errors.
type unpacker interface {
	Unpack() []error
}
