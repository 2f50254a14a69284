package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Field attaches a field name and an optional description to err. A nil err
// results in a nil error, which makes it safe to build a list of checks with
// AppendField.
//
// Field names follow the Go struct naming. Elements of a list are addressed
// by their zero based index, for example Recipients.2 or Destinations.9.
func Field(fieldName string, err error, description string, args ...interface{}) error {
	if isNilErr(err) {
		return nil
	}
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}
	if len(args) != 0 {
		description = fmt.Sprintf(description, args...)
	}
	return &fieldError{field: fieldName, desc: description, parent: err}
}

// AppendField adds a field error for fieldName to errs. Nothing is added when
// fieldErr is nil.
func AppendField(errs error, fieldName string, fieldErr error) error {
	return Append(errs, Field(fieldName, fieldErr, ""))
}

// FieldErrors returns every error attached to fieldName that can be found in
// err. Groups created with Append are searched recursively.
func FieldErrors(err error, fieldName string) []error {
	var found []error
	for !isNilErr(err) {
		if f, ok := err.(fielder); ok && f.Field() == fieldName {
			return append(found, err)
		}
		switch e := err.(type) {
		case unpacker:
			for _, inner := range e.Unpack() {
				found = append(found, FieldErrors(inner, fieldName)...)
			}
			return found
		case causer:
			err = e.Cause()
		default:
			return found
		}
	}
	return found
}

type fielder interface {
	Field() string
}

type fieldError struct {
	field  string
	desc   string
	parent error
}

func (e *fieldError) Error() string {
	if e.desc == "" {
		return fmt.Sprintf("field %q: %s", e.field, e.parent)
	}
	return fmt.Sprintf("field %q: %s: %s", e.field, e.desc, e.parent)
}

func (e *fieldError) Cause() error { return e.parent }

func (e *fieldError) Field() string { return e.field }
