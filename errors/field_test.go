package errors

import (
	"testing"
)

func TestFieldErrors(t *testing.T) {
	var err error
	err = AppendField(err, "Amount", ErrAmount)
	err = AppendField(err, "Recipients.0", nil)
	err = AppendField(err, "Recipients.1", Wrap(ErrInput, "bad address"))

	if got := FieldErrors(err, "Amount"); len(got) != 1 || !ErrAmount.Is(got[0]) {
		t.Fatalf("unexpected Amount errors: %v", got)
	}
	if got := FieldErrors(err, "Recipients.0"); len(got) != 0 {
		t.Fatalf("nil field error must not be recorded: %v", got)
	}
	if got := FieldErrors(err, "Recipients.1"); len(got) != 1 || !ErrInput.Is(got[0]) {
		t.Fatalf("unexpected Recipients.1 errors: %v", got)
	}
	if got := FieldErrors(nil, "Amount"); got != nil {
		t.Fatalf("nil error has no fields: %v", got)
	}
}

func TestFieldErrorMessage(t *testing.T) {
	err := Field("Name", ErrEmpty, "required for %s", "config")
	if want := `field "Name": required for config: value is empty`; err.Error() != want {
		t.Fatalf("want %q, got %q", want, err.Error())
	}
	if Field("Name", nil, "ignored") != nil {
		t.Fatal("nil error must produce nil field error")
	}
}

func TestAppend(t *testing.T) {
	if Append(nil, nil) != nil {
		t.Fatal("group of nils must be nil")
	}
	if err := Append(nil, ErrInput); err != ErrInput {
		t.Fatalf("single error must be returned as is: %v", err)
	}
	err := Append(Append(ErrInput, ErrAmount), ErrState)
	m, ok := err.(multiErr)
	if !ok {
		t.Fatalf("want a group, got %T", err)
	}
	if len(m) != 3 {
		t.Fatalf("groups must be flattened, got %d errors", len(m))
	}
}
