// Package assert holds the assertions shared by custody tests. Failures
// name registered error kinds by their result code and print raw records
// as hex.
package assert

import (
	"fmt"
	"reflect"

	"github.com/iov-one/custody/errors"
)

// Tester is the subset of testing.TB the assertions need.
type Tester interface {
	Helper()
	Fatal(...interface{})
	Fatalf(string, ...interface{})
}

// Nil fails the test if given value is not nil. Errors are printed with
// their stack trace.
func Nil(t Tester, value interface{}) {
	t.Helper()
	if !isNil(value) {
		t.Fatalf("want a nil value, got %s", describeErr(value))
	}
}

func isNil(value interface{}) (isnil bool) {
	if value == nil {
		return true
	}
	defer func() {
		if recover() != nil {
			isnil = false
		}
	}()
	// IsNil panics for values that cannot be nil, like numbers or structs.
	return reflect.ValueOf(value).IsNil()
}

// Equal fails the test if two values are not deeply equal.
func Equal(t Tester, want, got interface{}) {
	t.Helper()
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("values not equal\nwant %s\n got %s", describe(want), describe(got))
	}
}

// describe prints byte slices, which hold encoded records and addresses,
// as hex. Addresses print in base58 through their String method.
func describe(v interface{}) string {
	if b, ok := v.([]byte); ok {
		return fmt.Sprintf("[]byte %X", b)
	}
	return fmt.Sprintf("%T %v", v, v)
}

// describeErr prints errors with their result code and stack trace.
func describeErr(v interface{}) string {
	err, ok := v.(error)
	if !ok {
		return describe(v)
	}
	code, _ := errors.ResultInfo(err, false)
	return fmt.Sprintf("code %d (%s): %+v", code, errors.Description(code), err)
}

// Panics fails the test if given function call does not panic.
func Panics(t Tester, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatal("panic expected")
		}
	}()
	fn()
}

// IsErr fails the test unless got is of the kind of want. A nil want
// expects no error.
func IsErr(t Tester, want, got error) {
	t.Helper()
	if want == got {
		return
	}
	if kind, ok := want.(interface{ Is(error) bool }); ok && kind.Is(got) {
		return
	}
	if got == nil {
		t.Fatalf("want %q error, got none", want)
		return
	}
	t.Fatalf("want %q error, got %s", want, describeErr(got))
}
