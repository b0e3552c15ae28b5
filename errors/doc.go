/*
Package errors implements custom error interfaces for custody programs.

Every failure a handler reports wraps one of the root errors declared in this
package. Root errors carry a unique numeric code (see Register) so the host can
report a stable, tagged failure to the caller, and tests can match on the kind
of failure with ErrXyz.Is(err) regardless of how many times it was wrapped.

The kinds an authorization gate may raise are ErrUnauthorized,
ErrAddressMismatch, ErrInsufficientFunds, ErrExpired and ErrExpiryOutOfBounds.
None of them is retried: the caller resubmits a corrected instruction.

Please ensure you create the custom error using ErrXyz.New("...") or
errors.Wrap(err, "...") at the point of creation to ensure we attach a
stacktrace. If you wrap multiple times, we only record the first wrap with the
stacktrace.

Once you have an error, you can use `fmt.Printf/Sprintf` to get more context
	%s is just the error message
	%+v is the full stack trace
*/
package errors
