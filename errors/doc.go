/*
Package errors implements the error model used by all extensions.

Every error returned by a handler must wrap one of the registered root
errors. A root error carries a numeric code that is stable across releases,
so clients can act on the kind of failure without parsing messages.

Shared root errors are declared in this package. Extensions that need their
own failure kinds register them once, at package initialization, using
Register(code, description).

Use errors.Wrap(err, "...") or ErrXyz.New("...") at the point of creation so
that a stack trace is attached. Only the innermost wrap records a stack.

	%s  is the error message
	%+v is the message followed by the stack trace of the creation point
*/
package errors
