/*
Package x contains helpers shared by all extensions, most notably the
Authenticator abstraction used to learn who signed a transaction.

Subpackages implement the actual extensions: signature verification,
decorators, native balances, tokens and the distribution engine.
*/
package x
