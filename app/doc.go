/*
Package app contains the pieces needed to run weave handlers as a ledger.

A Router dispatches every transaction to the handler registered for the path
of its message. Decorators wrap the router with shared functionality like
authentication or logging. The Ledger decodes raw transactions, runs them
through the resulting handler inside of a cache wrap and commits the state
after every successful delivery.
*/
package app
