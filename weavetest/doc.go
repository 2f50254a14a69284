/*
Package weavetest provides mocks and helpers for testing extensions: fake
authenticators, transactions, messages, handlers and decorators, and helpers
to create signing conditions.
*/
package weavetest
