/*
Package token implements a fungible token standard on top of weave.

Every token is identified by its mint, a short ticker registered once by the
issuer. Balances are kept in holding accounts. A holding account is stored
under an address derived from the owner and the mint, so that each owner has
exactly one account per token and nobody can hold a private key for it.

Stored holding accounts are prefixed with a type discriminator. Any read of a
holding account deserializes and checks the discriminator, so a random
address can never be mistaken for an account.
*/
package token
