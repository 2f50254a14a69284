/*
Package cash implements the native asset of the ledger.

Every address may own a wallet holding a balance of the native asset. Coins
can be moved between wallets with a SendMsg, or by any other extension using
the Controller.
*/
package cash
