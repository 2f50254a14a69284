/*
Package distribution implements proportional payment splitting.

An authority registers a configuration: an ordered list of recipients and the
share of every payment each of them receives, expressed in basis points
(10000 is the whole amount). The configuration is stored under an address
derived from the authority, so every authority owns at most one
configuration and the address of any configuration can be verified with a
single hash.

Anybody can then distribute a payment according to a configuration, either in
the native asset or in a token. A distribution message always names exactly
MaxRecipients destination slots. Unused slots are filled with BurnAddress. The
remaining destinations must match the configured recipients one to one and in
order. Every recipient receives floor(amount * percentage / 10000) and the
rounding remainder stays with the payer.

All checks are done before the first transfer is made, so a failed
distribution never moves any funds.
*/
package distribution
