/*
Package escrow implements an expiring token escrow.

A maker locks an amount of one mint in a vault and asks for an amount of
another mint in return. Three addresses are derived for every escrow:

	auth   ["auth"]                      signs for every vault
	escrow ["escrow", maker, seed]       address of the escrow record
	vault  ["vault", escrow]             token account holding the deposit

Anyone can take an open escrow before it expires by paying the asked
amount, which atomically releases the deposit and closes both the vault
and the record. The maker can update the ask or refund at any time.
*/
package escrow
